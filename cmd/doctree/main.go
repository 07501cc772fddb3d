package main

import "github.com/kstonekuan/docs-tree-ai/internal/cli"

func main() {
	cli.Execute()
}
