package main

import "github.com/tidemark/marketd/internal/cli"

func main() {
	cli.Execute()
}
