package main

import "github.com/mvp-joe/project-indexer/internal/cli"

func main() {
	cli.Execute()
}
