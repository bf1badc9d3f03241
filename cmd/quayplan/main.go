package main

import "github.com/harborops/quayplan/internal/adapters/cli"

func main() {
	cli.Execute()
}
