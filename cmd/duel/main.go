package main

import "github.com/mcoot/cardduel/internal/cli"

func main() {
	cli.Execute()
}
