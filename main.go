package main

import "github.com/strumhq/strum/internal/cli"

func main() {
	cli.Execute()
}
