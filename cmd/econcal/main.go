package main

import "github.com/pfrederiksen/econcal/internal/cli"

func main() {
	cli.Execute()
}
