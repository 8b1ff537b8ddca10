package main

import "github.com/candemir/studydeck/internal/cli"

func main() {
	cli.Execute()
}
