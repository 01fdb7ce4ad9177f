package main

import "github.com/JonMunkholm/sweeper/internal/cli"

func main() {
	cli.Execute()
}
