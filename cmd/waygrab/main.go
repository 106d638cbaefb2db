package main

import "github.com/waygrab/waygrab/cmd/waygrab/commands"

func main() {
	commands.Execute()
}
