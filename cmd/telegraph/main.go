package main

import "github.com/ghalamif/telegraph/cmd/telegraph/commands"

func main() {
	commands.Execute()
}
