package main

import "go.vocdoni.io/reserve/cmd/reservecli/commands"

func main() {
	commands.Execute()
}
