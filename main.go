package main

import "github.com/agentic-research/descry/cmd"

func main() {
	cmd.Execute()
}
