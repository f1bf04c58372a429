package main

import "github.com/pansum/panelpipe/cmd"

func main() {
	cmd.Execute()
}
