package main

import "github.com/accendhq/accend/cmd"

func main() {
	cmd.Execute()
}
