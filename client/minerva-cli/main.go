package main

import "Minerva_AI/client/minerva-cli/cmd"

func main() {
	cmd.Execute()
}
