package main

import "mspro-labs/grid-scout/cmd"

func main() {
	cmd.Execute()
}
