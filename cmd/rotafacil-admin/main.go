package main

import "rotafacil/cmd/rotafacil-admin/cmd"

func main() {
	cmd.Execute()
}
