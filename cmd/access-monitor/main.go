package main

import "rotafacil/cmd/access-monitor/cmd"

func main() {
	cmd.Execute()
}
