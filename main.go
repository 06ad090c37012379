package main

import "github.com/specsmith/specsmith/cmd"

func main() {
	cmd.Execute()
}
