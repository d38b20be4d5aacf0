package main

import "github.com/example/wordmastery/cmd"

func main() {
	cmd.Execute()
}
