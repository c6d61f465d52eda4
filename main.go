package main

import "github.com/amberseal/amberseal/cmd"

func main() {
	cmd.Execute()
}
