package main

import "github.com/alexiusacademia/gopic/cmd"

func main() {
	cmd.Execute()
}
