package main

import (
	"github.com/souragc/GECCO/cmd"
)

func main() {
	cmd.Execute() // initialize cobra commands
}
