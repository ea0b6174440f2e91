package main

import (
	"github.com/oedokumaci/dead-mans-switch/cmd/dead-mans-switch/cmd"
)

func main() {
	cmd.Execute()
}
