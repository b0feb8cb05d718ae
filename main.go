package main

import (
	"github.com/Manu343726/x86sim/cmd"
)

func main() {
	cmd.Execute()
}
