package main

import (
	"os"

	"github.com/khanhnv2901/assess/cmd"
)

var (
	execCmd = cmd.Execute
	exit    = os.Exit
)

func main() {
	exit(execCmd())
}
