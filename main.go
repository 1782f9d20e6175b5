package main

import (
	"os"

	"github.com/spigell/salary-intel/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
