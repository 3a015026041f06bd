package main

import (
	"os"

	"github.com/blukraken/texview/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
