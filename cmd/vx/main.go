package main

import (
	"os"

	"github.com/loonghao/vx/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
