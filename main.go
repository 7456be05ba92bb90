package main

import (
	"os"

	"github.com/AnyUserName/covercrop/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
