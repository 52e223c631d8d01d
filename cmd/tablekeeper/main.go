package main

import (
	"os"

	"github.com/yangizzy/tablekeeper/cmd/tablekeeper/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
