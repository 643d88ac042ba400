package main

import (
	"os"

	"github.com/pulsewatch/server/cmd"
)

func main() {
	if err := cmd.Run(); err != nil {
		os.Exit(1)
	}
}
