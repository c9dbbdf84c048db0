package main

import (
	"os"

	"github.com/jggl/kb-assist/cmd/kbassist/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
