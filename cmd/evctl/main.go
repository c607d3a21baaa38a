package main

import (
	"fmt"
	"os"

	"github.com/langchou/evcharge/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "evctl:", err)
		os.Exit(1)
	}
}
