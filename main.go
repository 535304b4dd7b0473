// ABOUTME: Entry point for crediteval CLI
// ABOUTME: Terminal client for the credit risk evaluation service

package main

import (
	"fmt"
	"os"

	"github.com/markalston/crediteval/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
