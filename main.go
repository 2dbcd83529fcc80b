package main

import (
	"fmt"
	"os"

	"github.com/temirov/cfsync/cmd/cli"
)

const (
	exitErrorTemplateConstant = "Error: %v\n"
	exitFailureCodeConstant   = 1
)

// main executes the git-cfsync command-line application.
func main() {
	if executionError := cli.Execute(); executionError != nil {
		fmt.Fprintf(os.Stderr, exitErrorTemplateConstant, executionError)
		os.Exit(exitFailureCodeConstant)
	}
}
