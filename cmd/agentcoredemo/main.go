// Command agentcoredemo drives the Agent loop from a terminal, following
// the command-tree shape of the teacher's frontend/cli/cmd/root.go.
package main

import (
	"fmt"
	"os"

	"github.com/furisto/agentcore/cmd/agentcoredemo/cmd"
)

func main() {
	if err := cmd.NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
