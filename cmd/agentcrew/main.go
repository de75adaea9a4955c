// agentcrew simulates an engineering team: each persona accepts tasks,
// completes them, logs improvement suggestions and reports metrics.
//
// Usage:
//
//	agentcrew <persona-id> <command> [args...]
//	agentcrew personas
//	agentcrew serve       # MCP server on stdio
//	agentcrew dashboard   # terminal dashboard
package main

import (
	"errors"
	"fmt"
	"os"

	"agentcrew/internal/dispatch"
)

var version = "dev"

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, dispatch.ErrCommandFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
