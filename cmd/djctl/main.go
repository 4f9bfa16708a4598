// Command djctl drives a djmonitor server from the terminal.
//
// Usage:
//
//	djctl status                          # Show the current publication
//	djctl publish --text "Last call" --color red --blink
//	djctl clear                           # Remove the announcement text
//	djctl end-time 2025-03-01 20:00 --warning 15
//	djctl blink red                       # One-shot blink pulse
//	djctl watch --redis redis://localhost:6379
package main

import (
	"os"
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}
