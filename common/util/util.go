// Package util implements various utility functions shared by the tools.
package util

// Exit codes for the tools
const (
	ExitClean      = 0
	ExitError      = 1
	ExitBadOptions = 3
)
