// Package version carries build metadata injected at link time.
package version

import (
	"fmt"
	"runtime"
)

var (
	Version   = "dev"
	Revision  string
	BuildDate string
)

// Print returns a one-line version string for the CLI.
func Print() string {
	s := fmt.Sprintf("cuke %s", Version)
	if Revision != "" {
		s += fmt.Sprintf(" (revision %s)", Revision)
	}
	if BuildDate != "" {
		s += fmt.Sprintf(" built %s", BuildDate)
	}
	return s + " " + runtime.Version()
}
