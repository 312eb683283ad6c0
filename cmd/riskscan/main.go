package main

import (
	"fmt"
	"os"

	apperrors "github.com/ZanzyTHEbar/sprint-risk-o-meter/internal/errors"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(exitCode(err))
	}
}

// exitCode is 2 for problems the user can fix by changing the inputs and 1
// for everything else.
func exitCode(err error) int {
	if apperrors.IsRecoverable(err) {
		return 2
	}
	return 1
}
