package ui

import "testing"

func TestSpinnerStopTwice(t *testing.T) {
	for _, run := range []func(string) func(){RunConnectionSpinner, RunWaitingSpinner} {
		stop := run("connecting")
		stop()
		stop()
	}
}
