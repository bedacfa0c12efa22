package ui

import (
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
)

// RunConnectionSpinner animates msg while a dial or handshake is in flight.
// Call the returned function to stop it and clear the line.
func RunConnectionSpinner(msg string) func() {
	return runSpinner(spinner.Globe.Frames, 180*time.Millisecond, msg)
}

// RunWaitingSpinner animates msg while waiting on the other side.
func RunWaitingSpinner(msg string) func() {
	return runSpinner(spinner.Points.Frames, 100*time.Millisecond, msg)
}

func runSpinner(frames []string, every time.Duration, msg string) func() {
	done := make(chan struct{})
	stopped := make(chan struct{})

	go func() {
		defer close(stopped)
		tick := time.NewTicker(every)
		defer tick.Stop()

		for i := 0; ; i = (i + 1) % len(frames) {
			fmt.Printf("\r%s %s", SpinnerStyle.Render(frames[i]), msg)
			select {
			case <-done:
				return
			case <-tick.C:
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			<-stopped
			fmt.Print("\r\033[K")
		})
	}
}
