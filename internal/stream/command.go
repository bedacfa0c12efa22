package stream

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrUnknownCommand is returned by ParseCommand for anything it cannot read.
var ErrUnknownCommand = errors.New("unknown command")

// Command is one playback control typed by the host.
type Command struct {
	Action string
	Time   float64
}

// ParseCommand reads "play", "pause" or "seek <seconds>".
func ParseCommand(line string) (Command, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return Command{}, ErrUnknownCommand
	}

	switch fields[0] {
	case "play", "pause":
		if len(fields) != 1 {
			return Command{}, fmt.Errorf("%s takes no arguments", fields[0])
		}
		return Command{Action: fields[0]}, nil

	case "seek":
		if len(fields) != 2 {
			return Command{}, errors.New("usage: seek <seconds>")
		}
		t, err := strconv.ParseFloat(fields[1], 64)
		if err != nil || t < 0 {
			return Command{}, fmt.Errorf("invalid position %q", fields[1])
		}
		return Command{Action: "seek", Time: t}, nil
	}

	return Command{}, fmt.Errorf("%w: %s", ErrUnknownCommand, fields[0])
}

// Apply runs c against h.
func (c Command) Apply(h *Host) error {
	switch c.Action {
	case "play":
		return h.Play()
	case "pause":
		return h.Pause()
	case "seek":
		return h.Seek(c.Time)
	}
	return ErrUnknownCommand
}
