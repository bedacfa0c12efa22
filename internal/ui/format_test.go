package ui

import (
	"testing"
	"time"
)

func TestFormatSize(t *testing.T) {
	tests := []struct {
		in   uint64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1536, "1.50 KB"},
		{5 * 1024 * 1024, "5.00 MB"},
		{3 * 1024 * 1024 * 1024, "3.00 GB"},
	}
	for _, tt := range tests {
		if got := FormatSize(tt.in); got != tt.want {
			t.Errorf("FormatSize(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatPosition(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0:00"},
		{59.9, "0:59"},
		{61, "1:01"},
		{3725, "1:02:05"},
		{-4, "0:00"},
	}
	for _, tt := range tests {
		if got := FormatPosition(tt.in); got != tt.want {
			t.Errorf("FormatPosition(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTruncateString(t *testing.T) {
	if got := TruncateString("short", 10); got != "short" {
		t.Errorf("got %q", got)
	}
	if got := TruncateString("a-very-long-video-name.mkv", 10); got != "a-very-..." {
		t.Errorf("got %q", got)
	}
	if got := TruncateString("ünïcödé", 3); got != "ünï" {
		t.Errorf("got %q", got)
	}
}

func TestFormatSpeedAndDuration(t *testing.T) {
	if got := FormatSpeed(512); got != "512 B/s" {
		t.Errorf("FormatSpeed(512) = %q", got)
	}
	if got := FormatSpeed(3 * 1024 * 1024); got != "3.00 MB/s" {
		t.Errorf("FormatSpeed(3MiB) = %q", got)
	}
	if got := FormatDuration(42 * time.Second); got != "42s" {
		t.Errorf("FormatDuration(42s) = %q", got)
	}
	if got := FormatDuration(time.Hour + 2*time.Minute + 3*time.Second); got != "1h 2m 3s" {
		t.Errorf("FormatDuration(1h2m3s) = %q", got)
	}
}
