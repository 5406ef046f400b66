package progress

import (
	"bytes"
	"strings"
	"testing"
)

func TestReportWritesLine(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf)
	w.Report("stage 1: class/field skeleton")

	got := strings.TrimRight(buf.String(), "\n")
	if got != "stage 1: class/field skeleton" {
		t.Fatalf("got %q", got)
	}
}

func TestReportTruncatesLongMessageBelowTerminalWidth(t *testing.T) {
	var buf bytes.Buffer
	w := New(&buf)
	long := strings.Repeat("x", 1<<20)
	w.Report(long)

	got := strings.TrimRight(buf.String(), "\n")
	if len(got) >= len(long) {
		t.Fatalf("expected a message this long to be truncated, got length %d", len(got))
	}
}
