//go:build !windows

package progress

import (
	"os"

	"golang.org/x/sys/unix"
)

const fallbackWidth = 80

// terminalWidth reports os.Stderr's current column count via
// TIOCGWINSZ, falling back to a fixed width when stderr isn't a
// terminal (piped/redirected output, CI logs).
func terminalWidth() int {
	ws, err := unix.IoctlGetWinsize(int(os.Stderr.Fd()), unix.TIOCGWINSZ)
	if err != nil || ws.Col == 0 {
		return fallbackWidth
	}
	return int(ws.Col)
}
