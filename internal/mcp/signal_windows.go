//go:build windows

package mcp

import (
	"os"
	"os/signal"
)

// notifySignals registers the signals that stop the server. Windows has no
// SIGTERM.
func notifySignals(ch chan<- os.Signal) {
	signal.Notify(ch, os.Interrupt)
}
