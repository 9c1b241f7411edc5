// Package safego launches long-lived background goroutines that must not take the
// process down when they panic.
package safego

import "log/slog"

// Go runs fn in a new goroutine. A panic inside fn is recovered and logged with
// name so the side listener or flusher that died can be identified.
func Go(name string, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("recovered panic in background goroutine", "goroutine", name, "panic", r)
			}
		}()
		fn()
	}()
}
