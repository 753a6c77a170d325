package utils

import "io"

// Close closes c and discards the error. Meant for defers where the
// close error carries no signal, like drained HTTP response bodies.
func Close(c io.Closer) {
	_ = c.Close()
}
