// Package errorf is a one-function wrapper around fmt.Errorf used for
// constructing internal errors with a consistent call shape across the
// relay.
package errorf

import "fmt"

// E formats and returns an error, exactly like fmt.Errorf.
func E(format string, v ...any) error {
	return fmt.Errorf(format, v...)
}
