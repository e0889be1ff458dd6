// Package chk is a small set of error-checking helpers used at the edges of
// the relay (socket reads, channel sends, JSON decode) to keep `if err !=
// nil { log...; return }` down to one line at the call site.
package chk

import "github.com/shadowmint/relay/pkg/utils/log"

// E logs err at error level and reports whether it was non-nil. Use for
// errors that are worth recording but that the caller can recover from by
// simply returning or skipping the current frame.
func E(err error) bool {
	if err == nil {
		return false
	}
	log.E.F("%v", err)
	return true
}

// W logs err at warn level and reports whether it was non-nil. Use for
// routine, remotely-triggerable failures (a malformed frame, a failed
// auth attempt) that do not indicate a relay-side fault.
func W(err error) bool {
	if err == nil {
		return false
	}
	log.W.F("%v", err)
	return true
}

// T logs err at error level and reports whether it was non-nil, for faults
// that should end whatever unit of work (connection, participant) is
// currently in progress rather than merely being noted and continued past.
func T(err error) bool {
	if err == nil {
		return false
	}
	log.E.F("terminal: %v", err)
	return true
}
