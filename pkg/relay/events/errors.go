// Package events defines the wire vocabulary exchanged between the relay
// and its connected participants: the external JSON envelopes named in
// spec §6, and the stable error codes of spec §7.
package events

// ErrorCode is one of the stable, caller-visible wire error codes (spec §7).
type ErrorCode int

const (
	ArcMutexFailure            ErrorCode = 1
	MasterIDConflict           ErrorCode = 2
	ClientIDConflict           ErrorCode = 3
	ClientLimitExceeded        ErrorCode = 4
	NoMatchingMasterID         ErrorCode = 5
	InvalidClientIdentityToken ErrorCode = 6
	NoMatchingClientID         ErrorCode = 7
	ClientNotConnected         ErrorCode = 8
	NotActive                  ErrorCode = 9
	AuthFailed                 ErrorCode = 10
	InvalidRequest             ErrorCode = 11
	SyncError                  ErrorCode = 12
	Unknown                    ErrorCode = 13
	TransactionExpired         ErrorCode = 14
)

var reasons = map[ErrorCode]string{
	ArcMutexFailure:            "internal synchronization fault",
	MasterIDConflict:           "the requested session name is already in use",
	ClientIDConflict:           "the requested client identity is already joined",
	ClientLimitExceeded:        "too many connected clients, no free slots",
	NoMatchingMasterID:         "no session found matching the requested id",
	InvalidClientIdentityToken: "the client identity token was malformed",
	NoMatchingClientID:         "no client found matching the requested id",
	ClientNotConnected:         "no active join to a master exists yet for this client",
	NotActive:                  "the target has not completed initialization",
	AuthFailed:                 "the authentication handshake was rejected",
	InvalidRequest:             "the request was not a recognised protocol message",
	SyncError:                  "the waiter was cancelled before a reply arrived",
	Unknown:                    "an unspecified internal error occurred",
	TransactionExpired:         "no reply arrived before the transaction timeout elapsed",
}

// Error is the wire shape of an error accompanying a failed TransactionResult.
type Error struct {
	Code   ErrorCode `json:"error_code"`
	Reason string    `json:"error_reason"`
}

// NewError builds the wire Error for a code, filling in its stable reason
// text. An unrecognised code is reported as Unknown.
func NewError(code ErrorCode) *Error {
	reason, ok := reasons[code]
	if !ok {
		code = Unknown
		reason = reasons[Unknown]
	}
	return &Error{Code: code, Reason: reason}
}
