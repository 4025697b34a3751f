package domain

import "errors"

var (
	// ErrInvalidThreshold marks a threshold update that would violate the
	// pH_low < pH_high invariant. The stored set is left untouched.
	ErrInvalidThreshold = errors.New("invalid threshold")

	// ErrStorageUnavailable marks a persistence failure. A failed insert
	// means the reading was not recorded; callers must not assume success.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrNotifyFailed marks a notification channel failure. It never leaves
	// the alert dispatcher: the reading is already durably stored, so a lost
	// notification is logged and dropped.
	ErrNotifyFailed = errors.New("notification failed")
)
