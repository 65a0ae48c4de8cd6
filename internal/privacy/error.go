package privacy

// SanitizedError wraps an error with a message safe for logging. The
// original error stays reachable through Unwrap.
type SanitizedError struct {
	original     error
	sanitizedMsg string
}

func (e *SanitizedError) Error() string {
	return e.sanitizedMsg
}

func (e *SanitizedError) Unwrap() error {
	return e.original
}

// WrapError scrubs URLs from err's message. Returns nil for a nil error.
func WrapError(err error) error {
	if err == nil {
		return nil
	}

	msg := err.Error()
	scrubbed := ScrubMessage(msg)
	if scrubbed == msg {
		return err
	}

	return &SanitizedError{original: err, sanitizedMsg: scrubbed}
}
