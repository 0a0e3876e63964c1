package classifier

import "errors"

// TransientError covers failures a retry may fix: timeouts, rate limits,
// server-side errors.
type TransientError struct {
	Reason string
	Err    error
}

func (e *TransientError) Error() string {
	if e.Err != nil {
		return "transient: " + e.Reason + ": " + e.Err.Error()
	}
	return "transient: " + e.Reason
}

func (e *TransientError) Unwrap() error { return e.Err }

// TerminalError covers failures no retry can fix: auth, malformed request,
// rejected input. Auth marks credential failures so the dispatcher's abort
// policy can act on them.
type TerminalError struct {
	Reason string
	Auth   bool
	Err    error
}

func (e *TerminalError) Error() string {
	if e.Err != nil {
		return "terminal: " + e.Reason + ": " + e.Err.Error()
	}
	return "terminal: " + e.Reason
}

func (e *TerminalError) Unwrap() error { return e.Err }

func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}

func IsTerminal(err error) bool {
	var te *TerminalError
	return errors.As(err, &te)
}

func IsAuthFailure(err error) bool {
	var te *TerminalError
	return errors.As(err, &te) && te.Auth
}
