package chat

// Kind is the user-facing failure taxonomy. Everything a request can go
// wrong with maps onto one of these; nothing else escapes the service.
type Kind string

const (
	// KindBadRequest: missing message or session id. No side effects occurred.
	KindBadRequest Kind = "bad_request"
	// KindUnavailable: upstream rate limiting or transient overload; safe
	// to suggest a retry.
	KindUnavailable Kind = "unavailable"
	// KindInternal: any other provider or internal failure, timeouts
	// included.
	KindInternal Kind = "internal"
)

// Error carries a user-safe message plus optional operator-facing detail.
// Detail content comes from provider errors and is not stable across
// providers.
type Error struct {
	Kind    Kind
	Message string
	Detail  string
	Err     error
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return e.Message + ": " + e.Detail
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func badRequest(message string) *Error {
	return &Error{Kind: KindBadRequest, Message: message}
}

func unavailable(err error) *Error {
	return &Error{
		Kind:    KindUnavailable,
		Message: "The assistant is temporarily unavailable. Please try again in a moment.",
		Detail:  err.Error(),
		Err:     err,
	}
}

func internal(message string, err error) *Error {
	e := &Error{Kind: KindInternal, Message: message, Err: err}
	if err != nil {
		e.Detail = err.Error()
	}
	return e
}
