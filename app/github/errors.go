package github

import (
	"errors"
	"fmt"
)

type ErrorKind int

const (
	// KindTransient covers network failures and unexpected status codes;
	// callers may retry the whole sync attempt.
	KindTransient ErrorKind = iota
	// KindNotFound means the repository, branch, or file does not exist.
	KindNotFound
	// KindAuth means the remote rejected the credential (401/403). The
	// orchestrator flips the source's credential status on this kind.
	KindAuth
)

// APIError is the classified failure type returned by the Client. The sync
// orchestrator branches on Kind instead of matching message text.
type APIError struct {
	Kind       ErrorKind
	StatusCode int
	Resource   string
	Err        error
}

func (e *APIError) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("github: %s: %v", e.Resource, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("github: %s: unexpected status %d", e.Resource, e.StatusCode)
	default:
		return fmt.Sprintf("github: %s failed", e.Resource)
	}
}

func (e *APIError) Unwrap() error {
	return e.Err
}

func classify(status int) ErrorKind {
	switch status {
	case 404:
		return KindNotFound
	case 401, 403:
		return KindAuth
	default:
		return KindTransient
	}
}

// IsNotFound reports whether err is a classified not-found failure.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == KindNotFound
}

// IsAuthError reports whether err is a classified authentication failure.
func IsAuthError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == KindAuth
}
