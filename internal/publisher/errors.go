package publisher

import (
	"errors"
	"fmt"
)

// Kind classifies why a bot operation did not complete.
type Kind int

const (
	KindNone Kind = iota
	// KindConfig: the config file exists but could not be read or decoded.
	KindConfig
	// KindCredentials: one of the three Mastodon secrets is empty. Reported,
	// never treated as a crash.
	KindCredentials
	// KindConnection: the instance was unreachable or rejected the request.
	KindConnection
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindConfig:
		return "config"
	case KindCredentials:
		return "credentials"
	case KindConnection:
		return "connection"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

var ErrCredentialsIncomplete = errors.New("mastodon credentials not configured")

type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

func wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf reports the Kind carried by err, or KindNone.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindNone
}
