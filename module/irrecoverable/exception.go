package irrecoverable

import (
	"errors"
	"fmt"
)

var exceptionSentinel = errors.New("exception")

// exception wraps errors that must never be treated as benign by callers:
// wrapping with an exception hides any sentinel error the caller could match on.
type exception struct {
	err error
}

func (e exception) Error() string {
	return e.err.Error()
}

func (e exception) Is(target error) bool {
	return target == exceptionSentinel
}

// NewException wraps err into an exception. errors.Is on the result no longer
// matches the sentinels contained in err.
func NewException(err error) error {
	return exception{err: fmt.Errorf("%s", err.Error())}
}

// NewExceptionf is NewException with formatting.
func NewExceptionf(msg string, args ...any) error {
	return NewException(fmt.Errorf(msg, args...))
}

// IsException reports whether err is, or wraps, an exception.
func IsException(err error) bool {
	return errors.Is(err, exceptionSentinel)
}
