package util

import (
	"errors"
	"strings"
)

// ErrPublic is an error whose message is safe to show to whoever triggered
// it. errors.Is(err, ErrPublic("")) matches any ErrPublic in the chain.
type ErrPublic string

func (e ErrPublic) Error() string {
	return string(e)
}

func (e ErrPublic) Is(v error) bool {
	_, ok := v.(ErrPublic)
	return ok
}

// PublicMessage returns the message of the first ErrPublic found in err, if
// any.
func PublicMessage(err error) (string, bool) {
	var public ErrPublic
	if errors.As(err, &public) {
		return string(public), true
	}

	return "", false
}

func ConcatErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}

	filtered := make([]string, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err.Error())
		}
	}

	if len(filtered) == 0 {
		return nil
	}

	return errors.New(strings.Join(filtered, "; "))
}
