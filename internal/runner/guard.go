package runner

import (
	"errors"
	"fmt"
	"strings"
)

// ErrFlagInjection indicates a user-supplied value that the CLI would parse as
// an option.
var ErrFlagInjection = errors.New("value looks like a flag")

// FlagInjectionError names the offending parameter.
type FlagInjectionError struct {
	Param string
	Value string
}

func (e *FlagInjectionError) Error() string {
	return fmt.Sprintf("%s: %q must not start with '-'", e.Param, e.Value)
}

func (e *FlagInjectionError) Unwrap() error { return ErrFlagInjection }

// AssertNoFlagInjection rejects a positional value beginning with '-'.
// Empty values pass; callers omit them from the argument list.
func AssertNoFlagInjection(value, param string) error {
	if strings.HasPrefix(value, "-") {
		return &FlagInjectionError{Param: param, Value: value}
	}
	return nil
}

// AssertNoFlagInjectionAll applies AssertNoFlagInjection to every value and
// returns the first failure.
func AssertNoFlagInjectionAll(values []string, param string) error {
	for i, v := range values {
		if err := AssertNoFlagInjection(v, fmt.Sprintf("%s[%d]", param, i)); err != nil {
			return err
		}
	}
	return nil
}
