package transform

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidChoice is matched by ChoiceError.
	ErrInvalidChoice = errors.New("invalid choice")
	ErrNoRunDate     = errors.New("run date is required")
)

// ChoiceError reports an enum value outside its allowed set.
type ChoiceError struct {
	Field   string
	Value   string
	Allowed []string
}

func (e *ChoiceError) Error() string {
	return fmt.Sprintf("%s %q is not valid; choose one of: %s", e.Field, e.Value, strings.Join(e.Allowed, ", "))
}

func (e *ChoiceError) Is(target error) bool { return target == ErrInvalidChoice }
