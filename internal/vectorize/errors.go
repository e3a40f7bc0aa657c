package vectorize

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is matched by every *InvalidInputError through errors.Is.
var ErrInvalidInput = errors.New("vectorize: invalid input")

// InvalidInputError reports a raster or parameter the vectorizer cannot
// process, such as a raster with fewer than two rows or a non-positive
// stride.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string {
	return "vectorize: invalid input: " + e.Reason
}

// Is makes errors.Is(err, ErrInvalidInput) true for any InvalidInputError.
func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}

func invalidInput(format string, args ...any) error {
	return &InvalidInputError{Reason: fmt.Sprintf(format, args...)}
}
