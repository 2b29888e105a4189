package practice

import (
	"errors"
	"fmt"

	"github.com/mind-engage/elearn/internal/course"
)

// Shared with the course store so the HTTP layer maps a single set of sentinels.
var (
	ErrNotFound     = course.ErrNotFound
	ErrInvalidInput = course.ErrInvalidInput
	ErrForbidden    = errors.New("forbidden")
)

func invalid(msg string) error   { return fmt.Errorf("%w: %s", ErrInvalidInput, msg) }
func forbidden(msg string) error { return fmt.Errorf("%w: %s", ErrForbidden, msg) }
