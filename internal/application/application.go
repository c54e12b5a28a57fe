package application

import (
	"context"
	"errors"
	"fmt"
)

type UseCase[C any, R any] interface {
	Execute(ctx context.Context, cmd C) (R, error)
}

var (
	ErrValidation = errors.New("validation")
	ErrUnexpected = errors.New("unexpected failure")
)

// Validation returns an error matching ErrValidation ("validation: <msg>").
func Validation(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}
