package api

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/solatis/sentenceparser/internal/types"
)

// Auth errors are mapped in the auth package interceptor.
// Validation errors map to INVALID_ARGUMENT, unknown rules to NOT_FOUND,
// context expiry to DEADLINE_EXCEEDED, everything else from the store to
// UNAVAILABLE.
func statusFor(err error) error {
	switch {
	case errors.Is(err, types.ErrEmptyRuleText),
		errors.Is(err, types.ErrRuleTextTooLong),
		errors.Is(err, types.ErrSentenceTooLong),
		errors.Is(err, types.ErrInvalidPosition),
		errors.Is(err, types.ErrInvalidArgument):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, types.ErrRuleNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	default:
		return status.Error(codes.Unavailable, err.Error())
	}
}
