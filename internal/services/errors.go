package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/bensalemboualem/ifactory-school/internal/authz"
)

var (
	ErrPostNotFound       = errors.New("post not found")
	ErrCommentNotFound    = errors.New("comment not found")
	ErrForbidden          = errors.New("action not allowed")
	ErrOperationFailed    = errors.New("operation failed")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
)

// failed logs an unexpected error and hides it behind ErrOperationFailed.
func failed(ctx context.Context, action string, actor authz.Actor, err error) error {
	slog.ErrorContext(ctx, "operation failed",
		"action", action,
		"school_id", actor.SchoolID,
		"user_id", actor.ID.String(),
		"error", err.Error(),
	)
	return ErrOperationFailed
}
