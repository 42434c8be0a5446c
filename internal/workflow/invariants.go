package workflow

import (
	"errors"
	"fmt"

	"github.com/bensalemboualem/ifactory-school/internal/models"
)

var ErrInconsistentState = errors.New("inconsistent lifecycle state")

// Validate checks the audit-field invariants of both axes.
func Validate(p *models.ContentPost) error {
	approved := p.ApprovedBy != nil || p.ApprovedAt != nil
	rejected := p.RejectedBy != nil || p.RejectedAt != nil
	pending := p.PendingBy != nil || p.PendingAt != nil

	var want, got bool
	switch p.ApprovalStatus {
	case models.ApprovalApproved:
		want, got = p.ApprovedBy != nil && p.ApprovedAt != nil, rejected || pending
	case models.ApprovalRejected:
		want, got = p.RejectedBy != nil && p.RejectedAt != nil, approved || pending
	case models.ApprovalPending:
		want, got = p.PendingBy != nil && p.PendingAt != nil, approved || rejected
	default:
		return fmt.Errorf("%w: approval status %q", ErrInconsistentState, p.ApprovalStatus)
	}
	if !want || got {
		return fmt.Errorf("%w: audit fields do not match approval status %q", ErrInconsistentState, p.ApprovalStatus)
	}

	hasPublisher := p.PublishedBy != nil && p.PublishedAt != nil
	noPublisher := p.PublishedBy == nil && p.PublishedAt == nil
	if (p.IsPublished && !hasPublisher) || (!p.IsPublished && !noPublisher) {
		return fmt.Errorf("%w: publication fields do not match is_published=%t", ErrInconsistentState, p.IsPublished)
	}
	return nil
}
