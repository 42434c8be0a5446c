// Package workflow implements the approval and publication lifecycle shared by
// forum posts and memories.
//
// The two axes are independent: approval is one of pending, approved or
// rejected; publication is a boolean. Each transition touches one axis and
// records who performed it and when. Transitions into the current state are
// no-ops.
package workflow

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bensalemboualem/ifactory-school/internal/models"
)

type Transition string

const (
	Approve     Transition = "approve"
	Reject      Transition = "reject"
	MarkPending Transition = "mark_pending"
	Publish     Transition = "publish"
	Unpublish   Transition = "unpublish"
)

var ErrUnknownTransition = errors.New("unknown status transition")

var transitionTokens = map[string]Transition{
	"approved":     Approve,
	"approve":      Approve,
	"rejected":     Reject,
	"reject":       Reject,
	"pending":      MarkPending,
	"markpending":  MarkPending,
	"mark_pending": MarkPending,
	"published":    Publish,
	"publish":      Publish,
	"unpublished":  Unpublish,
	"unpublish":    Unpublish,
}

// ParseTransition maps a target status token (approved, rejected, pending,
// published, unpublished) or its verb form to a Transition.
func ParseTransition(token string) (Transition, error) {
	t, ok := transitionTokens[strings.ToLower(strings.TrimSpace(token))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownTransition, token)
	}
	return t, nil
}

// Initialize sets the creation state. Privileged creators get approved and
// published content; everyone else gets pending content that is already
// published, moderation happening after the fact.
func Initialize(p *models.ContentPost, actorID uuid.UUID, privileged bool, now time.Time) {
	if privileged {
		setApproved(p, actorID, now)
	} else {
		setPending(p, actorID, now)
	}
	setPublished(p, actorID, now)
}

// Apply performs t on p and reports whether anything changed.
func Apply(p *models.ContentPost, t Transition, actorID uuid.UUID, now time.Time) (bool, error) {
	switch t {
	case Approve:
		if p.ApprovalStatus == models.ApprovalApproved {
			return false, nil
		}
		setApproved(p, actorID, now)
	case Reject:
		if p.ApprovalStatus == models.ApprovalRejected {
			return false, nil
		}
		setRejected(p, actorID, now)
	case MarkPending:
		if p.ApprovalStatus == models.ApprovalPending {
			return false, nil
		}
		setPending(p, actorID, now)
	case Publish:
		if p.IsPublished {
			return false, nil
		}
		setPublished(p, actorID, now)
	case Unpublish:
		if !p.IsPublished {
			return false, nil
		}
		p.IsPublished = false
		p.PublishedBy = nil
		p.PublishedAt = nil
	default:
		return false, fmt.Errorf("%w: %q", ErrUnknownTransition, t)
	}
	return true, nil
}

func setApproved(p *models.ContentPost, actorID uuid.UUID, now time.Time) {
	p.ApprovalStatus = models.ApprovalApproved
	p.ApprovedBy, p.ApprovedAt = stamp(actorID, now)
	p.RejectedBy, p.RejectedAt = nil, nil
	p.PendingBy, p.PendingAt = nil, nil
}

func setRejected(p *models.ContentPost, actorID uuid.UUID, now time.Time) {
	p.ApprovalStatus = models.ApprovalRejected
	p.RejectedBy, p.RejectedAt = stamp(actorID, now)
	p.ApprovedBy, p.ApprovedAt = nil, nil
	p.PendingBy, p.PendingAt = nil, nil
}

func setPending(p *models.ContentPost, actorID uuid.UUID, now time.Time) {
	p.ApprovalStatus = models.ApprovalPending
	p.PendingBy, p.PendingAt = stamp(actorID, now)
	p.ApprovedBy, p.ApprovedAt = nil, nil
	p.RejectedBy, p.RejectedAt = nil, nil
}

func setPublished(p *models.ContentPost, actorID uuid.UUID, now time.Time) {
	p.IsPublished = true
	p.PublishedBy, p.PublishedAt = stamp(actorID, now)
}

// stamp returns fresh pointers so posts never share audit values.
func stamp(actorID uuid.UUID, now time.Time) (*uuid.UUID, *time.Time) {
	id := actorID
	at := now
	return &id, &at
}
