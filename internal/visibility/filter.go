// Package visibility computes which content posts an actor may list.
package visibility

import (
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/bensalemboualem/ifactory-school/internal/authz"
	"github.com/bensalemboualem/ifactory-school/internal/models"
	"github.com/bensalemboualem/ifactory-school/internal/validation"
)

const PageSize = 10

// View selects one of the three visibility profiles.
type View string

const (
	// ViewAll lists every post of the school. Moderators only.
	ViewAll View = "all"
	// ViewMine lists the actor's own posts.
	ViewMine View = "mine"
	// ViewFeed lists posts targeting the actor's role, whoever wrote them.
	ViewFeed View = "feed"
)

var ErrViewForbidden = errors.New("view not allowed for this actor")

// Params are the raw optional list filters as received from the caller.
type Params struct {
	View            string `query:"view"`
	Status          string `query:"status"`
	PublishedStatus string `query:"published_status"`
	ApprovalStatus  string `query:"approval_status"`
	Keyword         string `query:"keyword"`
	Publisher       string `query:"publisher"`
	Page            int    `query:"page"`
}

// Query is a validated, storage-agnostic list predicate. Empty fields are not
// filtered on.
type Query struct {
	SchoolID string
	Kind     models.ContentKind
	View     View

	OwnerID uuid.UUID // ViewMine
	Role    string    // ViewFeed

	Status         string
	Published      *bool
	ApprovalStatus string
	Keyword        string
	PublisherRole  string

	Page     int
	PageSize int
}

// Build validates params for actor and returns the query to run. An empty view
// defaults to ViewAll for moderators and ViewFeed for everyone else.
func Build(actor authz.Actor, kind models.ContentKind, params Params, privileged bool) (Query, error) {
	q := Query{
		SchoolID: actor.SchoolID,
		Kind:     kind,
		Page:     params.Page,
		PageSize: PageSize,
	}
	if q.Page < 1 {
		q.Page = 1
	}

	verr := &validation.Error{}

	switch View(strings.ToLower(params.View)) {
	case "":
		if privileged {
			q.View = ViewAll
		} else {
			q.View = ViewFeed
		}
	case ViewAll:
		q.View = ViewAll
	case ViewMine:
		q.View = ViewMine
	case ViewFeed:
		q.View = ViewFeed
	default:
		verr.Add("view", "must be one of: all, mine, feed")
	}

	switch q.View {
	case ViewAll:
		if !privileged {
			return Query{}, ErrViewForbidden
		}
	case ViewMine:
		q.OwnerID = actor.ID
	case ViewFeed:
		q.Role = actor.Role
	}

	switch params.Status {
	case "", models.StatusActive, models.StatusInactive:
		q.Status = params.Status
	default:
		verr.Add("status", "must be one of: active, inactive")
	}

	switch params.PublishedStatus {
	case "":
	case "published":
		v := true
		q.Published = &v
	case "unpublished":
		v := false
		q.Published = &v
	default:
		verr.Add("published_status", "must be one of: published, unpublished")
	}

	switch params.ApprovalStatus {
	case "", models.ApprovalPending, models.ApprovalApproved, models.ApprovalRejected:
		q.ApprovalStatus = params.ApprovalStatus
	default:
		verr.Add("approval_status", "must be one of: pending, approved, rejected")
	}

	if params.Publisher != "" && q.View == ViewAll {
		if !authz.ValidRole(params.Publisher) {
			verr.Add("publisher", "must be a known role")
		}
		q.PublisherRole = params.Publisher
	}

	q.Keyword = strings.TrimSpace(params.Keyword)

	if err := verr.OrNil(); err != nil {
		return Query{}, err
	}
	return q, nil
}

// Offset is the number of rows to skip for the requested page.
func (q Query) Offset() int {
	return (q.Page - 1) * q.PageSize
}

// Matches evaluates the query against a single post.
func (q Query) Matches(p *models.ContentPost) bool {
	if p.SchoolID != q.SchoolID || p.Kind != q.Kind {
		return false
	}
	switch q.View {
	case ViewMine:
		if p.CreatedBy != q.OwnerID {
			return false
		}
	case ViewFeed:
		if !p.HasTargetRole(q.Role) {
			return false
		}
	}
	if q.Status != "" && p.Status != q.Status {
		return false
	}
	if q.Published != nil && p.IsPublished != *q.Published {
		return false
	}
	if q.ApprovalStatus != "" && p.ApprovalStatus != q.ApprovalStatus {
		return false
	}
	if q.PublisherRole != "" && p.CreatedByRole != q.PublisherRole {
		return false
	}
	if q.Keyword != "" && !strings.Contains(strings.ToLower(p.Description), strings.ToLower(q.Keyword)) {
		return false
	}
	return true
}
