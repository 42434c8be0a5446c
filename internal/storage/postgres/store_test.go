package postgres

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/bensalemboualem/ifactory-school/internal/authz"
	"github.com/bensalemboualem/ifactory-school/internal/models"
	"github.com/bensalemboualem/ifactory-school/internal/visibility"
)

// dryRun opens a GORM session that renders SQL without a live server.
func dryRun(t *testing.T) *gorm.DB {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  "host=localhost user=test dbname=test sslmode=disable",
		PreferSimpleProtocol: true,
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true})
	require.NoError(t, err)
	return db
}

func listSQL(t *testing.T, q visibility.Query) string {
	scope, err := applyQuery(q)
	require.NoError(t, err)
	var posts []models.ContentPost
	stmt := dryRun(t).Scopes(scope).Order("created_at DESC").Limit(q.PageSize).Find(&posts).Statement
	return stmt.SQL.String()
}

func TestApplyQuery_FeedAndFilters(t *testing.T) {
	actor := authz.Actor{ID: uuid.New(), SchoolID: "school-1", Role: authz.RoleParent}
	q, err := visibility.Build(actor, models.KindMemory, visibility.Params{
		View:            "feed",
		Status:          "active",
		PublishedStatus: "published",
		ApprovalStatus:  "approved",
		Keyword:         "50%_off",
	}, false)
	require.NoError(t, err)

	sql := listSQL(t, q)
	assert.Contains(t, sql, "school_id = $1")
	assert.Contains(t, sql, "kind = $2")
	assert.Contains(t, sql, "target_roles @> $3::jsonb")
	assert.Contains(t, sql, "status = $4")
	assert.Contains(t, sql, "is_published = $5")
	assert.Contains(t, sql, "approval_status = $6")
	assert.Contains(t, sql, "description ILIKE $7")
}

func TestApplyQuery_OmitsAbsentFilters(t *testing.T) {
	actor := authz.Actor{ID: uuid.New(), SchoolID: "school-1", Role: authz.RoleSuperAdmin}
	q, err := visibility.Build(actor, models.KindForum, visibility.Params{}, true)
	require.NoError(t, err)

	sql := listSQL(t, q)
	assert.NotContains(t, sql, "target_roles")
	assert.NotContains(t, sql, "ILIKE")
	assert.NotContains(t, sql, "approval_status")
	assert.NotContains(t, sql, "created_by")
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\%\_off\\`, escapeLike(`50%_off\`))
}
