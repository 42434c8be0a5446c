package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bensalemboualem/ifactory-school/internal/authz"
	"github.com/bensalemboualem/ifactory-school/internal/dto"
	"github.com/bensalemboualem/ifactory-school/internal/models"
	"github.com/bensalemboualem/ifactory-school/internal/storage"
	"github.com/bensalemboualem/ifactory-school/internal/validation"
)

func commentRequest(body string, parent *uuid.UUID) *dto.CommentRequest {
	return &dto.CommentRequest{Body: body, ParentID: parent}
}

func TestCommentCreate_RepliesAndThread(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	student := newActor(authz.RoleStudent)
	post := mustCreate(t, env, student, models.KindForum, postRequest("homework?"))

	c1, err := env.comments.Create(ctx, student, models.KindForum, post.ID, commentRequest("first", nil))
	require.NoError(t, err)
	c2, err := env.comments.Create(ctx, student, models.KindForum, post.ID, commentRequest("second", nil))
	require.NoError(t, err)
	r1, err := env.comments.Create(ctx, student, models.KindForum, post.ID, commentRequest("reply to first", &c1.ID))
	require.NoError(t, err)
	_, err = env.comments.Create(ctx, student, models.KindForum, post.ID, commentRequest("nested", &r1.ID))
	require.NoError(t, err)
	_, err = env.comments.Create(ctx, student, models.KindForum, post.ID, commentRequest("later reply", &c1.ID))
	require.NoError(t, err)

	thread, err := env.comments.Thread(ctx, student, models.KindForum, post.ID)
	require.NoError(t, err)

	require.Len(t, thread, 2)
	assert.Equal(t, c1.ID, thread[0].ID)
	assert.Equal(t, c2.ID, thread[1].ID)
	require.Len(t, thread[0].Replies, 2)
	assert.Equal(t, "reply to first", thread[0].Replies[0].Body)
	assert.Equal(t, "later reply", thread[0].Replies[1].Body)
	require.Len(t, thread[0].Replies[0].Replies, 1)
	assert.Equal(t, "nested", thread[0].Replies[0].Replies[0].Body)
	assert.Empty(t, thread[1].Replies)
}

func TestCommentCreate_ParentFromAnotherPostRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	actor := newActor(authz.RoleStaff)
	p1 := mustCreate(t, env, actor, models.KindForum, postRequest("one"))
	p2 := mustCreate(t, env, actor, models.KindForum, postRequest("two"))

	c, err := env.comments.Create(ctx, actor, models.KindForum, p1.ID, commentRequest("on one", nil))
	require.NoError(t, err)

	_, err = env.comments.Create(ctx, actor, models.KindForum, p2.ID, commentRequest("wrong thread", &c.ID))
	var verr *validation.Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "belongs to another post", verr.Fields["parent_id"])

	missing := uuid.New()
	_, err = env.comments.Create(ctx, actor, models.KindForum, p2.ID, commentRequest("ghost", &missing))
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "does not exist", verr.Fields["parent_id"])
}

func TestCommentCreate_Validation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	student := newActor(authz.RoleStudent)
	post := mustCreate(t, env, student, models.KindForum, postRequest("q"))

	cases := map[string]string{
		"blank":     "   ",
		"too long":  strings.Repeat("a", 2001),
		"profanity": "this is bullshit",
		"spam":      "heyyyyyyyyyyyy",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := env.comments.Create(ctx, student, models.KindForum, post.ID, commentRequest(body, nil))
			var verr *validation.Error
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, "body")
		})
	}

	_, err := env.comments.Create(ctx, student, models.KindForum, uuid.New(), commentRequest("hello", nil))
	assert.ErrorIs(t, err, ErrPostNotFound)

	_, err = env.comments.Create(ctx, student, models.KindMemory, post.ID, commentRequest("hello", nil))
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestCommentCreate_ModeratorsBypassFilter(t *testing.T) {
	env := newTestEnv(t)
	admin := newActor(authz.RoleSuperAdmin)
	post := mustCreate(t, env, admin, models.KindForum, postRequest("q"))

	_, err := env.comments.Create(context.Background(), admin, models.KindForum, post.ID, commentRequest("quoting: bullshit", nil))
	assert.NoError(t, err)
}

func TestCommentDelete_CascadesToDescendants(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := newActor(authz.RoleStudent)
	post := mustCreate(t, env, author, models.KindForum, postRequest("q", authz.RoleStudent, authz.RoleParent))

	root, err := env.comments.Create(ctx, author, models.KindForum, post.ID, commentRequest("root", nil))
	require.NoError(t, err)
	child, err := env.comments.Create(ctx, newActor(authz.RoleParent), models.KindForum, post.ID, commentRequest("child", &root.ID))
	require.NoError(t, err)
	_, err = env.comments.Create(ctx, author, models.KindForum, post.ID, commentRequest("grandchild", &child.ID))
	require.NoError(t, err)
	keep, err := env.comments.Create(ctx, author, models.KindForum, post.ID, commentRequest("sibling", nil))
	require.NoError(t, err)

	_, err = env.comments.Delete(ctx, newActor(authz.RoleStudent), models.KindForum, post.ID, root.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	n, err := env.comments.Delete(ctx, author, models.KindForum, post.ID, root.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	rows, err := env.store.ListComments(ctx, testSchool, post.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, keep.ID, rows[0].ID)

	_, err = env.comments.Delete(ctx, author, models.KindForum, post.ID, root.ID)
	assert.ErrorIs(t, err, ErrCommentNotFound)
}

func TestCommentDelete_ModeratorAndWrongPost(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	author := newActor(authz.RoleStudent)
	p1 := mustCreate(t, env, author, models.KindForum, postRequest("one"))
	p2 := mustCreate(t, env, author, models.KindForum, postRequest("two"))
	c, err := env.comments.Create(ctx, author, models.KindForum, p1.ID, commentRequest("hi", nil))
	require.NoError(t, err)

	_, err = env.comments.Delete(ctx, author, models.KindForum, p2.ID, c.ID)
	assert.ErrorIs(t, err, ErrCommentNotFound)

	n, err := env.comments.Delete(ctx, newActor(authz.RoleSuperAdmin), models.KindForum, p1.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestComments_HiddenFromNonTargetedRoles(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	staff := newActor(authz.RoleStaff)
	parent := newActor(authz.RoleParent)
	post := mustCreate(t, env, staff, models.KindForum, postRequest("réunion du personnel", authz.RoleStaff))
	c, err := env.comments.Create(ctx, staff, models.KindForum, post.ID, commentRequest("ordre du jour", nil))
	require.NoError(t, err)

	_, err = env.content.Get(ctx, parent, models.KindForum, post.ID)
	assert.ErrorIs(t, err, ErrPostNotFound)

	thread, err := env.comments.Thread(ctx, parent, models.KindForum, post.ID)
	assert.ErrorIs(t, err, ErrPostNotFound)
	assert.Nil(t, thread)

	_, err = env.comments.Create(ctx, parent, models.KindForum, post.ID, commentRequest("bonjour", nil))
	assert.ErrorIs(t, err, ErrPostNotFound)

	_, err = env.comments.Delete(ctx, parent, models.KindForum, post.ID, c.ID)
	assert.ErrorIs(t, err, ErrPostNotFound)

	colleague := newActor(authz.RoleStaff)
	thread, err = env.comments.Thread(ctx, colleague, models.KindForum, post.ID)
	require.NoError(t, err)
	assert.Len(t, thread, 1)

	thread, err = env.comments.Thread(ctx, newActor(authz.RoleSuperAdmin), models.KindForum, post.ID)
	require.NoError(t, err)
	assert.Len(t, thread, 1)

	rows, err := env.store.ListComments(ctx, testSchool, post.ID)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

// vanishingParentStore removes the looked-up comment's subtree right after
// GetComment returns it, as a concurrent delete would.
type vanishingParentStore struct {
	storage.Storage
}

func (v *vanishingParentStore) GetComment(ctx context.Context, schoolID string, id uuid.UUID) (*models.Comment, error) {
	c, err := v.Storage.GetComment(ctx, schoolID, id)
	if err != nil {
		return nil, err
	}
	if _, err := v.Storage.DeleteCommentTree(ctx, schoolID, c.PostID, id); err != nil {
		return nil, err
	}
	return c, nil
}

func TestCommentCreate_ReplyToConcurrentlyDeletedParent(t *testing.T) {
	env := newTestEnvWithStore(t, func(s storage.Storage) storage.Storage {
		return &vanishingParentStore{Storage: s}
	})
	ctx := context.Background()
	student := newActor(authz.RoleStudent)
	post := mustCreate(t, env, student, models.KindForum, postRequest("q"))
	root, err := env.comments.Create(ctx, student, models.KindForum, post.ID, commentRequest("root", nil))
	require.NoError(t, err)

	_, err = env.comments.Create(ctx, student, models.KindForum, post.ID, commentRequest("reply", &root.ID))
	var verr *validation.Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "does not exist", verr.Fields["parent_id"])

	rows, err := env.store.ListComments(ctx, testSchool, post.ID)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestBuildThread_OrphansAndCycles(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	post := uuid.New()
	a, b, c, d := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	gone := uuid.New()

	rows := []models.Comment{
		{ID: a, PostID: post, Body: "a", CreatedAt: base},
		{ID: b, PostID: post, ParentID: &gone, Body: "orphan", CreatedAt: base.Add(time.Minute)},
		{ID: c, PostID: post, ParentID: &d, Body: "c", CreatedAt: base.Add(2 * time.Minute)},
		{ID: d, PostID: post, ParentID: &c, Body: "d", CreatedAt: base.Add(3 * time.Minute)},
	}

	thread := BuildThread(rows)

	require.Len(t, thread, 3)
	assert.Equal(t, "a", thread[0].Body)
	assert.Equal(t, "orphan", thread[1].Body)
	assert.Equal(t, "c", thread[2].Body)
	require.Len(t, thread[2].Replies, 1)
	assert.Equal(t, "d", thread[2].Replies[0].Body)
	assert.Empty(t, thread[2].Replies[0].Replies)

	assert.Empty(t, BuildThread(nil))
}

func TestContentFilter(t *testing.T) {
	f := NewContentFilter(nil)
	assert.Equal(t, "", f.Check("Bonjour à tous"))
	assert.Equal(t, "", f.Check("class assignment"))
	assert.Equal(t, ReasonInappropriate, f.Check("quelle MERDE"))
	assert.Equal(t, ReasonSpam, f.Check("!!!!!!!!!!"))
	assert.Equal(t, "", f.Check("ok!!!"))

	custom := NewContentFilter([]string{"forbidden"})
	assert.Equal(t, ReasonInappropriate, custom.Check("a forbidden word"))
	assert.Equal(t, "", custom.Check("shit"))
}
