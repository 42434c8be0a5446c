package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bensalemboualem/ifactory-school/internal/authz"
	"github.com/bensalemboualem/ifactory-school/internal/media"
	"github.com/bensalemboualem/ifactory-school/internal/models"
	"github.com/bensalemboualem/ifactory-school/internal/storage"
	"github.com/bensalemboualem/ifactory-school/internal/validation"
	"github.com/bensalemboualem/ifactory-school/internal/visibility"
	"github.com/bensalemboualem/ifactory-school/internal/workflow"
)

func TestCreate_SelfServiceIsPendingAndPublished(t *testing.T) {
	env := newTestEnv(t)
	student := newActor(authz.RoleStudent)

	p, err := env.content.Create(context.Background(), student, models.KindMemory, postRequest("<b>Trip</b> to the museum"), nil)
	require.NoError(t, err)

	assert.Equal(t, models.ApprovalPending, p.ApprovalStatus)
	assert.True(t, p.IsPublished)
	require.NotNil(t, p.PendingBy)
	assert.Equal(t, student.ID, *p.PendingBy)
	assert.Nil(t, p.ApprovedBy)
	assert.Equal(t, student.ID, *p.PublishedBy)
	assert.Equal(t, authz.RoleStudent, p.CreatedByRole)
	assert.Equal(t, models.StatusActive, p.Status)
	assert.Equal(t, "<b>Trip</b> to the museum", p.Description)
	assert.False(t, p.RichText)
	assert.NoError(t, workflow.Validate(p))
}

func TestCreate_PrivilegedIsApprovedAndKeepsForumHTML(t *testing.T) {
	env := newTestEnv(t)
	admin := newActor(authz.RoleSuperAdmin)
	views := 12

	req := postRequest("<p>Rentrée le <b>lundi</b></p>", authz.RoleStudent, authz.RoleParent, authz.RoleStudent)
	req.ViewsCount = &views
	p, err := env.content.Create(context.Background(), admin, models.KindForum, req, nil)
	require.NoError(t, err)

	assert.Equal(t, models.ApprovalApproved, p.ApprovalStatus)
	assert.True(t, p.IsPublished)
	assert.Equal(t, admin.ID, *p.ApprovedBy)
	assert.Equal(t, "<p>Rentrée le <b>lundi</b></p>", p.Description)
	assert.True(t, p.RichText)
	assert.Equal(t, 12, p.ViewsCount)
	assert.Equal(t, []string{authz.RoleStudent, authz.RoleParent}, []string(p.TargetRoles))
}

func TestCreate_ViewsCountIgnoredForSelfService(t *testing.T) {
	env := newTestEnv(t)
	views := 500
	req := postRequest("hello")
	req.ViewsCount = &views

	p, err := env.content.Create(context.Background(), newActor(authz.RoleParent), models.KindForum, req, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, p.ViewsCount)
}

func TestCreate_ValidationErrors(t *testing.T) {
	env := newTestEnv(t)
	req := postRequest("   ", authz.RoleStudent, "janitor")
	req.Status = "archived"
	bad := &media.Upload{Name: "cv.pdf", ContentType: "application/pdf", Size: 10}

	_, err := env.content.Create(context.Background(), newActor(authz.RoleStaff), models.KindForum, req, bad)

	var verr *validation.Error
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "description")
	assert.Contains(t, verr.Fields, "target_roles[1]")
	assert.Contains(t, verr.Fields, "status")
	assert.Contains(t, verr.Fields, "media")
	assert.Equal(t, 0, env.media.Len())
}

func TestCreate_MissingTargetRoles(t *testing.T) {
	env := newTestEnv(t)
	req := postRequest("text")
	req.TargetRoles = nil

	_, err := env.content.Create(context.Background(), newActor(authz.RoleStaff), models.KindForum, req, nil)
	var verr *validation.Error
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "is required", verr.Fields["target_roles"])
}

func TestCreate_StoresMedia(t *testing.T) {
	env := newTestEnv(t)
	p, err := env.content.Create(context.Background(), newActor(authz.RoleStudent), models.KindMemory, postRequest("photo"), pngUpload())
	require.NoError(t, err)
	require.NotNil(t, p.UploadRef)
	assert.True(t, env.media.Has(*p.UploadRef))
}

func TestCreate_StoreFailureReleasesMedia(t *testing.T) {
	env := newTestEnvWithStore(t, func(s storage.Storage) storage.Storage {
		return &failingStore{Storage: s, failCreate: true}
	})

	_, err := env.content.Create(context.Background(), newActor(authz.RoleStudent), models.KindMemory, postRequest("photo"), pngUpload())
	assert.ErrorIs(t, err, ErrOperationFailed)
	assert.NotContains(t, err.Error(), errBoom.Error())
	assert.Equal(t, 0, env.media.Len())
}

func TestUpdate_OwnerOrModeratorOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := newActor(authz.RoleStudent)
	p := mustCreate(t, env, owner, models.KindForum, postRequest("first"))

	_, err := env.content.Update(ctx, newActor(authz.RoleStudent), models.KindForum, p.ID, postRequest("hijack"), nil)
	assert.ErrorIs(t, err, ErrForbidden)

	updated, err := env.content.Update(ctx, owner, models.KindForum, p.ID, postRequest("second"), nil)
	require.NoError(t, err)
	assert.Equal(t, "second", updated.Description)
	assert.Equal(t, models.ApprovalPending, updated.ApprovalStatus)

	moderated, err := env.content.Update(ctx, newActor(authz.RoleSuperAdmin), models.KindForum, p.ID, postRequest("third"), nil)
	require.NoError(t, err)
	assert.Equal(t, "third", moderated.Description)
	assert.Equal(t, models.ApprovalPending, moderated.ApprovalStatus)
}

func TestUpdate_KeepsOrReplacesMedia(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := newActor(authz.RoleStaff)

	p, err := env.content.Create(ctx, owner, models.KindMemory, postRequest("photo"), pngUpload())
	require.NoError(t, err)
	first := *p.UploadRef

	kept, err := env.content.Update(ctx, owner, models.KindMemory, p.ID, postRequest("new caption"), nil)
	require.NoError(t, err)
	require.NotNil(t, kept.UploadRef)
	assert.Equal(t, first, *kept.UploadRef)

	replaced, err := env.content.Update(ctx, owner, models.KindMemory, p.ID, postRequest("new photo"), pngUpload())
	require.NoError(t, err)
	assert.NotEqual(t, first, *replaced.UploadRef)
	assert.False(t, env.media.Has(first))
	assert.True(t, env.media.Has(*replaced.UploadRef))
	assert.Equal(t, 1, env.media.Len())
}

func TestUpdate_NotFoundReleasesNewMedia(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.content.Update(context.Background(), newActor(authz.RoleStaff), models.KindMemory, uuid.New(), postRequest("x"), pngUpload())
	assert.ErrorIs(t, err, ErrPostNotFound)
	assert.Equal(t, 0, env.media.Len())
}

func TestGet_CountsViewsForOthersOnly(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := newActor(authz.RoleStaff)
	p := mustCreate(t, env, owner, models.KindForum, postRequest("news", authz.RoleStudent))

	got, err := env.content.Get(ctx, owner, models.KindForum, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.ViewsCount)

	got, err = env.content.Get(ctx, newActor(authz.RoleStudent), models.KindForum, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.ViewsCount)

	got, err = env.content.Get(ctx, newActor(authz.RoleSuperAdmin), models.KindForum, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.ViewsCount)
}

func TestGet_HiddenFromUntargetedRoles(t *testing.T) {
	env := newTestEnv(t)
	p := mustCreate(t, env, newActor(authz.RoleStaff), models.KindForum, postRequest("staff only", authz.RoleStaff))

	_, err := env.content.Get(context.Background(), newActor(authz.RoleParent), models.KindForum, p.ID)
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestGet_KindAndSchoolScoped(t *testing.T) {
	env := newTestEnv(t)
	admin := newActor(authz.RoleSuperAdmin)
	p := mustCreate(t, env, admin, models.KindForum, postRequest("forum"))

	_, err := env.content.Get(context.Background(), admin, models.KindMemory, p.ID)
	assert.ErrorIs(t, err, ErrPostNotFound)

	other := admin
	other.SchoolID = "oran-academy"
	_, err = env.content.Get(context.Background(), other, models.KindForum, p.ID)
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestChangeStatus_EndToEnd(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	a := newActor(authz.RoleStudent)
	b := newActor(authz.RoleSuperAdmin)

	p := mustCreate(t, env, a, models.KindForum, postRequest("question"))
	assert.Equal(t, models.ApprovalPending, p.ApprovalStatus)
	assert.True(t, p.IsPublished)

	p, changed, err := env.content.ChangeStatus(ctx, b, models.KindForum, p.ID, "approved")
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, models.ApprovalApproved, p.ApprovalStatus)
	assert.True(t, p.IsPublished)
	assert.Equal(t, b.ID, *p.ApprovedBy)
	assert.Nil(t, p.PendingBy)

	p, _, err = env.content.ChangeStatus(ctx, b, models.KindForum, p.ID, "unpublished")
	require.NoError(t, err)
	assert.False(t, p.IsPublished)
	assert.Nil(t, p.PublishedBy)
	assert.Nil(t, p.PublishedAt)

	p, _, err = env.content.ChangeStatus(ctx, b, models.KindForum, p.ID, "published")
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalApproved, p.ApprovalStatus)
	assert.True(t, p.IsPublished)
	assert.Equal(t, b.ID, *p.PublishedBy)

	stored, err := env.store.GetPost(ctx, testSchool, models.KindForum, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ApprovalStatus, stored.ApprovalStatus)
	assert.Equal(t, b.ID, *stored.PublishedBy)
}

func TestChangeStatus_RepeatedTransitionIsNoOp(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := newActor(authz.RoleSuperAdmin)
	p := mustCreate(t, env, admin, models.KindMemory, postRequest("photo"))

	again, changed, err := env.content.ChangeStatus(ctx, admin, models.KindMemory, p.ID, "approve")
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, *p.ApprovedAt, *again.ApprovedAt)
}

func TestChangeStatus_Errors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := newActor(authz.RoleSuperAdmin)
	p := mustCreate(t, env, newActor(authz.RoleStudent), models.KindForum, postRequest("q"))

	_, _, err := env.content.ChangeStatus(ctx, newActor(authz.RoleStaff), models.KindForum, p.ID, "approved")
	assert.ErrorIs(t, err, ErrForbidden)

	_, _, err = env.content.ChangeStatus(ctx, admin, models.KindForum, p.ID, "archived")
	var verr *validation.Error
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "status")

	_, _, err = env.content.ChangeStatus(ctx, admin, models.KindForum, uuid.New(), "approved")
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestChangeStatus_StoreFailureIsGeneric(t *testing.T) {
	env := newTestEnvWithStore(t, func(s storage.Storage) storage.Storage {
		return &failingStore{Storage: s, failModify: true}
	})
	admin := newActor(authz.RoleSuperAdmin)
	p := mustCreate(t, env, admin, models.KindForum, postRequest("q"))

	_, _, err := env.content.ChangeStatus(context.Background(), admin, models.KindForum, p.ID, "rejected")
	assert.ErrorIs(t, err, ErrOperationFailed)

	stored, err := env.store.GetPost(context.Background(), testSchool, models.KindForum, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalApproved, stored.ApprovalStatus)
}

func TestList_ApprovalFilter(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	student := newActor(authz.RoleStudent)
	admin := newActor(authz.RoleSuperAdmin)

	for i := 0; i < 3; i++ {
		mustCreate(t, env, student, models.KindForum, postRequest("pending"))
	}
	for i := 0; i < 2; i++ {
		mustCreate(t, env, admin, models.KindForum, postRequest("approved"))
	}
	r := mustCreate(t, env, admin, models.KindForum, postRequest("rejected"))
	_, _, err := env.content.ChangeStatus(ctx, admin, models.KindForum, r.ID, "rejected")
	require.NoError(t, err)

	posts, page, err := env.content.List(ctx, admin, models.KindForum, visibility.Params{ApprovalStatus: "pending"})
	require.NoError(t, err)
	assert.Len(t, posts, 3)
	for _, p := range posts {
		assert.Equal(t, models.ApprovalPending, p.ApprovalStatus)
	}
	assert.Equal(t, int64(3), page.Total)
	assert.Equal(t, 1, page.TotalPages)
	assert.Equal(t, visibility.PageSize, page.Limit)
}

func TestList_ViewsByRole(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	student := newActor(authz.RoleStudent)
	mustCreate(t, env, student, models.KindMemory, postRequest("mine", authz.RoleParent))
	mustCreate(t, env, newActor(authz.RoleStaff), models.KindMemory, postRequest("for students", authz.RoleStudent))

	_, _, err := env.content.List(ctx, student, models.KindMemory, visibility.Params{View: "all"})
	assert.ErrorIs(t, err, ErrForbidden)

	mine, _, err := env.content.List(ctx, student, models.KindMemory, visibility.Params{View: "mine"})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "mine", mine[0].Description)

	feed, _, err := env.content.List(ctx, student, models.KindMemory, visibility.Params{})
	require.NoError(t, err)
	require.Len(t, feed, 1)
	assert.Equal(t, "for students", feed[0].Description)

	_, _, err = env.content.List(ctx, student, models.KindMemory, visibility.Params{View: "mine", PublishedStatus: "maybe"})
	var verr *validation.Error
	assert.ErrorAs(t, err, &verr)
}

func TestList_KeywordMatchesSubmittedText(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	student := newActor(authz.RoleStudent)
	mustCreate(t, env, student, models.KindForum, postRequest("Sortie à l'école & au musée"))

	for _, keyword := range []string{"l'école", "& au", "MUSÉE"} {
		posts, _, err := env.content.List(ctx, student, models.KindForum, visibility.Params{View: "mine", Keyword: keyword})
		require.NoError(t, err)
		assert.Len(t, posts, 1, keyword)
	}
}

func TestUpdate_DescriptionRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	student := newActor(authz.RoleStudent)
	const text = "Sortie à l'école & <au> \"musée\""
	p := mustCreate(t, env, student, models.KindMemory, postRequest(text))

	for i := 0; i < 2; i++ {
		got, err := env.content.Get(ctx, student, models.KindMemory, p.ID)
		require.NoError(t, err)
		updated, err := env.content.Update(ctx, student, models.KindMemory, p.ID, postRequest(got.Description), nil)
		require.NoError(t, err)
		assert.Equal(t, text, updated.Description)
	}

	stored, err := env.store.GetPost(ctx, testSchool, models.KindMemory, p.ID)
	require.NoError(t, err)
	assert.Equal(t, text, stored.Description)
}

func TestRichText_OnlyModeratorForumPosts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := newActor(authz.RoleSuperAdmin)
	p := mustCreate(t, env, admin, models.KindForum, postRequest("<p>annonce</p>"))
	require.True(t, p.RichText)

	updated, err := env.content.Update(ctx, admin, models.KindForum, p.ID, postRequest("<p>annonce modifiée</p>"), nil)
	require.NoError(t, err)
	assert.True(t, updated.RichText)

	memo := mustCreate(t, env, admin, models.KindMemory, postRequest("<p>souvenir</p>"))
	assert.False(t, memo.RichText)

	student := mustCreate(t, env, newActor(authz.RoleStudent), models.KindForum, postRequest("<p>question</p>"))
	assert.False(t, student.RichText)
	assert.Equal(t, "<p>question</p>", student.Description)
}

func TestMediaLink_VisibilityAndExpiry(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	staff := newActor(authz.RoleStaff)
	p, err := env.content.Create(ctx, staff, models.KindMemory, postRequest("photo de classe", authz.RoleStudent), pngUpload())
	require.NoError(t, err)

	link, err := env.content.MediaLink(ctx, newActor(authz.RoleStudent), models.KindMemory, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "memory://"+*p.UploadRef+"?ttl=600", link)

	_, err = env.content.MediaLink(ctx, newActor(authz.RoleParent), models.KindMemory, p.ID)
	assert.ErrorIs(t, err, ErrPostNotFound)

	stored, err := env.store.GetPost(ctx, testSchool, models.KindMemory, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.ViewsCount)

	bare := mustCreate(t, env, staff, models.KindMemory, postRequest("sans photo"))
	_, err = env.content.MediaLink(ctx, staff, models.KindMemory, bare.ID)
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestList_StoreFailureIsGeneric(t *testing.T) {
	env := newTestEnvWithStore(t, func(s storage.Storage) storage.Storage {
		return &failingStore{Storage: s, failList: true}
	})
	_, _, err := env.content.List(context.Background(), newActor(authz.RoleSuperAdmin), models.KindForum, visibility.Params{})
	assert.ErrorIs(t, err, ErrOperationFailed)
}

func TestDelete_CascadesAndReleasesMedia(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	owner := newActor(authz.RoleStudent)

	p, err := env.content.Create(ctx, owner, models.KindMemory, postRequest("photo"), pngUpload())
	require.NoError(t, err)
	_, err = env.comments.Create(ctx, owner, models.KindMemory, p.ID, commentRequest("nice", nil))
	require.NoError(t, err)

	assert.ErrorIs(t, env.content.Delete(ctx, newActor(authz.RoleStudent), models.KindMemory, p.ID), ErrForbidden)

	require.NoError(t, env.content.Delete(ctx, owner, models.KindMemory, p.ID))
	assert.Equal(t, 0, env.media.Len())

	rows, err := env.store.ListComments(ctx, testSchool, p.ID)
	require.NoError(t, err)
	assert.Empty(t, rows)

	assert.ErrorIs(t, env.content.Delete(ctx, owner, models.KindMemory, p.ID), ErrPostNotFound)
}
