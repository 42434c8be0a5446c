package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/bensalemboualem/ifactory-school/internal/authz"
	"github.com/bensalemboualem/ifactory-school/internal/dto"
	"github.com/bensalemboualem/ifactory-school/internal/media"
	"github.com/bensalemboualem/ifactory-school/internal/models"
	"github.com/bensalemboualem/ifactory-school/internal/storage"
	"github.com/bensalemboualem/ifactory-school/internal/storage/inmemory"
	"github.com/bensalemboualem/ifactory-school/internal/visibility"
)

const testSchool = "lycee-alger"

var errBoom = errors.New("connection reset by peer")

type testEnv struct {
	store    *inmemory.Store
	media    *media.MemoryStore
	content  *ContentService
	comments *CommentService
}

// tick returns a clock that advances one second per call.
func tick() func() time.Time {
	var mu sync.Mutex
	t := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newTestEnvWithStore(t, nil)
}

// newTestEnvWithStore wraps the in-memory store when wrap is non-nil.
func newTestEnvWithStore(t *testing.T, wrap func(storage.Storage) storage.Storage) *testEnv {
	t.Helper()
	mem := inmemory.New()
	var st storage.Storage = mem
	if wrap != nil {
		st = wrap(mem)
	}
	mediaStore := media.NewMemoryStore()
	checker := authz.StaticChecker{authz.RoleSuperAdmin}

	content := NewContentService(st, mediaStore, checker, 1<<20, 10*time.Minute)
	comments := NewCommentService(st, checker, NewContentFilter(nil))
	clock := tick()
	content.now = clock
	comments.now = clock

	return &testEnv{store: mem, media: mediaStore, content: content, comments: comments}
}

func newActor(role string) authz.Actor {
	return authz.Actor{ID: uuid.New(), SchoolID: testSchool, Role: role}
}

func postRequest(description string, roles ...string) *dto.PostRequest {
	if len(roles) == 0 {
		roles = []string{authz.RoleStudent}
	}
	return &dto.PostRequest{Title: "Title", Description: description, TargetRoles: roles}
}

func pngUpload() *media.Upload {
	return &media.Upload{Name: "photo.png", ContentType: "image/png", Size: 3, Reader: strings.NewReader("png")}
}

func mustCreate(t *testing.T, env *testEnv, actor authz.Actor, kind models.ContentKind, req *dto.PostRequest) *models.ContentPost {
	t.Helper()
	p, err := env.content.Create(context.Background(), actor, kind, req, nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return p
}

// failingStore fails the selected operations with errBoom.
type failingStore struct {
	storage.Storage
	failCreate bool
	failList   bool
	failModify bool
}

func (f *failingStore) CreatePost(ctx context.Context, p *models.ContentPost) error {
	if f.failCreate {
		return errBoom
	}
	return f.Storage.CreatePost(ctx, p)
}

func (f *failingStore) ListPosts(ctx context.Context, q visibility.Query) ([]models.ContentPost, int64, error) {
	if f.failList {
		return nil, 0, errBoom
	}
	return f.Storage.ListPosts(ctx, q)
}

func (f *failingStore) ModifyPost(ctx context.Context, schoolID string, kind models.ContentKind, id uuid.UUID, fn storage.Mutator) (*models.ContentPost, error) {
	if f.failModify {
		return nil, errBoom
	}
	return f.Storage.ModifyPost(ctx, schoolID, kind, id, fn)
}
