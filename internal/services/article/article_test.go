package article_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kidsweekly/content-api/internal/models"
	"github.com/kidsweekly/content-api/internal/services/article"
	"github.com/kidsweekly/content-api/internal/storage/repository"
)

type ArticleRepoMock struct {
	mock.Mock
}

func (m *ArticleRepoMock) CreateArticle(ctx context.Context, a models.Article) (*models.Article, error) {
	args := m.Called(ctx, a)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Article), args.Error(1)
}

func (m *ArticleRepoMock) GetArticleByID(ctx context.Context, id int) (*models.Article, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Article), args.Error(1)
}

func (m *ArticleRepoMock) GetArticleBySlug(ctx context.Context, slug string) (*models.Article, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Article), args.Error(1)
}

func (m *ArticleRepoMock) UpdateArticle(ctx context.Context, a models.Article) (*models.Article, error) {
	args := m.Called(ctx, a)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Article), args.Error(1)
}

func (m *ArticleRepoMock) DeleteArticle(ctx context.Context, id int) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *ArticleRepoMock) ListArticles(ctx context.Context, f models.ArticleFilter) ([]*models.Article, error) {
	args := m.Called(ctx, f)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Article), args.Error(1)
}

func (m *ArticleRepoMock) SlugExists(ctx context.Context, slug string, excludeID int) (bool, error) {
	args := m.Called(ctx, slug, excludeID)
	return args.Bool(0), args.Error(1)
}

type CacheMock struct {
	mock.Mock
}

func (m *CacheMock) Get(ctx context.Context, key string, result any) (bool, error) {
	args := m.Called(ctx, key, result)
	return args.Bool(0), args.Error(1)
}

func (m *CacheMock) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	args := m.Called(ctx, key, value, expiration)
	return args.Error(0)
}

func (m *CacheMock) Invalidate(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

type EventsMock struct {
	mock.Mock
}

func (m *EventsMock) Publish(routingKey string, message any) error {
	args := m.Called(routingKey, message)
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

var (
	editorActor = models.Identity{ID: "editor-uid", Username: "taras", Role: models.RoleEditor}
	adminActor  = models.Identity{ID: "admin-uid", Username: "olena", Role: models.RoleAdmin}
)

func TestArticleService_Create_EditorForcedPending(t *testing.T) {
	repo := new(ArticleRepoMock)
	cacheMock := new(CacheMock)
	svc := article.NewArticleService(repo, cacheMock, nil, newNoopLogger())

	stored := &models.Article{
		ID:       1,
		Slug:     "pershyi-match",
		Title:    "Перший матч!!!",
		Status:   models.StatusPending,
		AuthorID: "editor-uid",
	}

	repo.On("SlugExists", mock.Anything, "pershyi-match", 0).Return(false, nil).Once()
	repo.On("CreateArticle", mock.Anything, mock.MatchedBy(func(a models.Article) bool {
		return a.Slug == "pershyi-match" &&
			a.Status == models.StatusPending &&
			a.AuthorID == "editor-uid" &&
			a.AuthorName == "taras"
	})).Return(stored, nil).Once()
	cacheMock.On("Set", mock.Anything, "article:slug:pershyi-match", stored, mock.Anything).Return(nil).Once()

	// An editor asking for approved still gets pending.
	res, err := svc.Create(context.Background(), editorActor, models.CreateArticleRequest{
		Title:    "Перший матч!!!",
		Content:  "текст",
		Category: "спорт",
		Status:   "approved",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, res.Status)

	repo.AssertExpectations(t)
	cacheMock.AssertExpectations(t)
}

func TestArticleService_Create_AdminApprovedPublishesEvent(t *testing.T) {
	repo := new(ArticleRepoMock)
	cacheMock := new(CacheMock)
	events := new(EventsMock)
	svc := article.NewArticleService(repo, cacheMock, events, newNoopLogger())

	stored := &models.Article{
		ID:         2,
		Slug:       "novyna",
		Title:      "Новина",
		Status:     models.StatusApproved,
		AuthorID:   "admin-uid",
		AuthorName: "olena",
	}

	repo.On("SlugExists", mock.Anything, "novyna", 0).Return(false, nil).Once()
	repo.On("CreateArticle", mock.Anything, mock.MatchedBy(func(a models.Article) bool {
		return a.Status == models.StatusApproved
	})).Return(stored, nil).Once()
	events.On("Publish", "article.approved", mock.Anything).Return(nil).Once()
	cacheMock.On("Set", mock.Anything, "article:slug:novyna", stored, mock.Anything).Return(nil).Once()

	res, err := svc.Create(context.Background(), adminActor, models.CreateArticleRequest{
		Title:    "Новина",
		Content:  "текст",
		Category: "жарти",
		Status:   "approved",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, res.Status)

	repo.AssertExpectations(t)
	events.AssertExpectations(t)
}

func TestArticleService_Create_UnknownCategory(t *testing.T) {
	repo := new(ArticleRepoMock)
	svc := article.NewArticleService(repo, new(CacheMock), nil, newNoopLogger())

	_, err := svc.Create(context.Background(), editorActor, models.CreateArticleRequest{
		Title:    "Стаття",
		Content:  "текст",
		Category: "sport",
	})
	assert.ErrorIs(t, err, article.ErrInvalidCategory)
	repo.AssertNotCalled(t, "CreateArticle")
}

func TestArticleService_Create_SlugSuffixProbe(t *testing.T) {
	repo := new(ArticleRepoMock)
	cacheMock := new(CacheMock)
	svc := article.NewArticleService(repo, cacheMock, nil, newNoopLogger())

	stored := &models.Article{ID: 3, Slug: "novyna-2", Status: models.StatusPending}

	repo.On("SlugExists", mock.Anything, "novyna", 0).Return(true, nil).Once()
	repo.On("SlugExists", mock.Anything, "novyna-1", 0).Return(true, nil).Once()
	repo.On("SlugExists", mock.Anything, "novyna-2", 0).Return(false, nil).Once()
	repo.On("CreateArticle", mock.Anything, mock.MatchedBy(func(a models.Article) bool {
		return a.Slug == "novyna-2"
	})).Return(stored, nil).Once()
	cacheMock.On("Set", mock.Anything, "article:slug:novyna-2", stored, mock.Anything).Return(nil).Once()

	res, err := svc.Create(context.Background(), editorActor, models.CreateArticleRequest{
		Title:    "Новина",
		Content:  "текст",
		Category: "спорт",
	})
	require.NoError(t, err)
	assert.Equal(t, "novyna-2", res.Slug)

	repo.AssertExpectations(t)
}

func TestArticleService_Create_RetriesLostSlugRace(t *testing.T) {
	repo := new(ArticleRepoMock)
	cacheMock := new(CacheMock)
	svc := article.NewArticleService(repo, cacheMock, nil, newNoopLogger())

	stored := &models.Article{ID: 4, Slug: "novyna-1", Status: models.StatusPending}

	// First pass: probe says free but the insert loses the race.
	repo.On("SlugExists", mock.Anything, "novyna", 0).Return(false, nil).Once()
	repo.On("CreateArticle", mock.Anything, mock.MatchedBy(func(a models.Article) bool {
		return a.Slug == "novyna"
	})).Return(nil, repository.ErrSlugTaken).Once()
	// Second pass: the winner now occupies the base slug.
	repo.On("SlugExists", mock.Anything, "novyna", 0).Return(true, nil).Once()
	repo.On("SlugExists", mock.Anything, "novyna-1", 0).Return(false, nil).Once()
	repo.On("CreateArticle", mock.Anything, mock.MatchedBy(func(a models.Article) bool {
		return a.Slug == "novyna-1"
	})).Return(stored, nil).Once()
	cacheMock.On("Set", mock.Anything, "article:slug:novyna-1", stored, mock.Anything).Return(nil).Once()

	res, err := svc.Create(context.Background(), editorActor, models.CreateArticleRequest{
		Title:    "Новина",
		Content:  "текст",
		Category: "спорт",
	})
	require.NoError(t, err)
	assert.Equal(t, "novyna-1", res.Slug)

	repo.AssertExpectations(t)
}

func TestArticleService_Get_Visibility(t *testing.T) {
	pendingByOther := &models.Article{ID: 5, AuthorID: "someone-else", Status: models.StatusPending}
	approved := &models.Article{ID: 6, AuthorID: "someone-else", Status: models.StatusApproved}
	own := &models.Article{ID: 7, AuthorID: "editor-uid", Status: models.StatusPending}

	tests := []struct {
		name      string
		actor     *models.Identity
		stored    *models.Article
		wantFound bool
	}{
		{
			name:      "admin sees pending article of others",
			actor:     &adminActor,
			stored:    pendingByOther,
			wantFound: true,
		},
		{
			name:      "editor sees own pending article",
			actor:     &editorActor,
			stored:    own,
			wantFound: true,
		},
		{
			name:      "editor cannot see pending article of others",
			actor:     &editorActor,
			stored:    pendingByOther,
			wantFound: false,
		},
		{
			name:      "anonymous sees approved article",
			actor:     nil,
			stored:    approved,
			wantFound: true,
		},
		{
			name:      "anonymous cannot see pending article",
			actor:     nil,
			stored:    pendingByOther,
			wantFound: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(ArticleRepoMock)
			svc := article.NewArticleService(repo, new(CacheMock), nil, newNoopLogger())

			repo.On("GetArticleByID", mock.Anything, tt.stored.ID).Return(tt.stored, nil).Once()

			res, err := svc.Get(context.Background(), tt.actor, tt.stored.ID)
			if tt.wantFound {
				require.NoError(t, err)
				assert.Equal(t, tt.stored.ID, res.ID)
			} else {
				assert.ErrorIs(t, err, repository.ErrNotFound)
			}
		})
	}
}

func TestArticleService_GetBySlug_CacheMiss(t *testing.T) {
	repo := new(ArticleRepoMock)
	cacheMock := new(CacheMock)
	svc := article.NewArticleService(repo, cacheMock, nil, newNoopLogger())

	stored := &models.Article{ID: 8, Slug: "novyna", Status: models.StatusApproved}

	cacheMock.On("Get", mock.Anything, "article:slug:novyna", mock.Anything).Return(false, nil).Once()
	repo.On("GetArticleBySlug", mock.Anything, "novyna").Return(stored, nil).Once()
	cacheMock.On("Set", mock.Anything, "article:slug:novyna", stored, mock.Anything).Return(nil).Once()

	res, err := svc.GetBySlug(context.Background(), nil, "novyna")
	require.NoError(t, err)
	assert.Equal(t, 8, res.ID)

	repo.AssertExpectations(t)
	cacheMock.AssertExpectations(t)
}

func TestArticleService_GetBySlug_PendingHiddenFromAnonymous(t *testing.T) {
	repo := new(ArticleRepoMock)
	cacheMock := new(CacheMock)
	svc := article.NewArticleService(repo, cacheMock, nil, newNoopLogger())

	stored := &models.Article{ID: 9, Slug: "chernetka", AuthorID: "editor-uid", Status: models.StatusPending}

	cacheMock.On("Get", mock.Anything, "article:slug:chernetka", mock.Anything).Return(false, nil).Twice()
	repo.On("GetArticleBySlug", mock.Anything, "chernetka").Return(stored, nil).Twice()
	cacheMock.On("Set", mock.Anything, "article:slug:chernetka", stored, mock.Anything).Return(nil).Twice()

	_, err := svc.GetBySlug(context.Background(), nil, "chernetka")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	// The author still sees it.
	res, err := svc.GetBySlug(context.Background(), &editorActor, "chernetka")
	require.NoError(t, err)
	assert.Equal(t, 9, res.ID)
}

func TestArticleService_List_ScopesFilter(t *testing.T) {
	pending := models.StatusPending
	approved := models.StatusApproved

	tests := []struct {
		name       string
		actor      *models.Identity
		status     *models.Status
		wantFilter models.ArticleFilter
	}{
		{
			name:   "anonymous is forced to approved",
			actor:  nil,
			status: &pending,
			wantFilter: models.ArticleFilter{
				Status: &approved,
				Limit:  20,
			},
		},
		{
			name:   "editor is scoped to own articles",
			actor:  &editorActor,
			status: &pending,
			wantFilter: models.ArticleFilter{
				AuthorID: "editor-uid",
				Status:   &pending,
				Limit:    20,
			},
		},
		{
			name:  "admin sees everything",
			actor: &adminActor,
			wantFilter: models.ArticleFilter{
				Limit: 20,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(ArticleRepoMock)
			svc := article.NewArticleService(repo, new(CacheMock), nil, newNoopLogger())

			repo.On("ListArticles", mock.Anything, mock.MatchedBy(func(f models.ArticleFilter) bool {
				if f.AuthorID != tt.wantFilter.AuthorID || f.Limit != tt.wantFilter.Limit {
					return false
				}
				if (f.Status == nil) != (tt.wantFilter.Status == nil) {
					return false
				}
				return f.Status == nil || *f.Status == *tt.wantFilter.Status
			})).Return([]*models.Article{}, nil).Once()

			_, err := svc.List(context.Background(), tt.actor, tt.status, 20, 0)
			require.NoError(t, err)

			repo.AssertExpectations(t)
		})
	}
}

func TestArticleService_Update_EmptyRequest(t *testing.T) {
	svc := article.NewArticleService(new(ArticleRepoMock), new(CacheMock), nil, newNoopLogger())

	_, err := svc.Update(context.Background(), editorActor, 1, models.UpdateArticleRequest{})
	assert.ErrorIs(t, err, article.ErrNoFields)
}

func TestArticleService_Update_NotFoundBeforeForbidden(t *testing.T) {
	repo := new(ArticleRepoMock)
	svc := article.NewArticleService(repo, new(CacheMock), nil, newNoopLogger())

	repo.On("GetArticleByID", mock.Anything, 404).Return(nil, repository.ErrNotFound).Once()

	title := "Нова назва"
	_, err := svc.Update(context.Background(), editorActor, 404, models.UpdateArticleRequest{Title: &title})
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.NotErrorIs(t, err, article.ErrForbidden)
}

func TestArticleService_Update_ForbiddenForNonOwner(t *testing.T) {
	repo := new(ArticleRepoMock)
	svc := article.NewArticleService(repo, new(CacheMock), nil, newNoopLogger())

	existing := &models.Article{ID: 10, AuthorID: "someone-else", Status: models.StatusPending}
	repo.On("GetArticleByID", mock.Anything, 10).Return(existing, nil).Once()

	title := "Нова назва"
	_, err := svc.Update(context.Background(), editorActor, 10, models.UpdateArticleRequest{Title: &title})
	assert.ErrorIs(t, err, article.ErrForbidden)
	repo.AssertNotCalled(t, "UpdateArticle")
}

func TestArticleService_Update_TitleChangeReallocatesSlug(t *testing.T) {
	repo := new(ArticleRepoMock)
	cacheMock := new(CacheMock)
	svc := article.NewArticleService(repo, cacheMock, nil, newNoopLogger())

	existing := &models.Article{
		ID:       11,
		Slug:     "stara-nazva",
		Title:    "Стара назва",
		AuthorID: "editor-uid",
		Status:   models.StatusPending,
	}
	updated := &models.Article{
		ID:       11,
		Slug:     "nova-nazva",
		Title:    "Нова назва",
		AuthorID: "editor-uid",
		Status:   models.StatusPending,
	}

	repo.On("GetArticleByID", mock.Anything, 11).Return(existing, nil).Once()
	// The article's own row is excluded from the probe.
	repo.On("SlugExists", mock.Anything, "nova-nazva", 11).Return(false, nil).Once()
	repo.On("UpdateArticle", mock.Anything, mock.MatchedBy(func(a models.Article) bool {
		return a.ID == 11 && a.Slug == "nova-nazva" && a.Title == "Нова назва"
	})).Return(updated, nil).Once()
	cacheMock.On("Invalidate", mock.Anything, "article:slug:stara-nazva").Return(nil).Once()
	cacheMock.On("Invalidate", mock.Anything, "article:slug:nova-nazva").Return(nil).Once()

	title := "Нова назва"
	res, err := svc.Update(context.Background(), editorActor, 11, models.UpdateArticleRequest{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "nova-nazva", res.Slug)

	repo.AssertExpectations(t)
	cacheMock.AssertExpectations(t)
}

func TestArticleService_Update_EditorCannotApprove(t *testing.T) {
	repo := new(ArticleRepoMock)
	cacheMock := new(CacheMock)
	events := new(EventsMock)
	svc := article.NewArticleService(repo, cacheMock, events, newNoopLogger())

	existing := &models.Article{ID: 12, Slug: "novyna", AuthorID: "editor-uid", Status: models.StatusPending}

	repo.On("GetArticleByID", mock.Anything, 12).Return(existing, nil).Once()
	// Status must stay pending, the field is silently dropped.
	repo.On("UpdateArticle", mock.Anything, mock.MatchedBy(func(a models.Article) bool {
		return a.Status == models.StatusPending
	})).Return(existing, nil).Once()
	cacheMock.On("Invalidate", mock.Anything, "article:slug:novyna").Return(nil).Once()

	status := "approved"
	content := "оновлений текст"
	res, err := svc.Update(context.Background(), editorActor, 12, models.UpdateArticleRequest{
		Content: &content,
		Status:  &status,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, res.Status)
	events.AssertNotCalled(t, "Publish")

	repo.AssertExpectations(t)
}

func TestArticleService_Update_AdminApprovalPublishesEvent(t *testing.T) {
	repo := new(ArticleRepoMock)
	cacheMock := new(CacheMock)
	events := new(EventsMock)
	svc := article.NewArticleService(repo, cacheMock, events, newNoopLogger())

	existing := &models.Article{ID: 13, Slug: "novyna", AuthorID: "editor-uid", Status: models.StatusPending}
	approved := &models.Article{ID: 13, Slug: "novyna", AuthorID: "editor-uid", Status: models.StatusApproved}

	repo.On("GetArticleByID", mock.Anything, 13).Return(existing, nil).Once()
	repo.On("UpdateArticle", mock.Anything, mock.MatchedBy(func(a models.Article) bool {
		return a.Status == models.StatusApproved
	})).Return(approved, nil).Once()
	events.On("Publish", "article.approved", mock.Anything).Return(nil).Once()
	cacheMock.On("Invalidate", mock.Anything, "article:slug:novyna").Return(nil).Once()

	status := "approved"
	res, err := svc.Update(context.Background(), adminActor, 13, models.UpdateArticleRequest{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, res.Status)

	repo.AssertExpectations(t)
	events.AssertExpectations(t)
}

func TestArticleService_Delete(t *testing.T) {
	repo := new(ArticleRepoMock)
	cacheMock := new(CacheMock)
	svc := article.NewArticleService(repo, cacheMock, nil, newNoopLogger())

	existing := &models.Article{ID: 14, Slug: "novyna", AuthorID: "editor-uid", Status: models.StatusPending}

	repo.On("GetArticleByID", mock.Anything, 14).Return(existing, nil).Once()
	repo.On("DeleteArticle", mock.Anything, 14).Return(int64(1), nil).Once()
	cacheMock.On("Invalidate", mock.Anything, "article:slug:novyna").Return(nil).Once()

	err := svc.Delete(context.Background(), editorActor, 14)
	require.NoError(t, err)

	repo.AssertExpectations(t)
	cacheMock.AssertExpectations(t)
}

func TestArticleService_Delete_Denied(t *testing.T) {
	repo := new(ArticleRepoMock)
	svc := article.NewArticleService(repo, new(CacheMock), nil, newNoopLogger())

	existing := &models.Article{ID: 15, AuthorID: "someone-else", Status: models.StatusApproved}

	repo.On("GetArticleByID", mock.Anything, 15).Return(existing, nil).Once()

	err := svc.Delete(context.Background(), editorActor, 15)
	assert.ErrorIs(t, err, article.ErrForbidden)
	repo.AssertNotCalled(t, "DeleteArticle")

	repo.On("GetArticleByID", mock.Anything, 404).Return(nil, repository.ErrNotFound).Once()
	err = svc.Delete(context.Background(), editorActor, 404)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
