// Package article implements the article workflow: role- and owner-gated
// reads and mutations, the pending/approved moderation states, and allocation
// of unique slugs derived from titles.
package article

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kidsweekly/content-api/internal/lib/sl"
	"github.com/kidsweekly/content-api/internal/lib/slug"
	"github.com/kidsweekly/content-api/internal/metrics"
	"github.com/kidsweekly/content-api/internal/models"
	"github.com/kidsweekly/content-api/internal/storage/repository"
)

var (
	// ErrForbidden is returned when an authenticated actor is neither the
	// author of the target article nor an admin.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidCategory rejects category values outside the closed set.
	ErrInvalidCategory = errors.New("unknown category")
	// ErrNoFields rejects an update request that carries nothing to change.
	ErrNoFields = errors.New("no fields to update")
)

const (
	// maxSlugProbes bounds the suffix search for a free slug candidate.
	maxSlugProbes = 100
	// maxWriteRetries bounds re-allocation after losing a slug race at the
	// store's unique constraint.
	maxWriteRetries = 3

	cacheTTL = time.Hour

	routingKeyApproved = "article.approved"
)

// ArticleRepository is the storage contract for articles.
type ArticleRepository interface {
	CreateArticle(ctx context.Context, a models.Article) (*models.Article, error)
	GetArticleByID(ctx context.Context, id int) (*models.Article, error)
	GetArticleBySlug(ctx context.Context, slug string) (*models.Article, error)
	UpdateArticle(ctx context.Context, a models.Article) (*models.Article, error)
	DeleteArticle(ctx context.Context, id int) (int64, error)
	ListArticles(ctx context.Context, f models.ArticleFilter) ([]*models.Article, error)
	SlugExists(ctx context.Context, slug string, excludeID int) (bool, error)
}

// Cache describes the read-through cache for slug lookups.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// EventPublisher emits workflow events to the broker.
type EventPublisher interface {
	Publish(routingKey string, message any) error
}

// approvedEvent is the message published when an article becomes approved.
type approvedEvent struct {
	ID         int    `json:"id"`
	Slug       string `json:"slug"`
	Title      string `json:"title"`
	AuthorName string `json:"author_name"`
}

// ArticleService applies the access policy on top of the repository. The
// events publisher may be nil; publishing is best-effort either way.
type ArticleService struct {
	repo   ArticleRepository
	cache  Cache
	events EventPublisher
	log    *slog.Logger
}

// NewArticleService creates an ArticleService.
func NewArticleService(repo ArticleRepository, cache Cache, events EventPublisher, log *slog.Logger) *ArticleService {
	return &ArticleService{
		repo:   repo,
		cache:  cache,
		events: events,
		log:    log,
	}
}

func cacheKey(slugVal string) string {
	return fmt.Sprintf("article:slug:%s", slugVal)
}

// allocateSlug walks base, base-1, base-2, ... until a candidate unused by
// any article other than excludeID is found. The probe is bounded; exhaustion
// surfaces as a slug conflict.
func (s *ArticleService) allocateSlug(ctx context.Context, title string, excludeID int) (string, error) {
	base := slug.Make(title)
	if base == "" {
		base = "article"
	}
	for i := 0; i < maxSlugProbes; i++ {
		candidate := slug.WithSuffix(base, i)
		taken, err := s.repo.SlugExists(ctx, candidate, excludeID)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("allocate slug for %q: %w", base, repository.ErrSlugTaken)
}

func (s *ArticleService) publishApproved(a *models.Article) {
	if s.events == nil {
		return
	}
	ev := approvedEvent{ID: a.ID, Slug: a.Slug, Title: a.Title, AuthorName: a.AuthorName}
	if err := s.events.Publish(routingKeyApproved, ev); err != nil {
		s.log.Warn("failed to publish approved event", slog.Int("id", a.ID), sl.Err(err))
	}
}

// Create stores a new article for the acting identity. The requested status
// is honored only for admins; everyone else gets pending. Slug allocation is
// retried when a concurrent writer wins the unique constraint race.
func (s *ArticleService) Create(ctx context.Context, actor models.Identity, req models.CreateArticleRequest) (*models.Article, error) {
	const op = "services.article.Create"

	category, err := models.ParseCategory(req.Category)
	if err != nil {
		return nil, ErrInvalidCategory
	}

	status := models.StatusPending
	if req.Status != "" && actor.IsAdmin() {
		parsed, err := models.ParseStatus(req.Status)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		status = parsed
	}

	draft := models.Article{
		Title:      req.Title,
		Content:    req.Content,
		Category:   category,
		AuthorID:   actor.ID,
		AuthorName: actor.Username,
		Status:     status,
		Image:      req.Image,
		Alt:        req.Alt,
	}

	for attempt := 0; attempt < maxWriteRetries; attempt++ {
		slugVal, err := s.allocateSlug(ctx, req.Title, 0)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		draft.Slug = slugVal

		stored, err := s.repo.CreateArticle(ctx, draft)
		if errors.Is(err, repository.ErrSlugTaken) {
			s.log.Info("lost slug race, retrying", slog.String("slug", slugVal))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}

		metrics.ArticlesCreated.WithLabelValues(string(stored.Status)).Inc()
		if stored.Status == models.StatusApproved {
			metrics.ArticlesApproved.Inc()
			s.publishApproved(stored)
		}
		if err := s.cache.Set(ctx, cacheKey(stored.Slug), stored, cacheTTL); err != nil {
			s.log.Warn("failed to cache article", slog.String("slug", stored.Slug), sl.Err(err))
		}
		return stored, nil
	}
	return nil, fmt.Errorf("%s: %w", op, repository.ErrSlugTaken)
}

// Get returns an article by id under the management visibility rules:
// admins see everything, editors only their own articles, anonymous readers
// only approved ones. Invisible articles read as not found.
func (s *ArticleService) Get(ctx context.Context, actor *models.Identity, id int) (*models.Article, error) {
	a, err := s.repo.GetArticleByID(ctx, id)
	if err != nil {
		return nil, err
	}
	switch {
	case actor.IsAdmin():
		return a, nil
	case actor == nil:
		if a.Status != models.StatusApproved {
			return nil, repository.ErrNotFound
		}
		return a, nil
	case a.AuthorID == actor.ID:
		return a, nil
	default:
		return nil, repository.ErrNotFound
	}
}

// GetBySlug returns an article by slug through the cache, under the public
// visibility rules: approved articles are visible to everyone, the rest only
// to their author or an admin.
func (s *ArticleService) GetBySlug(ctx context.Context, actor *models.Identity, slugVal string) (*models.Article, error) {
	const op = "services.article.GetBySlug"

	var a *models.Article
	key := cacheKey(slugVal)
	found, err := s.cache.Get(ctx, key, &a)
	if err != nil {
		s.log.Warn("cache lookup failed", slog.String("key", key), sl.Err(err))
		found = false
	}
	if !found {
		a, err = s.repo.GetArticleBySlug(ctx, slugVal)
		if err != nil {
			return nil, err
		}
		if err := s.cache.Set(ctx, key, a, cacheTTL); err != nil {
			s.log.Warn("failed to cache article", slog.String("key", key), sl.Err(err))
		}
	}

	if a.Status == models.StatusApproved || actor.IsAdmin() || (actor != nil && a.AuthorID == actor.ID) {
		return a, nil
	}
	return nil, fmt.Errorf("%s: %w", op, repository.ErrNotFound)
}

// List returns articles visible to the actor. Anonymous callers always see
// the approved set regardless of the requested filter; editors see their own
// articles; admins see everything. Both may narrow by status.
func (s *ArticleService) List(ctx context.Context, actor *models.Identity, status *models.Status, limit, offset int) ([]*models.Article, error) {
	filter := models.ArticleFilter{Limit: limit, Offset: offset}
	switch {
	case actor == nil:
		approved := models.StatusApproved
		filter.Status = &approved
	case actor.IsAdmin():
		filter.Status = status
	default:
		filter.AuthorID = actor.ID
		filter.Status = status
	}
	return s.repo.ListArticles(ctx, filter)
}

// Update applies a partial update under the field-gating rules. Existence is
// checked before authorization, so a missing article reads as not found even
// for actors who would not have been allowed to touch it. A title change
// reallocates the slug, excluding the article itself from the uniqueness
// probe. The status field is applied only for admins and silently dropped
// otherwise.
func (s *ArticleService) Update(ctx context.Context, actor models.Identity, id int, req models.UpdateArticleRequest) (*models.Article, error) {
	const op = "services.article.Update"

	if req.Empty() {
		return nil, ErrNoFields
	}

	existing, err := s.repo.GetArticleByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.IsAdmin() && existing.AuthorID != actor.ID {
		return nil, ErrForbidden
	}

	updated := *existing
	titleChanged := false
	if req.Title != nil {
		updated.Title = *req.Title
		titleChanged = true
	}
	if req.Content != nil {
		updated.Content = *req.Content
	}
	if req.Category != nil {
		category, err := models.ParseCategory(*req.Category)
		if err != nil {
			return nil, ErrInvalidCategory
		}
		updated.Category = category
	}
	if req.Image != nil {
		updated.Image = req.Image
	}
	if req.Alt != nil {
		updated.Alt = req.Alt
	}
	if req.Status != nil && actor.IsAdmin() {
		parsed, err := models.ParseStatus(*req.Status)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		updated.Status = parsed
	}

	var stored *models.Article
	for attempt := 0; attempt < maxWriteRetries; attempt++ {
		if titleChanged {
			slugVal, err := s.allocateSlug(ctx, updated.Title, id)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", op, err)
			}
			updated.Slug = slugVal
		}
		stored, err = s.repo.UpdateArticle(ctx, updated)
		if errors.Is(err, repository.ErrSlugTaken) && titleChanged {
			s.log.Info("lost slug race, retrying", slog.String("slug", updated.Slug))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		break
	}
	if stored == nil {
		return nil, fmt.Errorf("%s: %w", op, repository.ErrSlugTaken)
	}

	if existing.Status != models.StatusApproved && stored.Status == models.StatusApproved {
		metrics.ArticlesApproved.Inc()
		s.publishApproved(stored)
	}

	if err := s.cache.Invalidate(ctx, cacheKey(existing.Slug)); err != nil {
		s.log.Warn("failed to invalidate cache", slog.String("slug", existing.Slug), sl.Err(err))
	}
	if stored.Slug != existing.Slug {
		if err := s.cache.Invalidate(ctx, cacheKey(stored.Slug)); err != nil {
			s.log.Warn("failed to invalidate cache", slog.String("slug", stored.Slug), sl.Err(err))
		}
	}
	return stored, nil
}

// Delete removes an article under the ownership check, with the same
// existence-before-authorization order as Update.
func (s *ArticleService) Delete(ctx context.Context, actor models.Identity, id int) error {
	existing, err := s.repo.GetArticleByID(ctx, id)
	if err != nil {
		return err
	}
	if !actor.IsAdmin() && existing.AuthorID != actor.ID {
		return ErrForbidden
	}

	if _, err := s.repo.DeleteArticle(ctx, id); err != nil {
		return err
	}
	if err := s.cache.Invalidate(ctx, cacheKey(existing.Slug)); err != nil {
		s.log.Warn("failed to invalidate cache", slog.String("slug", existing.Slug), sl.Err(err))
	}
	return nil
}
