package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kidsweekly/content-api/internal/models"
)

const articleColumns = `id, slug, title, content, category, author_id, author_name,
			  status, image, alt, created_at, updated_at`

func scanArticle(row interface{ Scan(dest ...any) error }) (*models.Article, error) {
	a := &models.Article{}
	err := row.Scan(&a.ID, &a.Slug, &a.Title, &a.Content, &a.Category,
		&a.AuthorID, &a.AuthorName, &a.Status, &a.Image, &a.Alt,
		&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// CreateArticle inserts a new article and returns the stored row. Losing a
// slug race against the unique constraint yields ErrSlugTaken.
func (s *Storage) CreateArticle(ctx context.Context, a models.Article) (*models.Article, error) {
	const op = "storage.CreateArticle"

	query := `INSERT INTO articles (slug, title, content, category, author_id,
			      author_name, status, image, alt)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			  RETURNING ` + articleColumns
	row := s.DB.QueryRowContext(ctx, query,
		a.Slug, a.Title, a.Content, a.Category, a.AuthorID,
		a.AuthorName, a.Status, a.Image, a.Alt)
	stored, err := scanArticle(row)
	if err != nil {
		if isUniqueViolation(err, "articles_slug_key") {
			return nil, fmt.Errorf("%s: %w", op, ErrSlugTaken)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return stored, nil
}

// GetArticleByID returns the article with the given id.
func (s *Storage) GetArticleByID(ctx context.Context, id int) (*models.Article, error) {
	const op = "storage.GetArticleByID"

	query := `SELECT ` + articleColumns + ` FROM articles WHERE id = $1`
	a, err := scanArticle(s.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return a, nil
}

// GetArticleBySlug returns the article with the given slug.
func (s *Storage) GetArticleBySlug(ctx context.Context, slug string) (*models.Article, error) {
	const op = "storage.GetArticleBySlug"

	query := `SELECT ` + articleColumns + ` FROM articles WHERE slug = $1`
	a, err := scanArticle(s.DB.QueryRowContext(ctx, query, slug))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return a, nil
}

// UpdateArticle writes the mutable fields of an article and returns the
// stored row. Slug collisions yield ErrSlugTaken.
func (s *Storage) UpdateArticle(ctx context.Context, a models.Article) (*models.Article, error) {
	const op = "storage.UpdateArticle"

	query := `UPDATE articles
			  SET slug = $2, title = $3, content = $4, category = $5,
			      status = $6, image = $7, alt = $8, updated_at = now()
			  WHERE id = $1
			  RETURNING ` + articleColumns
	row := s.DB.QueryRowContext(ctx, query,
		a.ID, a.Slug, a.Title, a.Content, a.Category, a.Status, a.Image, a.Alt)
	stored, err := scanArticle(row)
	if err != nil {
		if isUniqueViolation(err, "articles_slug_key") {
			return nil, fmt.Errorf("%s: %w", op, ErrSlugTaken)
		}
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return stored, nil
}

// DeleteArticle removes an article by id and returns the number of rows
// deleted.
func (s *Storage) DeleteArticle(ctx context.Context, id int) (int64, error) {
	const op = "storage.DeleteArticle"

	res, err := s.DB.ExecContext(ctx, `DELETE FROM articles WHERE id = $1`, id)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

// ListArticles returns articles matching the filter, newest first.
func (s *Storage) ListArticles(ctx context.Context, f models.ArticleFilter) ([]*models.Article, error) {
	const op = "storage.ListArticles"

	var status string
	if f.Status != nil {
		status = string(*f.Status)
	}
	query := `SELECT ` + articleColumns + `
			  FROM articles
			  WHERE ($1 = '' OR author_id::text = $1)
			    AND ($2 = '' OR status = $2)
			  ORDER BY created_at DESC
			  LIMIT $3 OFFSET $4`
	rows, err := s.DB.QueryContext(ctx, query, f.AuthorID, status, f.Limit, f.Offset)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var result []*models.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// SlugExists reports whether a slug is already used by an article other than
// excludeID. Pass 0 to exclude nothing.
func (s *Storage) SlugExists(ctx context.Context, slug string, excludeID int) (bool, error) {
	const op = "storage.SlugExists"

	var exists bool
	err := s.DB.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM articles WHERE slug = $1 AND id <> $2)`,
		slug, excludeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}
