package models

import (
	"fmt"
	"time"
)

// Status is the closed set of moderation states an article moves through.
type Status string

const (
	// StatusPending is the state of every editor-submitted article.
	StatusPending Status = "pending"
	// StatusApproved makes an article publicly readable.
	StatusApproved Status = "approved"
)

// ParseStatus validates a raw status value at the boundary.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusApproved:
		return Status(s), nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}

// Category is the closed set of article rubrics. The wire values are the
// original Ukrainian rubric names of the newspaper.
type Category string

const (
	CategorySport      Category = "спорт"
	CategoryLearning   Category = "навчання"
	CategoryCreativity Category = "творчість"
	CategoryJokes      Category = "жарти"
)

// ParseCategory validates a raw category value at the boundary.
func ParseCategory(s string) (Category, error) {
	switch Category(s) {
	case CategorySport, CategoryLearning, CategoryCreativity, CategoryJokes:
		return Category(s), nil
	}
	return "", fmt.Errorf("unknown category %q", s)
}

// Article is the main content entity. Slug is unique across all articles and
// derived from the title; AuthorID and AuthorName are fixed at creation.
type Article struct {
	ID         int       `json:"id"`
	Slug       string    `json:"slug"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Category   Category  `json:"category"`
	AuthorID   string    `json:"author_id"`
	AuthorName string    `json:"author_name"`
	Status     Status    `json:"status"`
	Image      *string   `json:"image,omitempty"`
	Alt        *string   `json:"alt,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// CreateArticleRequest carries the JSON body of an article creation request.
// Status is only honored for admins; editors always get "pending".
type CreateArticleRequest struct {
	Title    string  `json:"title" validate:"required,max=255"`
	Content  string  `json:"content" validate:"required"`
	Category string  `json:"category" validate:"required"`
	Status   string  `json:"status,omitempty" validate:"omitempty,oneof=pending approved"`
	Image    *string `json:"image,omitempty"`
	Alt      *string `json:"alt,omitempty"`
}

// UpdateArticleRequest carries a partial update; nil fields are left
// untouched, mirroring the PUT semantics of the API.
type UpdateArticleRequest struct {
	Title    *string `json:"title,omitempty" validate:"omitempty,min=1,max=255"`
	Content  *string `json:"content,omitempty" validate:"omitempty,min=1"`
	Category *string `json:"category,omitempty"`
	Status   *string `json:"status,omitempty" validate:"omitempty,oneof=pending approved"`
	Image    *string `json:"image,omitempty"`
	Alt      *string `json:"alt,omitempty"`
}

// Empty reports whether the update request carries no fields at all.
func (r *UpdateArticleRequest) Empty() bool {
	return r.Title == nil && r.Content == nil && r.Category == nil &&
		r.Status == nil && r.Image == nil && r.Alt == nil
}

// ArticleFilter narrows article listings. An empty AuthorID matches any
// author; a nil Status matches any status.
type ArticleFilter struct {
	AuthorID string
	Status   *Status
	Limit    int
	Offset   int
}
