package board

import "time"

type Board struct {
	ID          string    `json:"id"`
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Author is the public profile embedded in posts and comments.
type Author struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

type Tag struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Post struct {
	ID        string    `json:"id"`
	BoardID   string    `json:"board_id,omitempty"`
	AuthorID  string    `json:"author_id,omitempty"`
	Title     string    `json:"title"`
	Content   string    `json:"content,omitempty"`
	ViewCount int64     `json:"view_count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
	Author    *Author   `json:"author,omitempty"`
	Tags      []Tag     `json:"tags,omitempty"`
}

type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	ParentID  *string   `json:"parent_id"`
	AuthorID  string    `json:"author_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	Author    *Author   `json:"author,omitempty"`
	Replies   []Comment `json:"-"`
}

// Sort and order values accepted by Posts.List.
const (
	SortCreatedAt = "created_at"
	SortViewCount = "view_count"
	OrderAsc      = "asc"
	OrderDesc     = "desc"

	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// ListParams controls post listing. Zero values take the defaults.
type ListParams struct {
	Page  int
	Limit int
	Sort  string
	Order string
}

func (p ListParams) withDefaults() ListParams {
	if p.Page == 0 {
		p.Page = DefaultPage
	}
	if p.Limit == 0 {
		p.Limit = DefaultLimit
	}
	if p.Sort == "" {
		p.Sort = SortCreatedAt
	}
	if p.Order == "" {
		p.Order = OrderDesc
	}
	return p
}

type Pagination struct {
	Page       int
	Limit      int
	Total      int
	TotalPages int
}

// Page is one page of results.
type Page[T any] struct {
	Items      []T
	Pagination Pagination
}

type CreatePostRequest struct {
	BoardID string   `json:"board_id"`
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

// UpdatePostRequest changes non-empty fields. A nil Tags leaves tags alone;
// a non-nil empty slice removes all of them.
type UpdatePostRequest struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

type CreateCommentRequest struct {
	PostID   string `json:"post_id"`
	ParentID string `json:"parent_id"`
	Content  string `json:"content"`
}
