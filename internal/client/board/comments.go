package board

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/dmitrijs2005/gophboard/internal/client/rest"
	"github.com/dmitrijs2005/gophboard/internal/common"
)

const maxCommentLen = 5000

type Comments struct {
	api *api
}

// List returns the post's top-level comments, oldest first, each with its
// replies nested under it.
func (c *Comments) List(ctx context.Context, postID string) ([]Comment, error) {
	if err := checkID("post id", postID); err != nil {
		return nil, err
	}

	var flat []Comment
	_, err := c.api.call(ctx, rest.Request{
		Path: "comments",
		Query: url.Values{
			"select":  {"*," + authorEmbed},
			"post_id": {eq(postID)},
			"order":   {"created_at.asc"},
		},
	}, &flat)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return buildThread(flat), nil
}

// buildThread nests replies under their parents. Replies whose parent is
// not in the list are promoted to the top level.
func buildThread(flat []Comment) []Comment {
	children := make(map[string][]int, len(flat))
	present := make(map[string]bool, len(flat))
	for _, cm := range flat {
		present[cm.ID] = true
	}

	var roots []int
	for i, cm := range flat {
		if cm.ParentID != nil && *cm.ParentID != cm.ID && present[*cm.ParentID] {
			children[*cm.ParentID] = append(children[*cm.ParentID], i)
			continue
		}
		roots = append(roots, i)
	}

	var build func(i int, seen map[string]bool) Comment
	build = func(i int, seen map[string]bool) Comment {
		cm := flat[i]
		seen[cm.ID] = true
		for _, j := range children[cm.ID] {
			if seen[flat[j].ID] {
				continue
			}
			cm.Replies = append(cm.Replies, build(j, seen))
		}
		return cm
	}

	seen := make(map[string]bool, len(flat))
	out := make([]Comment, 0, len(roots))
	for _, i := range roots {
		out = append(out, build(i, seen))
	}
	return out
}

// Create adds a comment, or a reply when ParentID is set.
func (c *Comments) Create(ctx context.Context, req CreateCommentRequest) (*Comment, error) {
	req.Content = strings.TrimSpace(req.Content)
	err := validation.ValidateStruct(&req,
		validation.Field(&req.Content, validation.Required, validation.Length(1, maxCommentLen)),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrValidation, err)
	}
	if err := checkID("post id", req.PostID); err != nil {
		return nil, err
	}
	if req.ParentID != "" {
		if err := checkID("parent id", req.ParentID); err != nil {
			return nil, err
		}
	}

	authorID, err := c.api.currentUserID(ctx)
	if err != nil {
		return nil, err
	}

	body := map[string]any{
		"post_id":   req.PostID,
		"author_id": authorID,
		"content":   req.Content,
	}
	if req.ParentID != "" {
		body["parent_id"] = req.ParentID
	}

	var created []Comment
	_, err = c.api.call(ctx, rest.Request{
		Method: http.MethodPost,
		Path:   "comments",
		Header: http.Header{"Prefer": {"return=representation"}},
		Body:   body,
	}, &created)
	if err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	if len(created) == 0 {
		return nil, fmt.Errorf("create comment: empty response")
	}
	return &created[0], nil
}
