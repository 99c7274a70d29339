package board

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"

	"github.com/dmitrijs2005/gophboard/internal/client/rest"
	"github.com/dmitrijs2005/gophboard/internal/common"
)

const (
	listSelect   = "id,title,created_at,view_count," + authorEmbed
	detailSelect = "*," + authorEmbed + ",tags:post_tags(tag:tags(id,name))"

	maxTitleLen = 200
)

type Posts struct {
	api    *api
	boards *Boards
}

// List returns one page of posts of the board with the given slug.
func (p *Posts) List(ctx context.Context, boardSlug string, params ListParams) (*Page[Post], error) {
	params = params.withDefaults()
	err := validation.ValidateStruct(&params,
		validation.Field(&params.Page, validation.Min(1)),
		validation.Field(&params.Limit, validation.Min(1), validation.Max(MaxLimit)),
		validation.Field(&params.Sort, validation.In(SortCreatedAt, SortViewCount)),
		validation.Field(&params.Order, validation.In(OrderAsc, OrderDesc)),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrValidation, err)
	}

	b, err := p.boards.BySlug(ctx, boardSlug)
	if err != nil {
		return nil, err
	}

	var posts []Post
	resp, err := p.api.call(ctx, rest.Request{
		Path: "posts",
		Query: url.Values{
			"select":   {listSelect},
			"board_id": {eq(b.ID)},
			"order":    {params.Sort + "." + params.Order},
			"offset":   {strconv.Itoa((params.Page - 1) * params.Limit)},
			"limit":    {strconv.Itoa(params.Limit)},
		},
		Header: http.Header{"Prefer": {"count=exact"}},
	}, &posts)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	total := parseTotal(resp.Header.Get("Content-Range"))
	if total < 0 {
		total = (params.Page-1)*params.Limit + len(posts)
	}

	return &Page[Post]{
		Items: posts,
		Pagination: Pagination{
			Page:       params.Page,
			Limit:      params.Limit,
			Total:      total,
			TotalPages: (total + params.Limit - 1) / params.Limit,
		},
	}, nil
}

// Get bumps the view counter server side and returns the post with its
// author and tags.
func (p *Posts) Get(ctx context.Context, id string) (*Post, error) {
	if err := checkID("post id", id); err != nil {
		return nil, err
	}

	_, err := p.api.call(ctx, rest.Request{
		Method: http.MethodPost,
		Path:   "rpc/increment_post_view",
		Header: http.Header{"Prefer": {"return=minimal"}},
		Body:   map[string]string{"p_post_id": id},
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("count view: %w", err)
	}

	return p.fetch(ctx, id)
}

func (p *Posts) fetch(ctx context.Context, id string) (*Post, error) {
	var rows []struct {
		Post
		TagLinks []struct {
			Tag *Tag `json:"tag"`
		} `json:"tags"`
	}
	_, err := p.api.call(ctx, rest.Request{
		Path:  "posts",
		Query: url.Values{"select": {detailSelect}, "id": {eq(id)}},
	}, &rows)
	if err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("post %s: %w", id, common.ErrNotFound)
	}

	post := rows[0].Post
	post.Tags = make([]Tag, 0, len(rows[0].TagLinks))
	for _, link := range rows[0].TagLinks {
		if link.Tag != nil {
			post.Tags = append(post.Tags, *link.Tag)
		}
	}
	return &post, nil
}

func validateTagIDs(ids []string) error {
	for _, id := range ids {
		if err := checkID("tag id", id); err != nil {
			return err
		}
	}
	return nil
}

// Create inserts a post authored by the signed-in user and attaches tags.
func (p *Posts) Create(ctx context.Context, req CreatePostRequest) (*Post, error) {
	req.Title = strings.TrimSpace(req.Title)
	err := validation.ValidateStruct(&req,
		validation.Field(&req.BoardID, validation.Required, is.UUID),
		validation.Field(&req.Title, validation.Required, validation.Length(1, maxTitleLen)),
		validation.Field(&req.Content, validation.Required),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrValidation, err)
	}
	if err := validateTagIDs(req.Tags); err != nil {
		return nil, err
	}

	authorID, err := p.api.currentUserID(ctx)
	if err != nil {
		return nil, err
	}

	var created []Post
	_, err = p.api.call(ctx, rest.Request{
		Method: http.MethodPost,
		Path:   "posts",
		Header: http.Header{"Prefer": {"return=representation"}},
		Body: map[string]string{
			"board_id":  req.BoardID,
			"title":     req.Title,
			"content":   req.Content,
			"author_id": authorID,
		},
	}, &created)
	if err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	if len(created) == 0 {
		return nil, fmt.Errorf("create post: empty response")
	}
	post := created[0]

	if len(req.Tags) > 0 {
		if err := p.replaceTags(ctx, post.ID, req.Tags); err != nil {
			return &post, err
		}
	}
	return &post, nil
}

// Update patches the non-empty fields and, when Tags is non-nil, replaces
// the post's tags in one server-side transaction.
func (p *Posts) Update(ctx context.Context, id string, req UpdatePostRequest) (*Post, error) {
	if err := checkID("post id", id); err != nil {
		return nil, err
	}
	req.Title = strings.TrimSpace(req.Title)
	if err := validation.Validate(req.Title, validation.Length(0, maxTitleLen)); err != nil {
		return nil, fmt.Errorf("%w: title: %v", common.ErrValidation, err)
	}
	if err := validateTagIDs(req.Tags); err != nil {
		return nil, err
	}

	patch := map[string]string{}
	if req.Title != "" {
		patch["title"] = req.Title
	}
	if req.Content != "" {
		patch["content"] = req.Content
	}
	if len(patch) == 0 && req.Tags == nil {
		return nil, fmt.Errorf("%w: nothing to update", common.ErrValidation)
	}

	if len(patch) > 0 {
		var updated []Post
		_, err := p.api.call(ctx, rest.Request{
			Method: http.MethodPatch,
			Path:   "posts",
			Query:  url.Values{"id": {eq(id)}},
			Header: http.Header{"Prefer": {"return=representation"}},
			Body:   patch,
		}, &updated)
		if err != nil {
			return nil, fmt.Errorf("update post: %w", err)
		}
		if len(updated) == 0 {
			return nil, fmt.Errorf("post %s: %w", id, common.ErrNotFound)
		}
	}

	if req.Tags != nil {
		if err := p.replaceTags(ctx, id, req.Tags); err != nil {
			return nil, err
		}
	}

	return p.fetch(ctx, id)
}

// Delete removes the post and its tag links in one server-side transaction.
func (p *Posts) Delete(ctx context.Context, id string) error {
	if err := checkID("post id", id); err != nil {
		return err
	}
	_, err := p.api.call(ctx, rest.Request{
		Method: http.MethodPost,
		Path:   "rpc/delete_post",
		Header: http.Header{"Prefer": {"return=minimal"}},
		Body:   map[string]string{"p_post_id": id},
	}, nil)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	return nil
}

func (p *Posts) replaceTags(ctx context.Context, postID string, tagIDs []string) error {
	if tagIDs == nil {
		tagIDs = []string{}
	}
	_, err := p.api.call(ctx, rest.Request{
		Method: http.MethodPost,
		Path:   "rpc/replace_post_tags",
		Header: http.Header{"Prefer": {"return=minimal"}},
		Body:   map[string]any{"p_post_id": postID, "p_tag_ids": tagIDs},
	}, nil)
	if err != nil {
		return fmt.Errorf("set post tags: %w", err)
	}
	return nil
}
