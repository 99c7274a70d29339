package board

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/dmitrijs2005/gophboard/internal/client/rest"
	"github.com/dmitrijs2005/gophboard/internal/common"
)

type Boards struct {
	api *api
}

func (b *Boards) List(ctx context.Context) ([]Board, error) {
	var boards []Board
	_, err := b.api.call(ctx, rest.Request{
		Path:  "boards",
		Query: url.Values{"select": {"*"}, "order": {"name.asc"}},
	}, &boards)
	if err != nil {
		return nil, fmt.Errorf("list boards: %w", err)
	}
	return boards, nil
}

// BySlug returns common.ErrNotFound for an unknown slug.
func (b *Boards) BySlug(ctx context.Context, slug string) (*Board, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return nil, fmt.Errorf("%w: board slug is required", common.ErrValidation)
	}

	var boards []Board
	_, err := b.api.call(ctx, rest.Request{
		Path:  "boards",
		Query: url.Values{"select": {"*"}, "slug": {eq(slug)}, "limit": {"1"}},
	}, &boards)
	if err != nil {
		return nil, fmt.Errorf("get board %q: %w", slug, err)
	}
	if len(boards) == 0 {
		return nil, fmt.Errorf("board %q: %w", slug, common.ErrNotFound)
	}
	return &boards[0], nil
}
