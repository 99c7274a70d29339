package board

import (
	"context"
	"fmt"
	"net/url"

	"github.com/dmitrijs2005/gophboard/internal/client/rest"
)

type Tags struct {
	api *api
}

func (t *Tags) List(ctx context.Context) ([]Tag, error) {
	var tags []Tag
	_, err := t.api.call(ctx, rest.Request{
		Path:  "tags",
		Query: url.Values{"select": {"id,name"}, "order": {"name.asc"}},
	}, &tags)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	return tags, nil
}
