// Package board is the data-access layer for boards, posts, tags and
// comments over the tabular REST API (PostgREST).
//
// Requests go out through the data rest.Client, which must already carry the
// bearer token. Nothing here retries on 401; callers see
// common.ErrUnauthorized and decide.
package board

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/dmitrijs2005/gophboard/internal/client/rest"
	"github.com/dmitrijs2005/gophboard/internal/client/tokenstore"
	"github.com/dmitrijs2005/gophboard/internal/common"
)

// SessionSource yields the signed-in user id for authored rows.
type SessionSource interface {
	Load(ctx context.Context) (tokenstore.Session, bool, error)
}

// Service groups the per-table accessors.
type Service struct {
	Boards   *Boards
	Posts    *Posts
	Tags     *Tags
	Comments *Comments
}

func NewService(client *rest.Client, sessions SessionSource) *Service {
	a := &api{client: client, sessions: sessions}
	boards := &Boards{api: a}
	return &Service{
		Boards:   boards,
		Posts:    &Posts{api: a, boards: boards},
		Tags:     &Tags{api: a},
		Comments: &Comments{api: a},
	}
}

type api struct {
	client   *rest.Client
	sessions SessionSource
}

const authorEmbed = "author:author_id(id,username,avatar_url)"

func (a *api) call(ctx context.Context, req rest.Request, out any) (*rest.Response, error) {
	resp, err := a.client.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return resp, newAPIError(resp.Status, resp.Body)
	}
	if out != nil {
		if err := resp.Decode(out); err != nil {
			return resp, err
		}
	}
	return resp, nil
}

// currentUserID returns the persisted user id or ErrUnauthorized.
func (a *api) currentUserID(ctx context.Context) (string, error) {
	if a.sessions == nil {
		return "", common.ErrUnauthorized
	}
	sess, ok, err := a.sessions.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to read session: %w", err)
	}
	if !ok || sess.UserID == "" {
		return "", common.ErrUnauthorized
	}
	return sess.UserID, nil
}

func eq(v string) string { return "eq." + v }

// parseTotal extracts the total from a Content-Range header such as
// "0-19/42" or "*/0". Unknown totals ("0-19/*") read as -1.
func parseTotal(contentRange string) int {
	i := strings.LastIndexByte(contentRange, '/')
	if i < 0 {
		return -1
	}
	n, err := strconv.Atoi(strings.TrimSpace(contentRange[i+1:]))
	if err != nil {
		return -1
	}
	return n
}

func checkID(name, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %s must be a UUID", common.ErrValidation, name)
	}
	return nil
}
