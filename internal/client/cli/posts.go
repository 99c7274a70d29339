package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/gophboard/internal/client/board"
	"github.com/dmitrijs2005/gophboard/internal/common"
)

const timeLayout = "2006-01-02 15:04"

func (a *App) Boards(ctx context.Context) error {
	boards, err := a.boards.List(ctx)
	if err != nil {
		return err
	}
	if len(boards) == 0 {
		fmt.Fprintln(a.out, "No boards yet")
		return nil
	}
	for _, b := range boards {
		fmt.Fprintf(a.out, "%-16s %s\n", b.Slug, b.Name)
	}
	return nil
}

func (a *App) Tags(ctx context.Context) error {
	tags, err := a.tags.List(ctx)
	if err != nil {
		return err
	}
	names := make([]string, 0, len(tags))
	for _, t := range tags {
		names = append(names, t.Name)
	}
	fmt.Fprintln(a.out, strings.Join(names, ", "))
	return nil
}

// parseListArgs reads "<board> [page] [sort] [order]".
func parseListArgs(args []string) (string, board.ListParams, error) {
	var params board.ListParams
	if len(args) > 1 {
		page, err := strconv.Atoi(args[1])
		if err != nil {
			return "", params, fmt.Errorf("%w: page must be a number", common.ErrValidation)
		}
		params.Page = page
	}
	if len(args) > 2 {
		params.Sort = args[2]
	}
	if len(args) > 3 {
		params.Order = args[3]
	}
	return args[0], params, nil
}

// Posts prints one page of a board.
func (a *App) Posts(ctx context.Context, args []string) error {
	slug, params, err := parseListArgs(args)
	if err != nil {
		return err
	}
	page, err := a.posts.List(ctx, slug, params)
	if err != nil {
		return err
	}

	for _, p := range page.Items {
		fmt.Fprintf(a.out, "%s  %s  by %s  %d views\n", p.ID, p.Title, authorName(p.Author), p.ViewCount)
	}
	pg := page.Pagination
	fmt.Fprintf(a.out, "page %d/%d, %d posts\n", pg.Page, pg.TotalPages, pg.Total)
	return nil
}

// Show prints a post. Fetching it counts as a view.
func (a *App) Show(ctx context.Context, postID string) error {
	p, err := a.posts.Get(ctx, postID)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "%s\nby %s on %s, %d views\n", p.Title, authorName(p.Author), p.CreatedAt.Format(timeLayout), p.ViewCount)
	if len(p.Tags) > 0 {
		names := make([]string, 0, len(p.Tags))
		for _, t := range p.Tags {
			names = append(names, t.Name)
		}
		fmt.Fprintf(a.out, "tags: %s\n", strings.Join(names, ", "))
	}
	fmt.Fprintf(a.out, "\n%s\n", p.Content)
	return nil
}

// resolveTags maps tag names, case-insensitively, to tag ids.
func (a *App) resolveTags(ctx context.Context, names []string) ([]string, error) {
	if len(names) == 0 {
		return nil, nil
	}
	tags, err := a.tags.List(ctx)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]string, len(tags))
	for _, t := range tags {
		byName[strings.ToLower(t.Name)] = t.ID
	}

	ids := make([]string, 0, len(names))
	for _, n := range names {
		id, ok := byName[strings.ToLower(n)]
		if !ok {
			return nil, fmt.Errorf("%w: unknown tag %q", common.ErrValidation, n)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (a *App) NewPost(ctx context.Context, boardSlug string) error {
	b, err := a.boards.BySlug(ctx, boardSlug)
	if err != nil {
		return err
	}

	title, err := a.ask("Title")
	if err != nil {
		return err
	}
	content, err := getMultiline(a.reader, "Content", a.out)
	if err != nil {
		return err
	}
	tagLine, err := a.ask("Tags, comma separated (optional)")
	if err != nil {
		return err
	}
	tagIDs, err := a.resolveTags(ctx, splitList(tagLine))
	if err != nil {
		return err
	}

	p, err := a.posts.Create(ctx, board.CreatePostRequest{BoardID: b.ID, Title: title, Content: content, Tags: tagIDs})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Created post %s\n", p.ID)
	return nil
}

// EditPost updates a post. Blank answers keep the current value; "-" as the
// tag answer removes every tag.
func (a *App) EditPost(ctx context.Context, postID string) error {
	title, err := a.ask("New title (blank to keep)")
	if err != nil {
		return err
	}
	content, err := getMultiline(a.reader, "New content (blank to keep)", a.out)
	if err != nil {
		return err
	}
	tagLine, err := a.ask("Tags, comma separated (blank to keep, - to clear)")
	if err != nil {
		return err
	}

	req := board.UpdatePostRequest{Title: title, Content: content}
	switch strings.TrimSpace(tagLine) {
	case "":
	case "-":
		req.Tags = []string{}
	default:
		if req.Tags, err = a.resolveTags(ctx, splitList(tagLine)); err != nil {
			return err
		}
	}

	p, err := a.posts.Update(ctx, postID, req)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Updated post %s\n", p.ID)
	return nil
}

func (a *App) DeletePost(ctx context.Context, postID string) error {
	answer, err := a.ask(fmt.Sprintf("Delete post %s and its comments? (yes/no)", postID))
	if err != nil {
		return err
	}
	if !strings.EqualFold(answer, "yes") {
		fmt.Fprintln(a.out, "Cancelled")
		return nil
	}
	if err := a.posts.Delete(ctx, postID); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "Deleted")
	return nil
}

func authorName(au *board.Author) string {
	if au == nil || au.Username == "" {
		return "unknown"
	}
	return au.Username
}
