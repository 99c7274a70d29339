package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/dmitrijs2005/gophboard/internal/client/board"
)

// Comments prints the discussion under a post as an indented tree.
func (a *App) Comments(ctx context.Context, postID string) error {
	thread, err := a.comments.List(ctx, postID)
	if err != nil {
		return err
	}
	if len(thread) == 0 {
		fmt.Fprintln(a.out, "No comments yet")
		return nil
	}
	printThread(a.out, thread, 0)
	return nil
}

func printThread(w io.Writer, thread []board.Comment, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, c := range thread {
		fmt.Fprintf(w, "%s[%s] %s, %s:\n", indent, c.ID, authorName(c.Author), c.CreatedAt.Format(timeLayout))
		for _, line := range strings.Split(c.Content, "\n") {
			fmt.Fprintf(w, "%s  %s\n", indent, line)
		}
		printThread(w, c.Replies, depth+1)
	}
}

// Comment posts a comment, or a reply when parentID is set.
func (a *App) Comment(ctx context.Context, postID, parentID string) error {
	content, err := getMultiline(a.reader, "Comment", a.out)
	if err != nil {
		return err
	}
	c, err := a.comments.Create(ctx, board.CreateCommentRequest{PostID: postID, ParentID: parentID, Content: content})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Posted comment %s\n", c.ID)
	return nil
}
