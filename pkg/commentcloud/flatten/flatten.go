// Package flatten turns nested comment threads into one ordered list of
// uniform comment records.
package flatten

import (
	"fmt"
	"strings"

	yt "google.golang.org/api/youtube/v3"

	"github.com/cognicore/commentcloud/pkg/commentcloud/internalerr"
)

// Comment is one top-level comment or reply.
type Comment struct {
	ID              string `json:"id"`
	Author          string `json:"author"`
	ProfileImageURL string `json:"profile_image_url"`
	Text            string `json:"text"`
	RawText         string `json:"raw_text"`
	Likes           int64  `json:"likes"`
	PublishedAt     string `json:"published_at"`
	UpdatedAt       string `json:"updated_at"`
	NumReplies      int64  `json:"num_replies"`
}

// nodeKind tells whether the comment body sits under a thread wrapper or is
// the item itself.
type nodeKind int

const (
	threadNode nodeKind = iota
	bareNode
)

// node is a thread item or reply resolved to its core snippet.
type node struct {
	kind       nodeKind
	id         string
	snippet    *yt.CommentSnippet
	numReplies int64
	replies    []*yt.Comment
}

func resolveThread(item *yt.CommentThread) (node, error) {
	if item == nil {
		return node{}, fmt.Errorf("%w: nil thread item", internalerr.ErrMalformedComment)
	}
	if item.Snippet == nil {
		return node{}, fmt.Errorf("%w: thread %q has no snippet", internalerr.ErrMalformedComment, item.Id)
	}
	top := item.Snippet.TopLevelComment
	if top == nil {
		return node{}, fmt.Errorf("%w: thread %q has no top-level comment", internalerr.ErrMalformedComment, item.Id)
	}
	n := node{
		kind:       threadNode,
		id:         item.Id,
		snippet:    top.Snippet,
		numReplies: item.Snippet.TotalReplyCount,
	}
	if item.Replies != nil {
		n.replies = item.Replies.Comments
	}
	return n, nil
}

func resolveReply(c *yt.Comment) (node, error) {
	if c == nil {
		return node{}, fmt.Errorf("%w: nil reply", internalerr.ErrMalformedComment)
	}
	return node{kind: bareNode, id: c.Id, snippet: c.Snippet}, nil
}

func (n node) record() (Comment, error) {
	s := n.snippet
	switch {
	case n.id == "":
		return Comment{}, fmt.Errorf("%w: missing id", internalerr.ErrMalformedComment)
	case s == nil:
		return Comment{}, fmt.Errorf("%w: %s: missing snippet", internalerr.ErrMalformedComment, n.id)
	case s.PublishedAt == "":
		return Comment{}, fmt.Errorf("%w: %s: missing publishedAt", internalerr.ErrMalformedComment, n.id)
	case s.UpdatedAt == "":
		return Comment{}, fmt.Errorf("%w: %s: missing updatedAt", internalerr.ErrMalformedComment, n.id)
	}

	raw := s.TextOriginal
	if raw == "" && s.TextDisplay != "" {
		raw = PlainText(s.TextDisplay)
	}

	c := Comment{
		ID:              n.id,
		Author:          s.AuthorDisplayName,
		ProfileImageURL: s.AuthorProfileImageUrl,
		Text:            s.TextDisplay,
		RawText:         raw,
		Likes:           s.LikeCount,
		PublishedAt:     s.PublishedAt,
		UpdatedAt:       s.UpdatedAt,
	}
	if n.kind == threadNode {
		c.NumReplies = n.numReplies
	}
	return c, nil
}

// Flatten emits every top-level comment followed by its replies, in input
// order. Any malformed item fails the whole call.
func Flatten(items []*yt.CommentThread) ([]Comment, error) {
	out := make([]Comment, 0, len(items))
	for _, item := range items {
		n, err := resolveThread(item)
		if err != nil {
			return nil, err
		}
		top, err := n.record()
		if err != nil {
			return nil, err
		}
		out = append(out, top)

		for _, r := range n.replies {
			rn, err := resolveReply(r)
			if err != nil {
				return nil, fmt.Errorf("thread %s: %w", n.id, err)
			}
			reply, err := rn.record()
			if err != nil {
				return nil, fmt.Errorf("thread %s: %w", n.id, err)
			}
			out = append(out, reply)
		}
	}
	return out, nil
}

// Mentions returns the comments whose raw text contains any keyword.
func Mentions(comments []Comment, keywords []string) []Comment {
	var out []Comment
	for _, c := range comments {
		if containsAny(c.RawText, keywords...) {
			out = append(out, c)
		}
	}
	return out
}

func containsAny(s string, keywords ...string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
