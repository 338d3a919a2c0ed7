package impl

import (
	"context"
	"fmt"
	"strings"

	"github.com/monadsocial/agora/internal/entities"
	"github.com/monadsocial/agora/internal/guard"
	"github.com/monadsocial/agora/internal/service"
	"github.com/monadsocial/agora/internal/storage"
)

// ToggleLike adds identity to post's likes or removes it when already present.
// It returns resulting likes count and whether identity likes the post now.
func (s *srv) ToggleLike(ctx context.Context, postID, identity string) (int, bool, error) {
	identity = guard.Normalize(identity)
	if identity == "" {
		return 0, false, fmt.Errorf("%w: user is required", service.ErrValidation)
	}

	s.mu.Lock()
	if s.postIndex(postID) < 0 {
		s.mu.Unlock()
		return 0, false, fmt.Errorf("%w: post %s", service.ErrNotFound, postID)
	}

	r := copyReaction(s.reactions[postID])

	liked := true
	for _, v := range r.LikedBy {
		if v == identity {
			liked = false
			break
		}
	}

	if liked {
		r.LikedBy = append(r.LikedBy, identity)
	} else {
		r.LikedBy = without(r.LikedBy, identity)
	}
	r.Likes = len(r.LikedBy)

	s.reactions[postID] = r
	s.mu.Unlock()

	s.persistBestEffort(ctx, storage.ReactionsCollection)

	log.WithField("post", postID).WithField("liked", liked).Debug("like toggled")

	return r.Likes, liked, nil
}

func (s *srv) AddComment(ctx context.Context, p *service.AddCommentParams) (*entities.Comment, error) {
	switch {
	case strings.TrimSpace(p.Author) == "":
		return nil, fmt.Errorf("%w: author is required", service.ErrValidation)
	case strings.TrimSpace(p.Text) == "":
		return nil, fmt.Errorf("%w: text is required", service.ErrValidation)
	}

	c := entities.Comment{
		ID:        p.ID,
		PostID:    p.PostID,
		Author:    strings.TrimSpace(p.Author),
		Text:      strings.TrimSpace(p.Text),
		Timestamp: p.Timestamp,
	}
	if c.ID == "" {
		c.ID = s.newID()
	}
	if c.Timestamp.IsZero() {
		c.Timestamp = s.now()
	}

	s.mu.Lock()
	if s.postIndex(c.PostID) < 0 {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: post %s", service.ErrNotFound, c.PostID)
	}

	s.comments[c.PostID] = append(copyComments(s.comments[c.PostID]), c)
	s.mu.Unlock()

	s.persistBestEffort(ctx, storage.CommentsCollection)

	log.WithField("post", c.PostID).WithField("comment", c.ID).Debug("comment added")

	return &c, nil
}

func without(s []string, v string) []string {
	out := make([]string, 0, len(s))
	for _, x := range s {
		if x != v {
			out = append(out, x)
		}
	}

	return out
}
