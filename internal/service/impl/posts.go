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

func (s *srv) CreatePost(ctx context.Context, p *service.CreatePostParams) (*service.PostView, error) {
	switch {
	case p.ID == "":
		return nil, fmt.Errorf("%w: id is required", service.ErrValidation)
	case strings.TrimSpace(p.Content) == "":
		return nil, fmt.Errorf("%w: content is required", service.ErrValidation)
	case strings.TrimSpace(p.Author) == "":
		return nil, fmt.Errorf("%w: author is required", service.ErrValidation)
	}

	post := entities.Post{
		ID:          p.ID,
		Content:     p.Content,
		Photo:       copyString(p.Photo),
		Author:      strings.TrimSpace(p.Author),
		Timestamp:   p.Timestamp,
		TxHash:      copyString(p.TxHash),
		BlockNumber: copyUint64(p.BlockNumber),
	}
	if post.Timestamp.IsZero() {
		post.Timestamp = s.now()
	}

	s.mu.Lock()
	if s.postIndex(post.ID) >= 0 {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: post %s already exists", service.ErrValidation, post.ID)
	}

	s.posts = append([]entities.Post{post}, s.posts...)
	s.reactions[post.ID] = entities.Reaction{LikedBy: []string{}}
	s.comments[post.ID] = []entities.Comment{}
	name := s.displayName(post.Author)
	out := s.postView(post)
	s.mu.Unlock()

	s.persistBestEffort(ctx, storage.Collections...)

	log.WithField("post", post.ID).WithField("author", name).Info("post created")

	return out, nil
}

func (s *srv) GetPosts(_ context.Context) ([]*service.PostView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*service.PostView, len(s.posts))
	for i, p := range s.posts {
		out[i] = s.postView(p)
	}

	return out, nil
}

func (s *srv) GetPost(_ context.Context, id string) (*service.PostView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.postIndex(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: post %s", service.ErrNotFound, id)
	}

	return s.postView(s.posts[i]), nil
}

func (s *srv) UpdatePost(ctx context.Context, id, caller, content string) (*service.PostView, error) {
	content = strings.TrimSpace(content)

	switch {
	case guard.Normalize(caller) == "":
		return nil, fmt.Errorf("%w: caller is required", service.ErrValidation)
	case content == "":
		return nil, fmt.Errorf("%w: content cannot be empty", service.ErrValidation)
	}

	s.mu.Lock()
	i := s.postIndex(id)
	if i < 0 {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: post %s", service.ErrNotFound, id)
	}

	if !guard.Authorize(s.posts[i], caller) {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: can only edit own posts", service.ErrForbidden)
	}

	now := s.now()
	s.posts[i].Content = content
	s.posts[i].UpdatedAt = &now
	s.posts[i].IsEdited = true
	out := s.postView(s.posts[i])
	s.mu.Unlock()

	s.persistBestEffort(ctx, storage.PostsCollection)

	log.WithField("post", id).Info("post edited")

	return out, nil
}

// DeletePost removes the post with its reaction and comments under a single lock acquisition.
func (s *srv) DeletePost(ctx context.Context, id, caller string) error {
	if guard.Normalize(caller) == "" {
		return fmt.Errorf("%w: caller is required", service.ErrValidation)
	}

	s.mu.Lock()
	i := s.postIndex(id)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: post %s", service.ErrNotFound, id)
	}

	if !guard.Authorize(s.posts[i], caller) {
		s.mu.Unlock()
		return fmt.Errorf("%w: can only delete own posts", service.ErrForbidden)
	}

	s.posts = append(s.posts[:i:i], s.posts[i+1:]...)
	delete(s.reactions, id)
	delete(s.comments, id)
	s.mu.Unlock()

	s.persistBestEffort(ctx, storage.PostsCollection, storage.ReactionsCollection, storage.CommentsCollection)

	log.WithField("post", id).Info("post deleted")

	return nil
}
