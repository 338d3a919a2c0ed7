// Package service contains interface for content store business-logic.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/monadsocial/agora/internal/entities"
)

//go:generate mockgen -destination=./mock/service.go -package=mock -source=service.go

var (
	// ErrValidation is returned when a required field is missing or empty.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound is returned when referenced record doesn't exist.
	ErrNotFound = errors.New("not found")
	// ErrForbidden is returned when caller doesn't own the record it tries to change.
	ErrForbidden = errors.New("forbidden")
	// ErrExpired is returned on vote after poll's end time.
	ErrExpired = errors.New("poll has ended")
	// ErrPersistence is returned when a durable write failed.
	ErrPersistence = errors.New("failed to persist")
)

// DefaultPollDuration is used when CreatePollParams.Duration is zero.
const DefaultPollDuration = 24 * time.Hour

// Service is the content store. All returned records are copies.
type Service interface {
	Restore(ctx context.Context) error
	Flush(ctx context.Context) error
	Backup(ctx context.Context) (*BackupResult, error)
	Stats(ctx context.Context) (*Stats, error)

	CreatePost(ctx context.Context, p *CreatePostParams) (*PostView, error)
	GetPosts(ctx context.Context) ([]*PostView, error)
	GetPost(ctx context.Context, id string) (*PostView, error)
	UpdatePost(ctx context.Context, id, caller, content string) (*PostView, error)
	DeletePost(ctx context.Context, id, caller string) error

	ToggleLike(ctx context.Context, postID, identity string) (int, bool, error)
	AddComment(ctx context.Context, p *AddCommentParams) (*entities.Comment, error)

	UpsertProfile(ctx context.Context, address string, p *ProfileParams) (*entities.Profile, error)
	GetProfile(ctx context.Context, address string) (*entities.Profile, error)
	ListProfiles(ctx context.Context) ([]*entities.Profile, error)

	CreatePoll(ctx context.Context, p *CreatePollParams) (*PollView, error)
	GetPolls(ctx context.Context) ([]*PollView, error)
	GetPoll(ctx context.Context, id string) (*PollView, error)
	Vote(ctx context.Context, pollID, identity string, optionID int) (*PollView, error)
	DeletePoll(ctx context.Context, id, caller string) error
}

// CreatePostParams ...
type CreatePostParams struct {
	ID          string
	Content     string
	Photo       *string
	Author      string
	Timestamp   time.Time // zero means now
	TxHash      *string
	BlockNumber *uint64
}

// AddCommentParams ...
type AddCommentParams struct {
	ID        string // empty means generated
	PostID    string
	Author    string
	Text      string
	Timestamp time.Time // zero means now
}

// ProfileParams ...
type ProfileParams struct {
	DisplayName  string
	ProfilePhoto *string
	Bio          string
	TxHash       *string
	BlockNumber  *uint64
	FeesPaid     *string
}

// CreatePollParams ...
type CreatePollParams struct {
	ID        string // empty means generated
	Question  string
	Options   []string
	Duration  time.Duration // zero means DefaultPollDuration
	EndTime   time.Time     // overrides Duration when set
	Author    string
	Timestamp time.Time // zero means now
	TxHash    *string
}

// PostView is a post enriched with its reactions, comments and author's profile.
type PostView struct {
	entities.Post
	Likes         int
	LikedBy       []string
	Comments      []entities.Comment
	AuthorProfile entities.Profile
}

// PollView is a poll enriched with author's profile and activity flag.
type PollView struct {
	entities.Poll
	AuthorProfile entities.Profile
	IsActive      bool
}

// Stats ...
type Stats struct {
	TotalPosts                int
	TotalLikes                int
	TotalComments             int
	TotalProfiles             int
	ActiveUsers               int
	TotalPolls                int
	ActivePolls               int
	TotalVotes                int
	ProfilesWithPhotos        int
	ProfilesWithBlockchainTx  int
	AveragePostsPerActiveUser float64
}

// BackupResult ...
type BackupResult struct {
	Name     string
	Posts    int
	Profiles int
	Polls    int
}
