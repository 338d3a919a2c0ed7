package server

import (
	"time"

	"github.com/monadsocial/agora/internal/entities"
	"github.com/monadsocial/agora/internal/service"
)

// Error ...
// swagger:model
type Error struct {
	Error string `json:"error"`
}

// Post ...
// swagger:model
type Post struct {
	ID            string    `json:"id"`
	Content       string    `json:"content"`
	Photo         *string   `json:"photo,omitempty"`
	Author        string    `json:"author"`
	CreatedAt     uint64    `json:"created_at"`
	UpdatedAt     *uint64   `json:"updated_at,omitempty"`
	IsEdited      bool      `json:"is_edited"`
	TxHash        *string   `json:"tx_hash,omitempty"`
	BlockNumber   *uint64   `json:"block_number,omitempty"`
	Likes         int       `json:"likes"`
	LikedBy       []string  `json:"liked_by"`
	CommentsCount int       `json:"comments_count"`
	Comments      []Comment `json:"comments"`
	Profile       Profile   `json:"profile"`
}

// Comment ...
type Comment struct {
	ID        string `json:"id"`
	PostID    string `json:"post_id"`
	Author    string `json:"author"`
	Text      string `json:"text"`
	CreatedAt uint64 `json:"created_at"`
}

// Profile ...
// swagger:model
type Profile struct {
	Address      string  `json:"address"`
	DisplayName  string  `json:"display_name"`
	ProfilePhoto *string `json:"profile_photo,omitempty"`
	Bio          string  `json:"bio"`
	JoinedAt     uint64  `json:"joined_at,omitempty"`
	UpdatedAt    uint64  `json:"updated_at,omitempty"`
	TxHash       *string `json:"tx_hash,omitempty"`
	BlockNumber  *uint64 `json:"block_number,omitempty"`
	FeesPaid     *string `json:"fees_paid,omitempty"`
}

// Poll ...
// swagger:model
type Poll struct {
	ID         string   `json:"id"`
	Question   string   `json:"question"`
	Options    []Option `json:"options"`
	Duration   int      `json:"duration"`
	EndsAt     uint64   `json:"ends_at"`
	Author     string   `json:"author"`
	TotalVotes int      `json:"total_votes"`
	CreatedAt  uint64   `json:"created_at"`
	TxHash     *string  `json:"tx_hash,omitempty"`
	IsActive   bool     `json:"is_active"`
	Profile    Profile  `json:"profile"`
}

// Option ...
type Option struct {
	ID         int      `json:"id"`
	Text       string   `json:"text"`
	Votes      int      `json:"votes"`
	Percentage int      `json:"percentage"`
	Voters     []string `json:"voters"`
}

// Stats ...
// swagger:model
type Stats struct {
	TotalPosts                int     `json:"total_posts"`
	TotalLikes                int     `json:"total_likes"`
	TotalComments             int     `json:"total_comments"`
	TotalProfiles             int     `json:"total_profiles"`
	ActiveUsers               int     `json:"active_users"`
	TotalPolls                int     `json:"total_polls"`
	ActivePolls               int     `json:"active_polls"`
	TotalVotes                int     `json:"total_votes"`
	ProfilesWithPhotos        int     `json:"profiles_with_photos"`
	ProfilesWithBlockchainTx  int     `json:"profiles_with_blockchain_tx"`
	AveragePostsPerActiveUser float64 `json:"average_posts_per_active_user"`
}

// BackupResponse ...
type BackupResponse struct {
	Name     string `json:"name"`
	Posts    int    `json:"posts"`
	Profiles int    `json:"profiles"`
	Polls    int    `json:"polls"`
}

// LikeResponse ...
type LikeResponse struct {
	Likes int  `json:"likes"`
	Liked bool `json:"liked"`
}

// CreatePostRequest ...
type CreatePostRequest struct {
	ID          string  `json:"id"`
	Content     string  `json:"content"`
	Photo       *string `json:"photo"`
	Author      string  `json:"author"`
	CreatedAt   uint64  `json:"created_at"`
	TxHash      *string `json:"tx_hash"`
	BlockNumber *uint64 `json:"block_number"`
}

// UpdatePostRequest ...
type UpdatePostRequest struct {
	User    string `json:"user"`
	Content string `json:"content"`
}

// UserRequest is a body of requests which only identify the caller.
type UserRequest struct {
	User string `json:"user"`
}

// AddCommentRequest ...
type AddCommentRequest struct {
	ID   string `json:"id"`
	User string `json:"user"`
	Text string `json:"text"`
}

// UpsertProfileRequest ...
type UpsertProfileRequest struct {
	DisplayName  string  `json:"display_name"`
	ProfilePhoto *string `json:"profile_photo"`
	Bio          string  `json:"bio"`
	TxHash       *string `json:"tx_hash"`
	BlockNumber  *uint64 `json:"block_number"`
	FeesPaid     *string `json:"fees_paid"`
}

// CreatePollRequest ...
type CreatePollRequest struct {
	ID       string   `json:"id"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
	// Duration in hours, defaults to 24, at most maxPollDurationHours.
	Duration int     `json:"duration"`
	Author   string  `json:"author"`
	TxHash   *string `json:"tx_hash"`
}

// VoteRequest ...
type VoteRequest struct {
	User     string `json:"user"`
	OptionID *int   `json:"option_id"`
}

func unix(t time.Time) uint64 {
	if t.IsZero() {
		return 0
	}
	return uint64(t.Unix())
}

func toAPIPost(p *service.PostView) Post {
	out := Post{
		ID:            p.ID,
		Content:       p.Content,
		Photo:         p.Photo,
		Author:        p.Author,
		CreatedAt:     unix(p.Timestamp),
		IsEdited:      p.IsEdited,
		TxHash:        p.TxHash,
		BlockNumber:   p.BlockNumber,
		Likes:         p.Likes,
		LikedBy:       p.LikedBy,
		CommentsCount: len(p.Comments),
		Comments:      make([]Comment, len(p.Comments)),
		Profile:       toAPIProfile(&p.AuthorProfile),
	}

	if p.UpdatedAt != nil {
		v := unix(*p.UpdatedAt)
		out.UpdatedAt = &v
	}

	if out.LikedBy == nil {
		out.LikedBy = []string{}
	}

	for i := range p.Comments {
		out.Comments[i] = toAPIComment(&p.Comments[i])
	}

	return out
}

func toAPIComment(c *entities.Comment) Comment {
	return Comment{
		ID:        c.ID,
		PostID:    c.PostID,
		Author:    c.Author,
		Text:      c.Text,
		CreatedAt: unix(c.Timestamp),
	}
}

func toAPIProfile(p *entities.Profile) Profile {
	return Profile{
		Address:      p.Address,
		DisplayName:  p.DisplayName,
		ProfilePhoto: p.ProfilePhoto,
		Bio:          p.Bio,
		JoinedAt:     unix(p.JoinedDate),
		UpdatedAt:    unix(p.UpdatedDate),
		TxHash:       p.TxHash,
		BlockNumber:  p.BlockNumber,
		FeesPaid:     p.FeesPaid,
	}
}

func toAPIPoll(p *service.PollView) Poll {
	out := Poll{
		ID:         p.ID,
		Question:   p.Question,
		Options:    make([]Option, len(p.Options)),
		Duration:   p.Duration,
		EndsAt:     unix(p.EndTime),
		Author:     p.Author,
		TotalVotes: p.TotalVotes,
		CreatedAt:  unix(p.Timestamp),
		TxHash:     p.TxHash,
		IsActive:   p.IsActive,
		Profile:    toAPIProfile(&p.AuthorProfile),
	}

	for i, o := range p.Options {
		out.Options[i] = Option{
			ID:         o.ID,
			Text:       o.Text,
			Votes:      o.Votes,
			Percentage: o.Percentage,
			Voters:     o.Voters,
		}
		if out.Options[i].Voters == nil {
			out.Options[i].Voters = []string{}
		}
	}

	return out
}

func toAPIStats(s *service.Stats) Stats {
	return Stats{
		TotalPosts:                s.TotalPosts,
		TotalLikes:                s.TotalLikes,
		TotalComments:             s.TotalComments,
		TotalProfiles:             s.TotalProfiles,
		ActiveUsers:               s.ActiveUsers,
		TotalPolls:                s.TotalPolls,
		ActivePolls:               s.ActivePolls,
		TotalVotes:                s.TotalVotes,
		ProfilesWithPhotos:        s.ProfilesWithPhotos,
		ProfilesWithBlockchainTx:  s.ProfilesWithBlockchainTx,
		AveragePostsPerActiveUser: s.AveragePostsPerActiveUser,
	}
}
