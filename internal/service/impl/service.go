// Package impl is implementation of service interface.
package impl

import (
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/monadsocial/agora/internal/entities"
	"github.com/monadsocial/agora/internal/guard"
	"github.com/monadsocial/agora/internal/service"
	"github.com/monadsocial/agora/internal/storage"
)

var log = logrus.WithField("layer", "service").WithField("package", "impl")

// srv keeps all five collections in memory; mu guards them.
// writeMu serializes durable writes which are performed outside of mu.
type srv struct {
	s storage.Storage

	now   func() time.Time
	newID func() string

	mu        sync.RWMutex
	posts     []entities.Post // newest first
	profiles  map[string]entities.Profile
	reactions map[string]entities.Reaction
	comments  map[string][]entities.Comment
	polls     []entities.Poll // newest first

	writeMu sync.Mutex
}

// New creates new instance of service with empty collections. Call Restore to load snapshots.
func New(s storage.Storage) service.Service {
	return newSrv(s)
}

func newSrv(s storage.Storage) *srv {
	return &srv{
		s:     s,
		now:   func() time.Time { return time.Now().UTC() },
		newID: func() string { return uuid.New().String() },

		posts:     []entities.Post{},
		profiles:  map[string]entities.Profile{},
		reactions: map[string]entities.Reaction{},
		comments:  map[string][]entities.Comment{},
		polls:     []entities.Poll{},
	}
}

// DefaultDisplayName returns name shown for identities without a profile.
func DefaultDisplayName(address string) string {
	if n := utf8.RuneCountInString(address); n > 4 {
		address = string([]rune(address)[n-4:])
	}

	return "User " + address
}

// profileOf must be called under mu.
func (s *srv) profileOf(address string) entities.Profile {
	address = guard.Normalize(address)
	if p, ok := s.profiles[address]; ok {
		return copyProfile(p)
	}

	return entities.Profile{
		Address:     address,
		DisplayName: DefaultDisplayName(address),
	}
}

// displayName must be called under mu.
func (s *srv) displayName(address string) string {
	return s.profileOf(address).DisplayName
}

func (s *srv) postIndex(id string) int {
	for i := range s.posts {
		if s.posts[i].ID == id {
			return i
		}
	}

	return -1
}

func (s *srv) pollIndex(id string) int {
	for i := range s.polls {
		if s.polls[i].ID == id {
			return i
		}
	}

	return -1
}

func copyString(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func copyUint64(v *uint64) *uint64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func copyTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func copyStrings(v []string) []string {
	return append(make([]string, 0, len(v)), v...)
}

func copyPost(p entities.Post) entities.Post {
	p.Photo = copyString(p.Photo)
	p.TxHash = copyString(p.TxHash)
	p.BlockNumber = copyUint64(p.BlockNumber)
	p.UpdatedAt = copyTime(p.UpdatedAt)
	return p
}

func copyProfile(p entities.Profile) entities.Profile {
	p.ProfilePhoto = copyString(p.ProfilePhoto)
	p.TxHash = copyString(p.TxHash)
	p.BlockNumber = copyUint64(p.BlockNumber)
	p.FeesPaid = copyString(p.FeesPaid)
	return p
}

func copyReaction(r entities.Reaction) entities.Reaction {
	r.LikedBy = copyStrings(r.LikedBy)
	return r
}

func copyComments(c []entities.Comment) []entities.Comment {
	return append(make([]entities.Comment, 0, len(c)), c...)
}

func copyPoll(p entities.Poll) entities.Poll {
	options := make([]entities.Option, len(p.Options))
	for i, o := range p.Options {
		o.Voters = copyStrings(o.Voters)
		options[i] = o
	}
	p.Options = options
	p.TxHash = copyString(p.TxHash)
	return p
}

// postView must be called under mu.
func (s *srv) postView(p entities.Post) *service.PostView {
	r := s.reactions[p.ID]

	return &service.PostView{
		Post:          copyPost(p),
		Likes:         r.Likes,
		LikedBy:       copyStrings(r.LikedBy),
		Comments:      copyComments(s.comments[p.ID]),
		AuthorProfile: s.profileOf(p.Author),
	}
}

// pollView must be called under mu.
func (s *srv) pollView(p entities.Poll) *service.PollView {
	return &service.PollView{
		Poll:          copyPoll(p),
		AuthorProfile: s.profileOf(p.Author),
		IsActive:      p.IsActive(s.now()),
	}
}
