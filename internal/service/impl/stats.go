package impl

import (
	"context"
	"math"

	"github.com/monadsocial/agora/internal/guard"
	"github.com/monadsocial/agora/internal/service"
)

func (s *srv) Stats(_ context.Context) (*service.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := s.now()
	authors := make(map[string]struct{})

	var res service.Stats

	res.TotalPosts = len(s.posts)
	for _, p := range s.posts {
		authors[guard.Normalize(p.Author)] = struct{}{}
	}
	res.ActiveUsers = len(authors)

	for _, r := range s.reactions {
		res.TotalLikes += r.Likes
	}
	for _, c := range s.comments {
		res.TotalComments += len(c)
	}

	res.TotalProfiles = len(s.profiles)
	for _, p := range s.profiles {
		if p.ProfilePhoto != nil && *p.ProfilePhoto != "" {
			res.ProfilesWithPhotos++
		}
		if p.TxHash != nil && *p.TxHash != "" {
			res.ProfilesWithBlockchainTx++
		}
	}

	res.TotalPolls = len(s.polls)
	for _, p := range s.polls {
		if p.IsActive(now) {
			res.ActivePolls++
		}
		res.TotalVotes += p.TotalVotes
	}

	if res.ActiveUsers > 0 {
		avg := float64(res.TotalPosts) / float64(res.ActiveUsers)
		res.AveragePostsPerActiveUser = math.Round(avg*100) / 100
	}

	return &res, nil
}
