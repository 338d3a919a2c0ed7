package impl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/monadsocial/agora/internal/entities"
	"github.com/monadsocial/agora/internal/metrics"
	"github.com/monadsocial/agora/internal/service"
	"github.com/monadsocial/agora/internal/storage"
	"github.com/monadsocial/agora/internal/tally"
)

type backupDTO struct {
	Posts     []entities.Post               `json:"posts"`
	Profiles  map[string]entities.Profile   `json:"profiles"`
	Reactions map[string]entities.Reaction  `json:"reactions"`
	Comments  map[string][]entities.Comment `json:"comments"`
	Polls     []entities.Poll               `json:"polls"`
	Timestamp time.Time                     `json:"timestamp"`
}

func encode(v interface{}) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

// encodeLocked must be called under mu.
func (s *srv) encodeLocked(c storage.Collection) ([]byte, error) {
	switch c {
	case storage.PostsCollection:
		return encode(s.posts)
	case storage.ProfilesCollection:
		return encode(s.profiles)
	case storage.ReactionsCollection:
		return encode(s.reactions)
	case storage.CommentsCollection:
		return encode(s.comments)
	case storage.PollsCollection:
		return encode(s.polls)
	default:
		return nil, fmt.Errorf("unknown collection %s", c)
	}
}

// sizeLocked must be called under mu.
func (s *srv) sizeLocked(c storage.Collection) int {
	switch c {
	case storage.PostsCollection:
		return len(s.posts)
	case storage.ProfilesCollection:
		return len(s.profiles)
	case storage.ReactionsCollection:
		return len(s.reactions)
	case storage.CommentsCollection:
		return len(s.comments)
	case storage.PollsCollection:
		return len(s.polls)
	default:
		return 0
	}
}

// persist writes snapshots of given collections. Data is copied under read lock after writeMu is taken,
// so a later write never stores older state than an earlier one. Failure of one collection doesn't stop others.
func (s *srv) persist(ctx context.Context, cc ...storage.Collection) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	data := make(map[storage.Collection][]byte, len(cc))
	failed := 0

	s.mu.RLock()
	for _, c := range cc {
		b, err := s.encodeLocked(c)
		if err != nil {
			log.WithError(err).WithField("collection", c).Error("failed to encode snapshot")
			failed++
			continue
		}
		data[c] = b
		metrics.CollectionSize.WithLabelValues(string(c)).Set(float64(s.sizeLocked(c)))
	}
	s.mu.RUnlock()

	for _, c := range cc {
		b, ok := data[c]
		if !ok {
			continue
		}

		err := s.s.Save(ctx, c, b)
		metrics.ObserveWrite(c, err)
		if err != nil {
			log.WithError(err).WithField("collection", c).Error("failed to save snapshot")
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%w: %d/%d collections failed to save", service.ErrPersistence, failed, len(cc))
	}

	return nil
}

// persistBestEffort is used by operations which stay successful when durable write fails.
// Data will be written on the next autosave.
func (s *srv) persistBestEffort(ctx context.Context, cc ...storage.Collection) {
	if err := s.persist(ctx, cc...); err != nil {
		log.WithError(err).Warn("immediate save failed, relying on autosave")
	}
}

func (s *srv) Flush(ctx context.Context) error {
	defer metrics.TrackFlush()()

	err := s.persist(ctx, storage.Collections...)
	if err != nil {
		log.WithError(err).Error("some collections failed to save, check disk space and permissions")
		return err
	}

	log.WithField("collections", len(storage.Collections)).Debug("flush completed")

	return nil
}

func load(ctx context.Context, st storage.Storage, c storage.Collection, out interface{}) error {
	b, err := st.Load(ctx, c)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			log.WithField("collection", c).Info("snapshot not found, starting empty")
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", c, err)
	}

	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("failed to decode %s: %w", c, err)
	}

	return nil
}

func (s *srv) Restore(ctx context.Context) error {
	posts := []entities.Post{}
	profiles := map[string]entities.Profile{}
	reactions := map[string]entities.Reaction{}
	comments := map[string][]entities.Comment{}
	polls := []entities.Poll{}

	for c, out := range map[storage.Collection]interface{}{
		storage.PostsCollection:     &posts,
		storage.ProfilesCollection:  &profiles,
		storage.ReactionsCollection: &reactions,
		storage.CommentsCollection:  &comments,
		storage.PollsCollection:     &polls,
	} {
		if err := load(ctx, s.s, c, out); err != nil {
			return err
		}
	}

	// snapshots may hold null instead of empty collections
	if posts == nil {
		posts = []entities.Post{}
	}
	if profiles == nil {
		profiles = map[string]entities.Profile{}
	}
	if reactions == nil {
		reactions = map[string]entities.Reaction{}
	}
	if comments == nil {
		comments = map[string][]entities.Comment{}
	}
	if polls == nil {
		polls = []entities.Poll{}
	}

	// derived fields are recomputed from authoritative sets
	for k, v := range reactions {
		v.LikedBy = uniqueStrings(v.LikedBy)
		v.Likes = len(v.LikedBy)
		reactions[k] = v
	}
	for i := range polls {
		tally.Dedup(&polls[i])
		tally.Recount(&polls[i])
	}

	s.mu.Lock()
	s.posts, s.profiles, s.reactions, s.comments, s.polls = posts, profiles, reactions, comments, polls
	s.mu.Unlock()

	log.WithFields(map[string]interface{}{
		"posts":    len(posts),
		"profiles": len(profiles),
		"polls":    len(polls),
	}).Info("collections restored")

	return nil
}

func (s *srv) Backup(ctx context.Context) (*service.BackupResult, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	now := s.now()
	name := storage.BackupCollection(now)

	s.mu.RLock()
	b, err := encode(backupDTO{
		Posts:     s.posts,
		Profiles:  s.profiles,
		Reactions: s.reactions,
		Comments:  s.comments,
		Polls:     s.polls,
		Timestamp: now,
	})
	res := service.BackupResult{
		Name:     string(name),
		Posts:    len(s.posts),
		Profiles: len(s.profiles),
		Polls:    len(s.polls),
	}
	s.mu.RUnlock()

	if err != nil {
		return nil, fmt.Errorf("failed to encode backup: %w", err)
	}

	err = s.s.Save(ctx, name, b)
	metrics.ObserveWrite("backup", err)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to save backup: %s", service.ErrPersistence, err.Error())
	}

	log.WithField("backup", name).Info("backup created")

	return &res, nil
}

func uniqueStrings(s []string) []string {
	m := make(map[string]struct{}, len(s))
	out := make([]string, 0, len(s))

	for _, v := range s {
		if _, ok := m[v]; !ok {
			m[v] = struct{}{}
			out = append(out, v)
		}
	}

	return out
}
