package impl

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/monadsocial/agora/internal/entities"
	"github.com/monadsocial/agora/internal/guard"
	"github.com/monadsocial/agora/internal/service"
	"github.com/monadsocial/agora/internal/storage"
	"github.com/monadsocial/agora/internal/tally"
)

// CreatePoll stores a new poll. The call fails with ErrPersistence when poll can't be written to storage,
// the poll stays in memory in that case and will be written by autosave.
func (s *srv) CreatePoll(ctx context.Context, p *service.CreatePollParams) (*service.PollView, error) {
	question := strings.TrimSpace(p.Question)
	author := strings.TrimSpace(p.Author)

	switch {
	case question == "":
		return nil, fmt.Errorf("%w: question is required", service.ErrValidation)
	case author == "":
		return nil, fmt.Errorf("%w: author is required", service.ErrValidation)
	case p.Duration < 0:
		return nil, fmt.Errorf("%w: duration must be positive", service.ErrValidation)
	}

	options, err := tally.NewOptions(p.Options)
	if err != nil {
		return nil, fmt.Errorf("%w: at least %d non-empty options are required", service.ErrValidation, tally.MinOptions)
	}

	poll := entities.Poll{
		ID:        p.ID,
		Question:  question,
		Options:   options,
		EndTime:   p.EndTime,
		Author:    author,
		Timestamp: p.Timestamp,
		TxHash:    copyString(p.TxHash),
	}
	if poll.ID == "" {
		poll.ID = s.newID()
	}
	if poll.Timestamp.IsZero() {
		poll.Timestamp = s.now()
	}

	d := p.Duration
	if d == 0 {
		d = service.DefaultPollDuration
	}
	if poll.EndTime.IsZero() {
		poll.EndTime = poll.Timestamp.Add(d)
	} else {
		d = poll.EndTime.Sub(poll.Timestamp)
	}
	poll.Duration = int(d.Hours())

	s.mu.Lock()
	if s.pollIndex(poll.ID) >= 0 {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: poll %s already exists", service.ErrValidation, poll.ID)
	}

	s.polls = append([]entities.Poll{poll}, s.polls...)
	view := s.pollView(poll)
	s.mu.Unlock()

	if err := s.persist(ctx, storage.PollsCollection); err != nil {
		return nil, err
	}

	log.WithField("poll", poll.ID).WithField("options", len(options)).Info("poll created")

	return view, nil
}

func (s *srv) GetPolls(_ context.Context) ([]*service.PollView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*service.PollView, len(s.polls))
	for i, p := range s.polls {
		out[i] = s.pollView(p)
	}

	return out, nil
}

func (s *srv) GetPoll(_ context.Context, id string) (*service.PollView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.pollIndex(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: poll %s", service.ErrNotFound, id)
	}

	return s.pollView(s.polls[i]), nil
}

// Vote records identity's vote for option optionID. A voter who already voted has the vote moved.
func (s *srv) Vote(ctx context.Context, pollID, identity string, optionID int) (*service.PollView, error) {
	identity = guard.Normalize(identity)
	if identity == "" {
		return nil, fmt.Errorf("%w: user is required", service.ErrValidation)
	}

	s.mu.Lock()
	i := s.pollIndex(pollID)
	if i < 0 {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: poll %s", service.ErrNotFound, pollID)
	}

	if !s.polls[i].IsActive(s.now()) {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: poll %s", service.ErrExpired, pollID)
	}

	poll := copyPoll(s.polls[i])
	if err := tally.Vote(&poll, identity, optionID); err != nil {
		s.mu.Unlock()
		if errors.Is(err, tally.ErrInvalidOption) {
			return nil, fmt.Errorf("%w: invalid option %d", service.ErrValidation, optionID)
		}
		return nil, err
	}

	s.polls[i] = poll
	view := s.pollView(poll)
	s.mu.Unlock()

	if err := s.persist(ctx, storage.PollsCollection); err != nil {
		return nil, err
	}

	log.WithField("poll", pollID).WithField("option", optionID).Debug("vote recorded")

	return view, nil
}

func (s *srv) DeletePoll(ctx context.Context, id, caller string) error {
	if guard.Normalize(caller) == "" {
		return fmt.Errorf("%w: caller is required", service.ErrValidation)
	}

	s.mu.Lock()
	i := s.pollIndex(id)
	if i < 0 {
		s.mu.Unlock()
		return fmt.Errorf("%w: poll %s", service.ErrNotFound, id)
	}

	if !guard.Authorize(s.polls[i], caller) {
		s.mu.Unlock()
		return fmt.Errorf("%w: can only delete own polls", service.ErrForbidden)
	}

	s.polls = append(s.polls[:i:i], s.polls[i+1:]...)
	s.mu.Unlock()

	if err := s.persist(ctx, storage.PollsCollection); err != nil {
		return err
	}

	log.WithField("poll", id).Info("poll deleted")

	return nil
}
