package impl

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monadsocial/agora/internal/service"
	"github.com/monadsocial/agora/internal/storage"
)

func createPoll(t *testing.T, s *srv, options ...string) *service.PollView {
	p, err := s.CreatePoll(ctx, &service.CreatePollParams{
		Question: "which?",
		Options:  options,
		Author:   "0xAA",
	})
	require.NoError(t, err)

	return p
}

func optionVotes(p *service.PollView) []int {
	out := make([]int, len(p.Options))
	for i, o := range p.Options {
		out[i] = o.Votes
	}
	return out
}

func optionPercentages(p *service.PollView) []int {
	out := make([]int, len(p.Options))
	for i, o := range p.Options {
		out[i] = o.Percentage
	}
	return out
}

func TestSrv_CreatePoll(t *testing.T) {
	end := now.Add(3 * time.Hour)

	tt := []struct {
		name     string
		p        service.CreatePollParams
		options  []string
		endTime  time.Time
		duration int
		err      error
	}{
		{
			name:     "default duration",
			p:        service.CreatePollParams{Question: "q", Options: []string{"a", "b"}, Author: "0xAA"},
			options:  []string{"a", "b"},
			endTime:  now.Add(24 * time.Hour),
			duration: 24,
		},
		{
			name:     "duration",
			p:        service.CreatePollParams{Question: "q", Options: []string{"a", "b", "c"}, Author: "0xAA", Duration: 2 * time.Hour},
			options:  []string{"a", "b", "c"},
			endTime:  now.Add(2 * time.Hour),
			duration: 2,
		},
		{
			name:     "explicit end time",
			p:        service.CreatePollParams{Question: "q", Options: []string{"a", "b"}, Author: "0xAA", Duration: time.Hour, EndTime: end},
			options:  []string{"a", "b"},
			endTime:  end,
			duration: 3,
		},
		{
			name:     "blank options dropped",
			p:        service.CreatePollParams{Question: "q", Options: []string{"a", " ", "", "b"}, Author: "0xAA"},
			options:  []string{"a", "b"},
			endTime:  now.Add(24 * time.Hour),
			duration: 24,
		},
		{
			name: "not enough options",
			p:    service.CreatePollParams{Question: "q", Options: []string{"a", " "}, Author: "0xAA"},
			err:  service.ErrValidation,
		},
		{
			name: "no question",
			p:    service.CreatePollParams{Options: []string{"a", "b"}, Author: "0xAA"},
			err:  service.ErrValidation,
		},
		{
			name: "no author",
			p:    service.CreatePollParams{Question: "q", Options: []string{"a", "b"}},
			err:  service.ErrValidation,
		},
		{
			name: "negative duration",
			p:    service.CreatePollParams{Question: "q", Options: []string{"a", "b"}, Author: "0xAA", Duration: -time.Hour},
			err:  service.ErrValidation,
		},
	}

	for i := range tt {
		tc := tt[i]

		t.Run(tc.name, func(t *testing.T) {
			s, st := newTestSrv(t)
			if tc.err == nil {
				st.EXPECT().Save(gomock.Any(), storage.PollsCollection, gomock.Any()).Return(nil)
			}

			p, err := s.CreatePoll(ctx, &tc.p)
			if tc.err != nil {
				require.True(t, errors.Is(err, tc.err))
				require.Empty(t, s.polls)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "gen-1", p.ID)
			assert.Equal(t, now, p.Timestamp)
			assert.Equal(t, tc.endTime, p.EndTime)
			assert.Equal(t, tc.duration, p.Duration)
			assert.True(t, p.IsActive)
			assert.Zero(t, p.TotalVotes)
			assert.Equal(t, "User 0xaa", p.AuthorProfile.DisplayName)

			require.Len(t, p.Options, len(tc.options))
			for i, o := range p.Options {
				assert.Equal(t, i, o.ID)
				assert.Equal(t, tc.options[i], o.Text)
				assert.Zero(t, o.Votes)
				assert.Zero(t, o.Percentage)
				assert.Empty(t, o.Voters)
			}
		})
	}
}

func TestSrv_CreatePoll_PersistenceFailure(t *testing.T) {
	s, st := newTestSrv(t)
	st.EXPECT().Save(gomock.Any(), storage.PollsCollection, gomock.Any()).Return(errors.New("disk full"))

	_, err := s.CreatePoll(ctx, &service.CreatePollParams{Question: "q", Options: []string{"a", "b"}, Author: "0xAA"})
	require.True(t, errors.Is(err, service.ErrPersistence))

	// the poll is kept and will be written by the next flush
	polls, err := s.GetPolls(ctx)
	require.NoError(t, err)
	require.Len(t, polls, 1)
}

func TestSrv_Vote(t *testing.T) {
	s, st := newTestSrv(t)
	allowSaves(st)

	p := createPoll(t, s, "A", "B")

	p, err := s.Vote(ctx, p.ID, "0xX", 0)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0}, optionVotes(p))
	assert.Equal(t, []int{100, 0}, optionPercentages(p))
	assert.Equal(t, 1, p.TotalVotes)

	p, err = s.Vote(ctx, p.ID, "0xx", 1)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, optionVotes(p))
	assert.Equal(t, []int{0, 100}, optionPercentages(p))
	assert.Equal(t, 1, p.TotalVotes)
	assert.Equal(t, []string{"0xx"}, p.Options[1].Voters)

	p, err = s.Vote(ctx, p.ID, "0xY", 0)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 1}, optionVotes(p))
	assert.Equal(t, []int{50, 50}, optionPercentages(p))
	assert.Equal(t, 2, p.TotalVotes)

	p, err = s.Vote(ctx, p.ID, "0xZ", 0)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 1}, optionVotes(p))
	assert.Equal(t, []int{67, 33}, optionPercentages(p))
	assert.Equal(t, 3, p.TotalVotes)

	// same vote twice changes nothing
	p, err = s.Vote(ctx, p.ID, "0xZ", 0)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 1}, optionVotes(p))
}

func TestSrv_Vote_Errors(t *testing.T) {
	s, st := newTestSrv(t)
	allowSaves(st)

	p := createPoll(t, s, "A", "B")
	_, err := s.Vote(ctx, p.ID, "0xX", 0)
	require.NoError(t, err)

	tt := []struct {
		name     string
		id       string
		identity string
		option   int
		err      error
	}{
		{name: "not found", id: "missing", identity: "0xX", option: 0, err: service.ErrNotFound},
		{name: "option out of range", id: p.ID, identity: "0xX", option: 2, err: service.ErrValidation},
		{name: "negative option", id: p.ID, identity: "0xX", option: -1, err: service.ErrValidation},
		{name: "empty identity", id: p.ID, identity: " ", option: 1, err: service.ErrValidation},
	}

	for i := range tt {
		tc := tt[i]

		t.Run(tc.name, func(t *testing.T) {
			_, err := s.Vote(ctx, tc.id, tc.identity, tc.option)
			require.True(t, errors.Is(err, tc.err))

			// previous vote is kept
			got, err := s.GetPoll(ctx, p.ID)
			require.NoError(t, err)
			assert.Equal(t, []int{1, 0}, optionVotes(got))
		})
	}
}

func TestSrv_Vote_Expired(t *testing.T) {
	s, st := newTestSrv(t)
	allowSaves(st)

	p, err := s.CreatePoll(ctx, &service.CreatePollParams{
		Question: "q",
		Options:  []string{"a", "b"},
		Author:   "0xAA",
		Duration: time.Hour,
	})
	require.NoError(t, err)

	s.now = func() time.Time { return p.EndTime }

	_, err = s.Vote(ctx, p.ID, "0xX", 0)
	require.True(t, errors.Is(err, service.ErrExpired))

	got, err := s.GetPoll(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	assert.Zero(t, got.TotalVotes)
}

func TestSrv_Vote_PersistenceFailure(t *testing.T) {
	s, st := newTestSrv(t)
	st.EXPECT().Save(gomock.Any(), storage.PollsCollection, gomock.Any()).Return(nil)

	p := createPoll(t, s, "A", "B")

	st.EXPECT().Save(gomock.Any(), storage.PollsCollection, gomock.Any()).Return(errors.New("disk full"))

	_, err := s.Vote(ctx, p.ID, "0xX", 1)
	require.True(t, errors.Is(err, service.ErrPersistence))

	got, err := s.GetPoll(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, optionVotes(got))
}

func TestSrv_Vote_Concurrent(t *testing.T) {
	s, st := newTestSrv(t)
	allowSaves(st)

	p := createPoll(t, s, "A", "B", "C")

	const voters = 60

	var wg sync.WaitGroup
	for i := 0; i < voters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// every voter votes twice, only the last vote counts
			_, err := s.Vote(ctx, p.ID, fmt.Sprintf("0x%d", i), (i+1)%3)
			assert.NoError(t, err)
			_, err = s.Vote(ctx, p.ID, fmt.Sprintf("0x%d", i), i%3)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	got, err := s.GetPoll(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, voters, got.TotalVotes)
	assert.Equal(t, []int{20, 20, 20}, optionVotes(got))
	assert.Equal(t, []int{33, 33, 33}, optionPercentages(got))
}

func TestSrv_GetPolls(t *testing.T) {
	s, st := newTestSrv(t)
	allowSaves(st)

	first := createPoll(t, s, "a", "b")
	second := createPoll(t, s, "c", "d")

	polls, err := s.GetPolls(ctx)
	require.NoError(t, err)
	require.Len(t, polls, 2)
	assert.Equal(t, second.ID, polls[0].ID)
	assert.Equal(t, first.ID, polls[1].ID)

	polls[0].Options[0].Voters = append(polls[0].Options[0].Voters, "0xhack")

	got, err := s.GetPoll(ctx, second.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Options[0].Voters)

	_, err = s.GetPoll(ctx, "missing")
	require.True(t, errors.Is(err, service.ErrNotFound))
}

func TestSrv_DeletePoll(t *testing.T) {
	s, st := newTestSrv(t)
	allowSaves(st)

	p := createPoll(t, s, "a", "b")

	require.True(t, errors.Is(s.DeletePoll(ctx, p.ID, "0xBB"), service.ErrForbidden))
	require.True(t, errors.Is(s.DeletePoll(ctx, p.ID, ""), service.ErrValidation))
	require.True(t, errors.Is(s.DeletePoll(ctx, "missing", "0xAA"), service.ErrNotFound))

	require.NoError(t, s.DeletePoll(ctx, p.ID, "0xaa"))

	_, err := s.GetPoll(ctx, p.ID)
	require.True(t, errors.Is(err, service.ErrNotFound))
}

func TestSrv_DeletePoll_PersistenceFailure(t *testing.T) {
	s, st := newTestSrv(t)
	st.EXPECT().Save(gomock.Any(), storage.PollsCollection, gomock.Any()).Return(nil)

	p := createPoll(t, s, "a", "b")

	st.EXPECT().Save(gomock.Any(), storage.PollsCollection, gomock.Any()).Return(errors.New("disk full"))

	require.True(t, errors.Is(s.DeletePoll(ctx, p.ID, "0xAA"), service.ErrPersistence))
	require.Empty(t, s.polls)
}
