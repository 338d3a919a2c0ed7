package tally

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monadsocial/agora/internal/entities"
)

func newPoll(t *testing.T, options ...string) *entities.Poll {
	o, err := NewOptions(options)
	require.NoError(t, err)

	return &entities.Poll{ID: "poll", Options: o}
}

func TestNewOptions(t *testing.T) {
	o, err := NewOptions([]string{"A", " ", "B ", ""})
	require.NoError(t, err)
	require.Equal(t, []entities.Option{
		{ID: 0, Text: "A", Voters: []string{}},
		{ID: 1, Text: "B", Voters: []string{}},
	}, o)

	_, err = NewOptions([]string{"A", "  "})
	require.Equal(t, ErrNotEnoughOptions, err)

	_, err = NewOptions(nil)
	require.Equal(t, ErrNotEnoughOptions, err)
}

func TestVote_Change(t *testing.T) {
	p := newPoll(t, "A", "B")

	require.NoError(t, Vote(p, "0xcc", 0))
	assert.Equal(t, 1, p.Options[0].Votes)
	assert.Equal(t, 100, p.Options[0].Percentage)
	assert.Equal(t, 1, p.TotalVotes)

	require.NoError(t, Vote(p, "0xcc", 1))
	assert.Equal(t, 0, p.Options[0].Votes)
	assert.Equal(t, 0, p.Options[0].Percentage)
	assert.Equal(t, 1, p.Options[1].Votes)
	assert.Equal(t, 100, p.Options[1].Percentage)
	assert.Equal(t, 1, p.TotalVotes)
	assert.Empty(t, p.Options[0].Voters)
	assert.Equal(t, []string{"0xcc"}, p.Options[1].Voters)
}

func TestVote_Same(t *testing.T) {
	p := newPoll(t, "A", "B")

	require.NoError(t, Vote(p, "0xcc", 1))
	require.NoError(t, Vote(p, "0xcc", 1))

	assert.Equal(t, []string{"0xcc"}, p.Options[1].Voters)
	assert.Equal(t, 1, p.TotalVotes)
}

func TestVote_InvalidOption(t *testing.T) {
	p := newPoll(t, "A", "B")
	require.NoError(t, Vote(p, "0xcc", 0))

	require.Equal(t, ErrInvalidOption, Vote(p, "0xcc", 2))
	require.Equal(t, ErrInvalidOption, Vote(p, "0xcc", -1))

	// failed vote must not withdraw the previous one
	id, ok := VoterOf(*p, "0xcc")
	require.True(t, ok)
	require.Equal(t, 0, id)
}

func TestPercentage(t *testing.T) {
	tt := []struct {
		votes, total, expected int
	}{
		{0, 0, 0},
		{1, 1, 100},
		{1, 2, 50},
		{1, 3, 33},
		{2, 3, 67},
		{1, 8, 13},
		{5, 7, 71},
	}

	for _, tc := range tt {
		assert.Equal(t, tc.expected, Percentage(tc.votes, tc.total), "%d/%d", tc.votes, tc.total)
	}
}

func TestVote_Invariants(t *testing.T) {
	p := newPoll(t, "A", "B", "C")
	r := rand.New(rand.NewSource(42))

	for i := 0; i < 1000; i++ {
		require.NoError(t, Vote(p, fmt.Sprintf("0x%02d", r.Intn(25)), r.Intn(3)))

		seen := map[string]bool{}
		sum, pct := 0, 0
		for _, o := range p.Options {
			require.Equal(t, len(o.Voters), o.Votes)
			sum += o.Votes
			pct += o.Percentage
			for _, v := range o.Voters {
				require.False(t, seen[v], "voter %s voted twice", v)
				seen[v] = true
			}
		}

		require.Equal(t, p.TotalVotes, sum)
		require.True(t, pct >= 99 && pct <= 101, "percentages sum is %d", pct)
	}
}

func TestDedup(t *testing.T) {
	p := newPoll(t, "a", "b", "c")
	p.Options[0].Voters = []string{"0x1"}
	p.Options[1].Voters = []string{"0x1", "0x2", "0x2"}
	p.Options[2].Voters = []string{"0x3", "0x1"}

	Dedup(p)
	Recount(p)

	assert.Equal(t, []string{"0x1"}, p.Options[0].Voters)
	assert.Equal(t, []string{"0x2"}, p.Options[1].Voters)
	assert.Equal(t, []string{"0x3"}, p.Options[2].Voters)
	assert.Equal(t, 3, p.TotalVotes)
}
