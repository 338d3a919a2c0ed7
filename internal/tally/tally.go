// Package tally keeps poll results consistent with voter sets.
package tally

import (
	"errors"
	"strings"

	"github.com/monadsocial/agora/internal/entities"
)

// ErrInvalidOption is returned when option id doesn't point to an option of the poll.
var ErrInvalidOption = errors.New("invalid option")

// ErrNotEnoughOptions is returned when less than MinOptions non-empty options are given.
var ErrNotEnoughOptions = errors.New("not enough options")

// MinOptions is the least number of options a poll can have.
const MinOptions = 2

// NewOptions builds zeroed options from their texts. Blank texts are skipped and ids are
// assigned in the order of remaining options.
func NewOptions(texts []string) ([]entities.Option, error) {
	out := make([]entities.Option, 0, len(texts))

	for _, v := range texts {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}

		out = append(out, entities.Option{
			ID:     len(out),
			Text:   v,
			Voters: []string{},
		})
	}

	if len(out) < MinOptions {
		return nil, ErrNotEnoughOptions
	}

	return out, nil
}

// Vote moves voter's single vote to option optionID. Previous vote of the voter, if any, is withdrawn,
// so every voter stays in at most one option of the poll.
func Vote(p *entities.Poll, voter string, optionID int) error {
	if optionID < 0 || optionID >= len(p.Options) {
		return ErrInvalidOption
	}

	for i := range p.Options {
		p.Options[i].Voters = without(p.Options[i].Voters, voter)
	}

	p.Options[optionID].Voters = append(p.Options[optionID].Voters, voter)

	Recount(p)

	return nil
}

// Recount derives votes, total and percentages from voter sets.
// Percentages are always computed from scratch to avoid rounding drift.
func Recount(p *entities.Poll) {
	total := 0
	for i := range p.Options {
		p.Options[i].Votes = len(p.Options[i].Voters)
		total += p.Options[i].Votes
	}

	p.TotalVotes = total

	for i := range p.Options {
		p.Options[i].Percentage = Percentage(p.Options[i].Votes, total)
	}
}

// Percentage returns votes/total*100 rounded half up, or 0 when there are no votes.
func Percentage(votes, total int) int {
	if total <= 0 {
		return 0
	}

	return (votes*200 + total) / (total * 2)
}

// Dedup keeps only the first vote of every voter across all options of the poll.
func Dedup(p *entities.Poll) {
	seen := make(map[string]struct{})

	for i := range p.Options {
		voters := make([]string, 0, len(p.Options[i].Voters))
		for _, v := range p.Options[i].Voters {
			if _, ok := seen[v]; ok {
				continue
			}
			seen[v] = struct{}{}
			voters = append(voters, v)
		}
		p.Options[i].Voters = voters
	}
}

// VoterOf returns id of the option voter voted for.
func VoterOf(p entities.Poll, voter string) (int, bool) {
	for _, o := range p.Options {
		for _, v := range o.Voters {
			if v == voter {
				return o.ID, true
			}
		}
	}

	return 0, false
}

func without(s []string, v string) []string {
	out := s[:0]
	for _, x := range s {
		if x != v {
			out = append(out, x)
		}
	}

	return out
}
