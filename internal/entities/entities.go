// Package entities contains main entities of service.
package entities

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Profile ...
type Profile struct {
	Address      string    `json:"address"`
	DisplayName  string    `json:"displayName"`
	ProfilePhoto *string   `json:"profilePhoto"`
	Bio          string    `json:"bio"`
	JoinedDate   time.Time `json:"joinedDate"`
	UpdatedDate  time.Time `json:"updatedDate"`
	TxHash       *string   `json:"txHash"`
	BlockNumber  *uint64   `json:"blockNumber"`
	FeesPaid     *string   `json:"profileFeesPaid"`
}

// Post ...
type Post struct {
	ID          string     `json:"id"`
	Content     string     `json:"content"`
	Photo       *string    `json:"photo"`
	Author      string     `json:"author"`
	Timestamp   time.Time  `json:"timestamp"`
	TxHash      *string    `json:"txHash,omitempty"`
	BlockNumber *uint64    `json:"blockNumber,omitempty"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
	IsEdited    bool       `json:"isEdited,omitempty"`
}

// Owner returns identity which owns the post.
func (p Post) Owner() string { return p.Author }

// UnmarshalJSON accepts timestamp and updatedAt as unix seconds as well.
func (p *Post) UnmarshalJSON(b []byte) error {
	type Raw Post
	v := struct {
		*Raw
		Timestamp epoch  `json:"timestamp"`
		UpdatedAt *epoch `json:"updatedAt,omitempty"`
	}{
		Raw:       (*Raw)(p),
		Timestamp: epoch{unit: time.Second},
		UpdatedAt: &epoch{unit: time.Second},
	}

	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	p.Timestamp = v.Timestamp.Time
	p.UpdatedAt = nil
	if v.UpdatedAt != nil && !v.UpdatedAt.IsZero() {
		t := v.UpdatedAt.Time
		p.UpdatedAt = &t
	}

	return nil
}

// Reaction holds likes of a single post. Likes is always equal to len(LikedBy).
type Reaction struct {
	Likes   int      `json:"likes"`
	LikedBy []string `json:"likedBy"`
}

// Comment ...
type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"postId"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// UnmarshalJSON accepts timestamp as unix seconds as well.
func (c *Comment) UnmarshalJSON(b []byte) error {
	type Raw Comment
	v := struct {
		*Raw
		Timestamp epoch `json:"timestamp"`
	}{
		Raw:       (*Raw)(c),
		Timestamp: epoch{unit: time.Second},
	}

	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	c.Timestamp = v.Timestamp.Time

	return nil
}

// Poll ...
type Poll struct {
	ID         string    `json:"id"`
	Question   string    `json:"question"`
	Options    []Option  `json:"options"`
	Duration   int       `json:"duration"` // hours
	EndTime    time.Time `json:"endTime"`
	Author     string    `json:"author"`
	TotalVotes int       `json:"totalVotes"`
	Timestamp  time.Time `json:"timestamp"`
	TxHash     *string   `json:"txHash,omitempty"`
}

// Owner returns identity which owns the poll.
func (p Poll) Owner() string { return p.Author }

// IsActive reports whether poll accepts votes at the moment.
func (p Poll) IsActive(now time.Time) bool { return p.EndTime.After(now) }

// UnmarshalJSON accepts timestamp as unix seconds and endTime as unix milliseconds as well.
func (p *Poll) UnmarshalJSON(b []byte) error {
	type Raw Poll
	v := struct {
		*Raw
		EndTime   epoch `json:"endTime"`
		Timestamp epoch `json:"timestamp"`
	}{
		Raw:       (*Raw)(p),
		EndTime:   epoch{unit: time.Millisecond},
		Timestamp: epoch{unit: time.Second},
	}

	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	p.EndTime = v.EndTime.Time
	p.Timestamp = v.Timestamp.Time

	return nil
}

// Option is a single answer of a poll. ID is its ordinal position.
type Option struct {
	ID         int      `json:"id"`
	Text       string   `json:"text"`
	Votes      int      `json:"votes"`
	Percentage int      `json:"percentage"`
	Voters     []string `json:"voters"`
}

// epoch is a time written either as RFC 3339 string or as a number of units since unix epoch.
type epoch struct {
	time.Time
	unit time.Duration
}

func (e *epoch) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || b[0] == '"' || bytes.Equal(b, []byte("null")) {
		return e.Time.UnmarshalJSON(b)
	}

	per := int64(time.Second / e.unit)

	if n, err := strconv.ParseInt(string(b), 10, 64); err == nil {
		e.Time = time.Unix(n/per, n%per*int64(e.unit)).UTC()
		return nil
	}

	f, err := strconv.ParseFloat(string(b), 64)
	if err != nil {
		return fmt.Errorf("invalid time %s: %w", b, err)
	}

	e.Time = time.Unix(0, int64(f*float64(e.unit))).UTC()

	return nil
}
