package entities

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPost_UnmarshalJSON(t *testing.T) {
	ts := time.Date(2025, 3, 14, 10, 0, 0, 0, time.UTC)

	tt := []struct {
		name      string
		data      string
		timestamp time.Time
		updatedAt *time.Time
		err       bool
	}{
		{
			name:      "rfc3339",
			data:      `{"id":"p1","timestamp":"2025-03-14T10:00:00Z"}`,
			timestamp: ts,
		},
		{
			name:      "unix seconds",
			data:      `{"id":"p1","timestamp":1741946400,"updatedAt":1741946460}`,
			timestamp: ts,
			updatedAt: func() *time.Time { v := ts.Add(time.Minute); return &v }(),
		},
		{
			name:      "null updatedAt",
			data:      `{"id":"p1","timestamp":1741946400,"updatedAt":null}`,
			timestamp: ts,
		},
		{
			name: "invalid",
			data: `{"id":"p1","timestamp":true}`,
			err:  true,
		},
	}

	for i := range tt {
		tc := tt[i]
		t.Run(tc.name, func(t *testing.T) {
			var p Post
			err := json.Unmarshal([]byte(tc.data), &p)
			if tc.err {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)

			assert.Equal(t, "p1", p.ID)
			assert.True(t, tc.timestamp.Equal(p.Timestamp))
			if tc.updatedAt == nil {
				assert.Nil(t, p.UpdatedAt)
			} else {
				require.NotNil(t, p.UpdatedAt)
				assert.True(t, tc.updatedAt.Equal(*p.UpdatedAt))
			}
		})
	}
}

func TestPoll_UnmarshalJSON_EndTimeMillis(t *testing.T) {
	var p Poll
	require.NoError(t, json.Unmarshal([]byte(`{"id":"poll1","endTime":1700086400500,"timestamp":1700000000}`), &p))

	assert.Equal(t, "poll1", p.ID)
	assert.True(t, time.Unix(1700086400, 500*int64(time.Millisecond)).Equal(p.EndTime))
	assert.True(t, time.Unix(1700000000, 0).Equal(p.Timestamp))
	assert.True(t, p.IsActive(time.Unix(1700086400, 0)))
}

func TestPoll_MarshalRoundTrip(t *testing.T) {
	in := Poll{
		ID:        "poll1",
		EndTime:   time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC),
		Timestamp: time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC),
		Options:   []Option{{ID: 0, Text: "a", Voters: []string{"0x1"}}},
	}

	b, err := json.Marshal(in)
	require.NoError(t, err)

	var out Poll
	require.NoError(t, json.Unmarshal(b, &out))
	assert.Equal(t, in, out)
}
