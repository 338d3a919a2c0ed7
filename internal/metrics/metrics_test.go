package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/monadsocial/agora/internal/storage"
)

func TestObserveWrite(t *testing.T) {
	ok := SnapshotWrites.WithLabelValues(string(storage.PostsCollection), "ok")
	failed := SnapshotWrites.WithLabelValues(string(storage.PostsCollection), "error")

	okBefore, failedBefore := testutil.ToFloat64(ok), testutil.ToFloat64(failed)

	ObserveWrite(storage.PostsCollection, nil)
	ObserveWrite(storage.PostsCollection, nil)
	ObserveWrite(storage.PostsCollection, errors.New("disk full"))

	assert.Equal(t, okBefore+2, testutil.ToFloat64(ok))
	assert.Equal(t, failedBefore+1, testutil.ToFloat64(failed))
}
