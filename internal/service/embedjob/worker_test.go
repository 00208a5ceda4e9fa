package embedjob

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haeyeon/festabot/internal/core"
	"github.com/haeyeon/festabot/internal/providers/embedding"
)

type memStore struct {
	mu        sync.Mutex
	pending   []core.Event
	embedded  map[int64][]float32
	storeErr  error
	setCalled int
}

func newMemStore(events ...core.Event) *memStore {
	return &memStore{pending: events, embedded: make(map[int64][]float32)}
}

func (s *memStore) FindUnembedded(context.Context, int) ([]core.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending, nil
}

func (s *memStore) SetEmbedding(_ context.Context, id int64, vec []float32) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setCalled++
	if s.storeErr != nil {
		return s.storeErr
	}
	s.embedded[id] = vec
	return nil
}

type scriptedEmbedder struct {
	mu   sync.Mutex
	fail map[string]bool
}

func (e *scriptedEmbedder) Embed(_ context.Context, text string, purpose embedding.Purpose) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if purpose != embedding.PurposeDocument {
		return nil, errors.New("events must be embedded as documents")
	}
	if e.fail[text] {
		return nil, embedding.ErrUnavailable
	}
	return []float32{float32(len(text)), 1}, nil
}

func TestProcessBatch(t *testing.T) {
	store := newMemStore(
		core.Event{ID: 1, Title: "행사 하나", Place: "광장"},
		core.Event{ID: 2, Title: "행사 둘", Place: "공원"},
	)
	w := NewWorker(store, &scriptedEmbedder{})

	require.NoError(t, w.processBatch(context.Background()))
	assert.Len(t, store.embedded, 2)
	assert.NotEmpty(t, store.embedded[1])
}

func TestProcessBatch_IndividualFailureSkipped(t *testing.T) {
	failing := core.Event{ID: 1, Title: "실패하는 행사"}
	ok := core.Event{ID: 2, Title: "정상 행사"}
	store := newMemStore(failing, ok)
	w := NewWorker(store, &scriptedEmbedder{fail: map[string]bool{failing.EmbeddingText(): true}})

	require.NoError(t, w.processBatch(context.Background()))
	assert.NotContains(t, store.embedded, int64(1))
	assert.Contains(t, store.embedded, int64(2))
}

func TestProcessBatch_EmptyIsNoop(t *testing.T) {
	store := newMemStore()
	w := NewWorker(store, &scriptedEmbedder{})

	require.NoError(t, w.processBatch(context.Background()))
	assert.Zero(t, store.setCalled)
}
