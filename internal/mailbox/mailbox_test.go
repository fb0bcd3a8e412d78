package mailbox

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ha-bridge/internal/domain"
)

func TestMailboxFIFO(t *testing.T) {
	m := New()
	defer m.Dispose()

	events := []domain.ProcessEventType{
		domain.ProcessStarting, domain.ProcessStarted, domain.ProcessStopping, domain.ProcessStopped,
	}
	for _, typ := range events {
		require.NoError(t, m.Enqueue(domain.ProcessEvent{Evt: domain.ProcessStatusEvent{Type: typ}}))
	}

	for _, want := range events {
		msg, err := m.Dequeue()
		require.NoError(t, err)
		ev, ok := msg.(domain.ProcessEvent)
		require.True(t, ok)
		assert.Equal(t, want, ev.Evt.Type)
	}
}

func TestMailboxDequeueEmpty(t *testing.T) {
	m := New()
	defer m.Dispose()

	msg, err := m.Dequeue()
	assert.Nil(t, msg)
	assert.ErrorIs(t, err, ErrEmpty)
	assert.True(t, m.IsEmpty())
}

func TestMailboxLen(t *testing.T) {
	m := New()
	defer m.Dispose()

	require.NoError(t, m.Enqueue(domain.SnsRepairStatusRequest{}))
	require.NoError(t, m.Enqueue(domain.SnsRepairStatusRequest{}))
	assert.Equal(t, int64(2), m.Len())

	_, err := m.Dequeue()
	require.NoError(t, err)
	assert.Equal(t, int64(1), m.Len())
}

func TestMailboxDisposed(t *testing.T) {
	m := New()
	m.Dispose()

	err := m.Enqueue(domain.SnsRepairStatusRequest{})
	assert.ErrorIs(t, err, domain.ErrMailboxClosed)

	_, err = m.Dequeue()
	assert.ErrorIs(t, err, domain.ErrMailboxClosed)
}

func TestMailboxConcurrentProducers(t *testing.T) {
	m := New()
	defer m.Dispose()

	const producers = 8
	const perProducer = 100

	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				_ = m.Enqueue(domain.ProcessEvent{Evt: domain.ProcessStatusEvent{
					Fid: domain.Fid{Container: uint64(p), Key: uint64(i)},
				}})
			}
		}(p)
	}
	wg.Wait()

	require.Equal(t, int64(producers*perProducer), m.Len())

	// Per-producer order must be preserved even under interleaving.
	lastKey := make(map[uint64]uint64, producers)
	for i := 0; i < producers*perProducer; i++ {
		msg, err := m.Dequeue()
		require.NoError(t, err)
		ev := msg.(domain.ProcessEvent).Evt
		if last, seen := lastKey[ev.Fid.Container]; seen {
			assert.Greater(t, ev.Fid.Key, last)
		}
		lastKey[ev.Fid.Container] = ev.Fid.Key
	}
	assert.True(t, m.IsEmpty())
}
