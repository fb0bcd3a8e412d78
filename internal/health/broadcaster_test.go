package health

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ha-bridge/internal/domain"
	"ha-bridge/internal/mailbox"
)

func TestRefreshJobEnqueuesLocalState(t *testing.T) {
	mbox := mailbox.New()
	defer mbox.Dispose()

	nodeFid := domain.Fid{Container: 0x72, Key: 0x1}
	job := &refreshJob{mbox: mbox, nodeFid: nodeFid, logger: slog.Default()}

	job.Run()
	job.Run()

	require.Equal(t, int64(2), mbox.Len())

	msg, err := mbox.Dequeue()
	require.NoError(t, err)
	broadcast, ok := msg.(domain.BroadcastHAStates)
	require.True(t, ok)
	require.Len(t, broadcast.States, 1)
	assert.Equal(t, nodeFid, broadcast.States[0].Fid)
	assert.Equal(t, domain.HAStatusOnline, broadcast.States[0].Status)
	assert.Nil(t, broadcast.ReplyTo, "periodic refresh is fire-and-forget")
}

func TestRefreshJobSurvivesDisposedMailbox(t *testing.T) {
	mbox := mailbox.New()
	mbox.Dispose()

	job := &refreshJob{
		mbox:    mbox,
		nodeFid: domain.Fid{Container: 0x72, Key: 0x1},
		logger:  slog.Default(),
	}
	assert.NotPanics(t, job.Run)
}

func TestBroadcasterRejectsBadSpec(t *testing.T) {
	mbox := mailbox.New()
	defer mbox.Dispose()

	b := NewBroadcaster(mbox, domain.Fid{Container: 0x72, Key: 0x1}, "bogus", slog.Default())
	assert.Error(t, b.Start())
}

func TestBroadcasterStartStop(t *testing.T) {
	mbox := mailbox.New()
	defer mbox.Dispose()

	b := NewBroadcaster(mbox, domain.Fid{Container: 0x72, Key: 0x1}, "@every 1h", slog.Default())
	require.NoError(t, b.Start())
	b.Stop()
}
