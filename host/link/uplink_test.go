package link

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"animahead/protocol"
)

type failWriter struct{}

func (failWriter) Write([]byte) (int, error) { return 0, errors.New("port gone") }

func decodeAll(t *testing.T, data []byte) []protocol.Command {
	t.Helper()
	var got []protocol.Command
	d := protocol.NewDecoder(func(c protocol.Command, valid bool) {
		require.True(t, valid, "frame %+v failed its checksum", c)
		got = append(got, c)
	})
	_, _ = d.Write(data)
	return got
}

func TestSendPoseRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	u := NewUplink(&buf, 0, 1)

	require.NoError(t, u.SendPose(context.Background(), Pose{Chin: 10, NeckRy: 20, NeckRx: 30, NeckRz: 40}))

	assert.Equal(t, []byte{0xFF, 0x00, 0x0A, 0x14, 0x1E, 0x28, 0x64}, buf.Bytes())
	assert.Equal(t, uint64(1), u.Stats().Sent)
}

func TestLockKeepsPose(t *testing.T) {
	var buf bytes.Buffer
	u := NewUplink(&buf, 0, 1)
	ctx := context.Background()

	require.NoError(t, u.SendPose(ctx, Pose{Chin: 100, NeckRy: 50, NeckRx: 60, NeckRz: 70}))
	require.NoError(t, u.Lock(ctx))
	require.NoError(t, u.Unlock(ctx))

	frames := decodeAll(t, buf.Bytes())
	require.Len(t, frames, 3)
	assert.True(t, frames[1].EncoderLock())
	assert.Equal(t, uint8(100), frames[1].Chin)
	assert.False(t, frames[2].EncoderLock())
	assert.Equal(t, uint8(70), frames[2].NeckRz)
}

func TestSendRejectsMarkerValue(t *testing.T) {
	var buf bytes.Buffer
	u := NewUplink(&buf, 0, 1)

	err := u.SendPose(context.Background(), Pose{Chin: 0xFF})
	assert.ErrorIs(t, err, protocol.ErrMarkerInPayload)
	assert.Zero(t, buf.Len())
}

func TestSendAfterClose(t *testing.T) {
	u := NewUplink(&bytes.Buffer{}, 0, 1)
	require.NoError(t, u.Close())

	assert.ErrorIs(t, u.Send(context.Background(), protocol.DefaultCommand()), ErrClosed)
	assert.ErrorIs(t, u.WriteRaw([]byte{0xFF}), ErrClosed)
}

func TestSendWriteError(t *testing.T) {
	u := NewUplink(failWriter{}, 0, 1)
	err := u.Send(context.Background(), protocol.DefaultCommand())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "port gone")
}

func TestSendHonoursContextWhileThrottled(t *testing.T) {
	u := NewUplink(&bytes.Buffer{}, 0.001, 1)
	ctx := context.Background()
	require.NoError(t, u.Send(ctx, protocol.DefaultCommand()))

	ctx, cancel := context.WithCancel(ctx)
	cancel()
	err := u.Send(ctx, protocol.DefaultCommand())
	assert.ErrorIs(t, err, ErrThrottled)
	assert.Equal(t, uint64(1), u.Stats().Throttled)
}

func TestStreamStopsAtDuration(t *testing.T) {
	var buf bytes.Buffer
	u := NewUplink(&buf, 200, 1)

	sent, err := u.Stream(context.Background(), 100*time.Millisecond, Sweep(Pose{128, 128, 128, 128}, 40, 20))
	require.NoError(t, err)
	assert.Greater(t, sent, 5)
	assert.Less(t, sent, 40)
	assert.Len(t, decodeAll(t, buf.Bytes()), sent)
}

func TestSweepStaysInRange(t *testing.T) {
	next := Sweep(Pose{Chin: 250, NeckRy: 5, NeckRx: 128, NeckRz: 128}, 50, 8)
	for i := 0; i < 16; i++ {
		p := next(i)
		assert.LessOrEqual(t, p.Chin, uint8(0xFE))
		assert.NotEqual(t, uint8(0xFF), p.NeckRz)
	}
	assert.Equal(t, Pose{Chin: 250, NeckRy: 5, NeckRx: 128, NeckRz: 128}, next(0))
	assert.Equal(t, uint8(178), next(2).NeckRx)
	assert.Equal(t, uint8(78), next(2).NeckRz)
}
