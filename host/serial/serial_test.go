package serial

import (
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("/dev/ttyUSB0")
	assert.Equal(t, "/dev/ttyUSB0", cfg.Device)
	assert.Equal(t, 230400, cfg.Baud)
	assert.Equal(t, 100, cfg.ReadTimeout)
}

func TestOpenRequiresDevice(t *testing.T) {
	_, err := Open(nil)
	require.Error(t, err)

	_, err = Open(&Config{})
	assert.ErrorIs(t, err, ErrNoDevice)
}

func TestLoopbackCarriesBytes(t *testing.T) {
	a, b := Loopback()
	defer a.Close()
	defer b.Close()

	go func() {
		_, _ = a.Write([]byte{0xFF, 0x00, 0x01})
	}()

	buf := make([]byte, 3)
	_, err := io.ReadFull(b, buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xFF, 0x00, 0x01}, buf)
	assert.NoError(t, b.Flush())
}

func TestLoopbackCloseEndsPeerRead(t *testing.T) {
	a, b := Loopback()
	require.NoError(t, a.Close())
	require.NoError(t, a.Close())

	_, err := b.Read(make([]byte, 1))
	assert.ErrorIs(t, err, io.EOF)
}
