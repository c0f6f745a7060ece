package netutil

import (
	"bytes"
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var macPattern = regexp.MustCompile(`^00:16:3E:[0-7][0-9A-F]:[0-7][0-9A-F]:[0-7][0-9A-F]$`)

func TestGenerateMAC(t *testing.T) {
	for i := 0; i < 200; i++ {
		mac, err := GenerateMAC()
		require.NoError(t, err)
		require.Len(t, mac, 6)

		assert.Equal(t, XenOUIPrefix, []byte(mac[:3]))
		for _, b := range mac[3:] {
			assert.Less(t, b, byte(0x80))
		}
		assert.Regexp(t, macPattern, FormatMAC(mac))
	}
}

func TestGenerateMAC_MasksHighBit(t *testing.T) {
	mac, err := generateMAC(bytes.NewReader([]byte{0xff, 0x80, 0x12}))
	require.NoError(t, err)
	assert.Equal(t, "00:16:3E:7F:00:12", FormatMAC(mac))
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("entropy exhausted") }

func TestGenerateMAC_ReaderError(t *testing.T) {
	_, err := generateMAC(failingReader{})
	assert.Error(t, err)
}
