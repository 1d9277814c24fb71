package net

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrame_RoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFrame(&buf, []byte{0x02, 1, 2, 3}))
	assert.Equal(t, []byte{6, 0, 0x02, 1, 2, 3}, buf.Bytes())

	got, err := ReadFrame(&buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x02, 1, 2, 3}, got)
}

func TestFrame_Invalid(t *testing.T) {
	_, err := ReadFrame(bytes.NewReader([]byte{2, 0}))
	assert.Error(t, err, "empty payload")

	_, err = ReadFrame(bytes.NewReader([]byte{10, 0, 1}))
	assert.Error(t, err, "truncated payload")

	assert.Error(t, WriteFrame(&bytes.Buffer{}, nil))
}
