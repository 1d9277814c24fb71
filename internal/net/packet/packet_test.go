package packet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestWriterReader_Fields(t *testing.T) {
	w := NewWriterWithOpcode(S_OPCODE_TELEMETRY)
	w.WriteQ(0x0000000200000007)
	w.WriteF(1.25)
	w.WriteC(9)
	w.WriteH(513)
	w.WriteD(-4)
	w.WriteBool(true)
	w.WriteS("bio_diesel")

	r := NewReader(w.Bytes())
	assert.Equal(t, S_OPCODE_TELEMETRY, r.Opcode())
	assert.Equal(t, uint64(0x0000000200000007), r.ReadQ())
	assert.Equal(t, float32(1.25), r.ReadF())
	assert.Equal(t, byte(9), r.ReadC())
	assert.Equal(t, uint16(513), r.ReadH())
	assert.Equal(t, int32(-4), r.ReadD())
	assert.Equal(t, byte(1), r.ReadC())
	assert.Equal(t, "bio_diesel", r.ReadS())
	assert.Zero(t, r.Remaining())
	assert.False(t, r.Short())
}

func TestReader_Short(t *testing.T) {
	r := NewReader([]byte{C_OPCODE_CONTROL, 1, 2, 3})
	assert.Zero(t, r.ReadQ())
	assert.True(t, r.Short())
}

func TestWriter_LayoutIsLittleEndian(t *testing.T) {
	w := NewWriterWithOpcode(S_OPCODE_HORN)
	w.WriteQ(0x0102)
	assert.Equal(t, []byte{S_OPCODE_HORN, 0x02, 0x01, 0, 0, 0, 0, 0, 0}, w.Bytes())
	assert.Equal(t, 9, w.Len())
}

type fakeSession struct{ hits int }

func TestRegistry_Dispatch(t *testing.T) {
	reg := NewRegistry(zap.NewNop())
	reg.Register(C_OPCODE_HORN, []SessionState{StateDriving}, func(sess any, r *Reader) {
		sess.(*fakeSession).hits++
	})
	reg.Register(C_OPCODE_KEYS, []SessionState{StateDriving}, func(any, *Reader) {
		panic("bad packet")
	})
	require.True(t, reg.Has(C_OPCODE_HORN))

	s := &fakeSession{}
	require.NoError(t, reg.Dispatch(s, StateDriving, []byte{C_OPCODE_HORN}))
	assert.Equal(t, 1, s.hits)

	assert.Error(t, reg.Dispatch(s, StateConnected, []byte{C_OPCODE_HORN}), "wrong state")
	assert.Equal(t, 1, s.hits)

	assert.NoError(t, reg.Dispatch(s, StateDriving, []byte{0x7F}), "unknown opcode ignored")
	assert.Error(t, reg.Dispatch(s, StateDriving, nil))
	assert.Error(t, reg.Dispatch(s, StateDriving, []byte{C_OPCODE_KEYS}), "panic recovered")
}
