package ringbuffer_test

import (
	"testing"

	"github.com/packetio/l2fwd/core/testenv"
	"github.com/packetio/l2fwd/ringbuffer"
)

var makeAR = testenv.MakeAR

func TestAlignCapacity(t *testing.T) {
	assert, _ := makeAR(t)

	assert.Equal(ringbuffer.DefaultCapacity, ringbuffer.AlignCapacity(0))
	assert.Equal(ringbuffer.MinCapacity, ringbuffer.AlignCapacity(1))
	assert.Equal(8, ringbuffer.AlignCapacity(5))
	assert.Equal(64, ringbuffer.AlignCapacity(64))
	assert.Equal(64, ringbuffer.AlignCapacity(100, 4, 16, 64))
}

func TestRing(t *testing.T) {
	assert, require := makeAR(t)

	r, e := ringbuffer.New[int]("ring0", 4, ringbuffer.ProducerSingle, ringbuffer.ConsumerSingle)
	require.NoError(e)
	assert.Equal(4, r.Capacity())
	assert.Equal(0, r.CountInUse())

	assert.Equal(3, r.EnqueueBurst([]int{1, 2, 3}))
	assert.Equal(3, r.CountInUse())
	assert.Equal(1, r.CountAvailable())

	// ring full after one more; excess is rejected, not partially written
	assert.Equal(1, r.EnqueueBurst([]int{4, 5}))
	assert.Equal(0, r.EnqueueBurst([]int{6}))

	out := make([]int, 3)
	assert.Equal(3, r.DequeueBurst(out))
	assert.Equal([]int{1, 2, 3}, out)

	assert.Equal(1, r.DequeueBurst(out))
	assert.Equal(4, out[0])
	assert.Equal(0, r.DequeueBurst(out))

	_, e = ringbuffer.New[int]("ring1", 4, ringbuffer.ProducerMulti, ringbuffer.ConsumerSingle)
	assert.Error(e)
}

func TestRingWrap(t *testing.T) {
	assert, require := makeAR(t)

	r, e := ringbuffer.New[int]("wrap", 4, ringbuffer.ProducerSingle, ringbuffer.ConsumerSingle)
	require.NoError(e)

	buf := make([]int, 3)
	for i := 0; i < 100; i += 3 {
		assert.Equal(3, r.EnqueueBurst([]int{i, i + 1, i + 2}))
		assert.Equal(3, r.DequeueBurst(buf))
		assert.Equal([]int{i, i + 1, i + 2}, buf)
	}
}
