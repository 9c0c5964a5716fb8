package pktmbuf_test

import (
	"bytes"
	"testing"

	"github.com/packetio/l2fwd/pktmbuf"
	"github.com/packetio/l2fwd/pktmbuf/mbuftestenv"
)

func TestPacketWindow(t *testing.T) {
	assert, require := makeAR(t)

	vec := mbuftestenv.Direct.MustAlloc(1)
	defer vec.Close()
	pkt := vec[0]

	assert.Equal(0, pkt.Len())
	assert.Equal(pktmbuf.DefaultHeadroom, pkt.Headroom())
	assert.Equal(pkt.Capacity()-pktmbuf.DefaultHeadroom, pkt.Tailroom())

	require.NoError(pkt.SetLen(300))
	assert.Equal(300, pkt.Len())
	assert.Len(pkt.Data(), 300)
	assert.Error(pkt.SetLen(pkt.Capacity()))

	copy(pkt.Data(), bytes.Repeat([]byte{0xA1}, 300))

	require.NoError(pkt.Prepend(12))
	assert.Equal(312, pkt.Len())
	assert.Equal(pktmbuf.DefaultHeadroom-12, pkt.Headroom())
	copy(pkt.Data()[:12], bytes.Repeat([]byte{0xA0}, 12))

	require.NoError(pkt.Append(4))
	assert.Equal(316, pkt.Len())
	copy(pkt.Data()[312:], bytes.Repeat([]byte{0xA2}, 4))

	assert.Equal(bytes.Join([][]byte{
		bytes.Repeat([]byte{0xA0}, 12),
		bytes.Repeat([]byte{0xA1}, 300),
		bytes.Repeat([]byte{0xA2}, 4),
	}, nil), pkt.Bytes())

	require.NoError(pkt.TrimHead(12))
	require.NoError(pkt.TrimTail(4))
	assert.Equal(300, pkt.Len())
	assert.Equal([]byte{0xA1}, pkt.Data()[:1])

	assert.Error(pkt.TrimHead(301))
	assert.Error(pkt.TrimTail(301))
	assert.ErrorIs(pkt.Prepend(pkt.Headroom()+1), pktmbuf.ErrNoRoom)
	assert.ErrorIs(pkt.Append(pkt.Tailroom()+1), pktmbuf.ErrNoRoom)
}

func TestSetHeadroom(t *testing.T) {
	assert, require := makeAR(t)

	vec := mbuftestenv.Direct.MustAlloc(1)
	defer vec.Close()
	pkt := vec[0]

	require.NoError(pkt.SetHeadroom(200))
	assert.Equal(200, pkt.Headroom())

	require.NoError(pkt.SetLen(1))
	assert.ErrorIs(pkt.SetHeadroom(100), pktmbuf.ErrNotEmpty)
}

func TestPrivData(t *testing.T) {
	assert, require := makeAR(t)

	mp, e := pktmbuf.NewPool("TestPrivData", pktmbuf.PoolConfig{
		Capacity: 1,
		Dataroom: 256,
		PrivSize: 8,
	})
	require.NoError(e)
	defer mp.Close()

	pkt := mp.Alloc()
	require.NotNil(pkt)
	assert.Len(pkt.PrivData(), 8)
	assert.Equal(make([]byte, 8), pkt.PrivData())

	copy(pkt.PrivData(), []byte{1, 2, 3, 4, 5, 6, 7, 8})
	pkt.Close()

	// reclaim runs no finalizer; the area is simply zero-filled on next alloc
	pkt = mp.Alloc()
	require.NotNil(pkt)
	assert.Equal(make([]byte, 8), pkt.PrivData())
	pkt.Close()
}
