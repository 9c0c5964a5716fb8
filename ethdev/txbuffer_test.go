package ethdev_test

import (
	"testing"

	"github.com/packetio/l2fwd/ethdev"
	"github.com/packetio/l2fwd/ethringdev"
	"github.com/packetio/l2fwd/pktmbuf"
)

func setupTxBufferTest(t *testing.T, name string, ringCapacity int) (*pktmbuf.Pool, ethdev.TxQueue, ethdev.RxQueue, func()) {
	_, require := makeAR(t)

	mp, e := pktmbuf.NewPool(name, pktmbuf.PoolConfig{Capacity: 63, Dataroom: 512})
	require.NoError(e)

	pair, e := ethringdev.NewPair(ethringdev.PairConfig{RingCapacity: ringCapacity, RxPool: mp})
	require.NoError(e)
	_, txA, e := pair.PortA.Init(pair.EthDevConfig())
	require.NoError(e)
	rxB, _, e := pair.PortB.Init(pair.EthDevConfig())
	require.NoError(e)
	require.NoError(pair.PortA.Start())
	require.NoError(pair.PortB.Start())

	return mp, txA[0], rxB[0], func() {
		pair.Close()
		mp.Close()
	}
}

func TestTxBufferFill(t *testing.T) {
	assert, require := makeAR(t)
	mp, txq, rxq, teardown := setupTxBufferTest(t, "TestTxBufferFill", 64)
	defer teardown()

	b := ethdev.NewTxBuffer(4)
	assert.Equal(4, b.Capacity())

	svec := makeFrames(t, mp, 6, 64)
	var totalSent int
	for i, pkt := range svec {
		sent, unsent := b.Tx(txq, pkt)
		totalSent += sent
		assert.Nil(unsent)
		if i == 3 {
			assert.Equal(4, sent, "full buffer flushes immediately")
		} else {
			assert.Zero(sent)
		}
	}
	assert.Equal(2, b.Len())

	sent, unsent := b.Flush(txq)
	totalSent += sent
	assert.Equal(2, sent)
	assert.Nil(unsent)
	assert.Zero(b.Len())

	// conservation: everything submitted was either sent or remains staged
	assert.Equal(6, totalSent+b.Len())

	// flush on empty buffer is a no-op
	sent, unsent = b.Flush(txq)
	assert.Zero(sent)
	assert.Nil(unsent)

	rvec := pktmbuf.MakeVector(8)
	require.Equal(6, rxq.Rx(&rvec))
	rvec.Close()
	assert.Equal(0, mp.CountInUse())
}

func TestTxBufferUnsent(t *testing.T) {
	assert, require := makeAR(t)
	mp, txq, _, teardown := setupTxBufferTest(t, "TestTxBufferUnsent", 4)
	defer teardown()

	b := ethdev.NewTxBuffer(8)
	svec := makeFrames(t, mp, 7, 64)
	for _, pkt := range svec {
		sent, unsent := b.Tx(txq, pkt)
		assert.Zero(sent)
		assert.Nil(unsent)
	}

	sent, unsent := b.Flush(txq)
	assert.Equal(4, sent, "hardware ring full after 4")
	require.Len(unsent, 3)

	// unsent remainder preserves submission order
	for i, pkt := range unsent {
		assert.Equal(byte(4+i), pkt.Data()[0])
	}

	// conservation: sent + drained unsent + staged = submitted
	assert.Equal(7, sent+len(unsent)+b.Len())

	// each unsent buffer is disposed exactly once before restaging
	require.NoError(unsent.Close())
	assert.Equal(4, mp.CountInUse(), "only in-flight buffers remain allocated")
}
