package ethdev_test

import (
	"testing"

	"github.com/packetio/l2fwd/core/macaddr"
	"github.com/packetio/l2fwd/ethdev"
	"github.com/packetio/l2fwd/ethringdev"
	"github.com/packetio/l2fwd/pktmbuf"
	"github.com/packetio/l2fwd/pktmbuf/mbuftestenv"
)

func TestPortInit(t *testing.T) {
	assert, require := makeAR(t)

	pair, e := ethringdev.NewPair(ethringdev.PairConfig{RxPool: mbuftestenv.Direct.Pool()})
	require.NoError(e)
	defer pair.Close()
	port := pair.PortA

	assert.True(port.Valid())
	assert.True(macaddr.IsUnicast(port.MacAddr()))
	assert.True(port.IsDown())

	rx, tx, e := port.Init(pair.EthDevConfig())
	require.NoError(e)
	assert.Len(rx, 1)
	assert.Len(tx, 1)

	_, _, e = port.Init(pair.EthDevConfig())
	assert.ErrorIs(e, ethdev.ErrAlreadyInUse)

	require.NoError(port.Start())
	assert.False(port.IsDown())

	// requesting more queues than the device supports
	cfg := pair.EthDevConfig()
	cfg.AddRxQueues(1, cfg.RxQueues[0])
	_, _, e = pair.PortB.Init(cfg)
	assert.Error(e)
	assert.NotErrorIs(e, ethdev.ErrAlreadyInUse)

	// a failed Init releases the claim; a valid retry succeeds
	_, _, e = pair.PortB.Init(pair.EthDevConfig())
	assert.NoError(e)
}

func TestList(t *testing.T) {
	assert, require := makeAR(t)

	pair, e := ethringdev.NewPair(ethringdev.PairConfig{RxPool: mbuftestenv.Direct.Pool()})
	require.NoError(e)
	defer pair.Close()

	list := ethdev.List()
	assert.Contains(list, pair.PortA)
	assert.Contains(list, pair.PortB)
	assert.Equal(pair.PortA, ethdev.FromID(pair.PortA.ID()))
	assert.Equal(pair.PortA, ethdev.Find(pair.PortA.Name()))
	assert.False(ethdev.Find("no-such-port").Valid())
}

func makeFrames(t *testing.T, mp *pktmbuf.Pool, count, size int) pktmbuf.Vector {
	_, require := makeAR(t)
	vec := pktmbuf.MakeVector(count)
	require.NoError(mp.AllocBulk(&vec))
	for i, pkt := range vec {
		require.NoError(pkt.SetLen(size))
		pkt.Data()[0] = byte(i)
	}
	return vec
}

func TestRxTx(t *testing.T) {
	assert, require := makeAR(t)

	mp, e := pktmbuf.NewPool("TestRxTx", pktmbuf.PoolConfig{Capacity: 63, Dataroom: 512})
	require.NoError(e)
	defer mp.Close()

	pair, e := ethringdev.NewPair(ethringdev.PairConfig{RingCapacity: 8, RxPool: mp})
	require.NoError(e)
	defer pair.Close()

	_, txA, e := pair.PortA.Init(pair.EthDevConfig())
	require.NoError(e)
	rxB, _, e := pair.PortB.Init(pair.EthDevConfig())
	require.NoError(e)
	require.NoError(pair.PortA.Start())
	require.NoError(pair.PortB.Start())

	// nothing to receive yet
	rvec := pktmbuf.MakeVector(32)
	assert.Zero(rxB[0].Rx(&rvec))

	svec := makeFrames(t, mp, 6, 64)
	assert.Equal(6, txA[0].Tx(&svec))
	assert.Len(svec, 0)

	got := rxB[0].Rx(&rvec)
	assert.Equal(6, got)
	assert.Len(rvec, 6)
	for i, pkt := range rvec {
		assert.Equal(byte(i), pkt.Data()[0], "FIFO order across the wire")
	}
	require.NoError(rvec.Close())
	assert.Equal(0, mp.CountInUse())
}

func TestPartialTransmit(t *testing.T) {
	assert, require := makeAR(t)

	mp, e := pktmbuf.NewPool("TestPartialTransmit", pktmbuf.PoolConfig{Capacity: 63, Dataroom: 512})
	require.NoError(e)
	defer mp.Close()

	pair, e := ethringdev.NewPair(ethringdev.PairConfig{RingCapacity: 4, RxPool: mp})
	require.NoError(e)
	defer pair.Close()

	_, txA, e := pair.PortA.Init(pair.EthDevConfig())
	require.NoError(e)
	require.NoError(pair.PortA.Start())

	svec := makeFrames(t, mp, 6, 64)
	sent := txA[0].Tx(&svec)
	assert.Equal(4, sent, "ring full after 4")
	require.Len(svec, 2)
	// remainder compacted to the front, submission order preserved
	assert.Equal(byte(4), svec[0].Data()[0])
	assert.Equal(byte(5), svec[1].Data()[0])

	require.NoError(svec.Close())
	// 4 in flight on the "wire"; pair.Close completes them
}

func TestTxCloned(t *testing.T) {
	assert, require := makeAR(t)

	mp, e := pktmbuf.NewPool("TestTxCloned", pktmbuf.PoolConfig{Capacity: 63, Dataroom: 512})
	require.NoError(e)
	defer mp.Close()

	pair, e := ethringdev.NewPair(ethringdev.PairConfig{RingCapacity: 4, RxPool: mp})
	require.NoError(e)
	defer pair.Close()

	_, txA, e := pair.PortA.Init(pair.EthDevConfig())
	require.NoError(e)
	rxB, _, e := pair.PortB.Init(pair.EthDevConfig())
	require.NoError(e)
	require.NoError(pair.PortA.Start())
	require.NoError(pair.PortB.Start())

	svec := makeFrames(t, mp, 6, 64)
	sent := txA[0].TxCloned(svec)
	assert.Equal(4, sent)
	assert.Len(svec, 6, "caller retains every original")

	rvec := pktmbuf.MakeVector(8)
	assert.Equal(4, rxB[0].Rx(&rvec))
	require.NoError(rvec.Close())

	require.NoError(svec.Close())
	assert.Equal(0, mp.CountInUse())
}

func TestStatsBaseline(t *testing.T) {
	assert, require := makeAR(t)

	mp, e := pktmbuf.NewPool("TestStatsBaseline", pktmbuf.PoolConfig{Capacity: 63, Dataroom: 512})
	require.NoError(e)
	defer mp.Close()

	pair, e := ethringdev.NewPair(ethringdev.PairConfig{RxPool: mp})
	require.NoError(e)
	defer pair.Close()

	_, txA, e := pair.PortA.Init(pair.EthDevConfig())
	require.NoError(e)
	rxB, _, e := pair.PortB.Init(pair.EthDevConfig())
	require.NoError(e)
	require.NoError(pair.PortA.Start())
	require.NoError(pair.PortB.Start())

	svec := makeFrames(t, mp, 3, 100)
	require.Equal(3, txA[0].Tx(&svec))

	es := pair.PortA.Stats()
	assert.EqualValues(3, es.Opackets)
	assert.EqualValues(300, es.Obytes)

	// ring device has no hardware counter reset; the port layer baselines in software
	pair.PortA.ResetStats()
	es = pair.PortA.Stats()
	assert.Zero(es.Opackets)
	assert.Zero(es.Obytes)

	rvec := pktmbuf.MakeVector(8)
	require.Equal(3, rxB[0].Rx(&rvec))
	es = pair.PortB.Stats()
	assert.EqualValues(3, es.Ipackets)
	require.NoError(rvec.Close())
}
