// Package mbuftestenv provides packet buffer pools for unit tests.
package mbuftestenv

import (
	"fmt"

	"github.com/packetio/l2fwd/eal"
	"github.com/packetio/l2fwd/pktmbuf"
)

// TestPool adds test-only helpers on a pool template.
type TestPool struct {
	Template pktmbuf.PoolConfig

	pool *pktmbuf.Pool
}

// Direct is a pool of packet buffers with ample dataroom.
var Direct = TestPool{
	Template: pktmbuf.PoolConfig{
		Capacity: 4095,
		Dataroom: pktmbuf.DefaultHeadroom + 2048,
	},
}

// Pool creates or returns the pool.
func (tp *TestPool) Pool() *pktmbuf.Pool {
	if tp.pool == nil {
		mp, e := pktmbuf.NewPool(eal.AllocObjectID("mbuftestenv"), tp.Template)
		if e != nil {
			panic(fmt.Sprint("pktmbuf.NewPool error ", e))
		}
		tp.pool = mp
	}
	return tp.pool
}

// MustAlloc allocates a Vector of count packet buffers, panicking on failure.
func (tp *TestPool) MustAlloc(count int) pktmbuf.Vector {
	vec := pktmbuf.MakeVector(count)
	if e := tp.Pool().AllocBulk(&vec); e != nil {
		panic(e)
	}
	return vec
}
