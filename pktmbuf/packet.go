package pktmbuf

import (
	"errors"
	"sync/atomic"
)

// Packet errors.
var (
	ErrNoRoom   = errors.New("insufficient room in packet buffer")
	ErrTooShort = errors.New("length exceeds packet data")
	ErrNotEmpty = errors.New("operation requires an empty packet")
)

// Packet is an exclusively-owned handle to one pool slot.
// Its data window [0, Len()) lies within the slot's allocated capacity and can
// grow into reserved headroom/tailroom. Ref shares the slot for fan-out; the
// slot returns to its pool when the last owner calls Close.
type Packet struct {
	pool   *Pool
	buf    []byte
	priv   []byte
	refcnt atomic.Int32
	off    int
	length int
}

// reset prepares a freshly allocated packet buffer.
// The private area is cleared here, so no finalizer ever needs to run on
// reclaim; metadata types must be meaningful as all-zero bits.
func (pkt *Packet) reset() {
	pkt.off = min(DefaultHeadroom, len(pkt.buf))
	pkt.length = 0
	pkt.refcnt.Store(1)
	clear(pkt.priv)
}

// Pool returns the pool that owns the underlying slot.
func (pkt *Packet) Pool() *Pool {
	return pkt.pool
}

// Len returns data window length in octets.
func (pkt *Packet) Len() int {
	return pkt.length
}

// Capacity returns the allocated capacity of the underlying slot.
func (pkt *Packet) Capacity() int {
	return len(pkt.buf)
}

// Headroom returns room reserved before the data window.
func (pkt *Packet) Headroom() int {
	return pkt.off
}

// Tailroom returns room reserved after the data window.
func (pkt *Packet) Tailroom() int {
	return len(pkt.buf) - pkt.off - pkt.length
}

// Data returns the data window. The slice aliases the pool slot; it is valid
// until the window is adjusted or the packet is released.
func (pkt *Packet) Data() []byte {
	return pkt.buf[pkt.off : pkt.off+pkt.length]
}

// Bytes returns a copy of the data window.
func (pkt *Packet) Bytes() []byte {
	return append([]byte(nil), pkt.Data()...)
}

// SetLen resizes the data window, keeping its start position.
// Fails if the window would exceed the allocated capacity.
func (pkt *Packet) SetLen(n int) error {
	if n < 0 || pkt.off+n > len(pkt.buf) {
		return ErrNoRoom
	}
	pkt.length = n
	return nil
}

// SetHeadroom changes the reserved headroom.
// It can only be used on an empty packet.
func (pkt *Packet) SetHeadroom(headroom int) error {
	if pkt.length > 0 {
		return ErrNotEmpty
	}
	if headroom < 0 || headroom > len(pkt.buf) {
		return ErrNoRoom
	}
	pkt.off = headroom
	return nil
}

// TrimHead shrinks the data window by n octets from the front.
func (pkt *Packet) TrimHead(n int) error {
	if n < 0 || n > pkt.length {
		return ErrTooShort
	}
	pkt.off += n
	pkt.length -= n
	return nil
}

// TrimTail shrinks the data window by n octets from the end.
func (pkt *Packet) TrimTail(n int) error {
	if n < 0 || n > pkt.length {
		return ErrTooShort
	}
	pkt.length -= n
	return nil
}

// Prepend grows the data window by n octets into the headroom.
func (pkt *Packet) Prepend(n int) error {
	if n < 0 || n > pkt.off {
		return ErrNoRoom
	}
	pkt.off -= n
	pkt.length += n
	return nil
}

// Append grows the data window by n octets into the tailroom.
func (pkt *Packet) Append(n int) error {
	if n < 0 || n > pkt.Tailroom() {
		return ErrNoRoom
	}
	pkt.length += n
	return nil
}

// PrivData returns the private metadata area.
// It is zero-filled at allocation and never finalized on reclaim.
func (pkt *Packet) PrivData() []byte {
	return pkt.priv
}

// Ref adds an owner for fan-out transmission and returns the same packet.
// Each owner must independently call Close.
func (pkt *Packet) Ref() *Packet {
	pkt.refcnt.Add(1)
	return pkt
}

// Close drops one ownership reference; the last drop releases the slot to the pool.
func (pkt *Packet) Close() error {
	switch c := pkt.refcnt.Add(-1); {
	case c == 0:
		pkt.pool.release(pkt)
	case c < 0:
		logger.Panic("packet buffer released more than once")
	}
	return nil
}
