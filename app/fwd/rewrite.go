package fwd

import (
	"net"

	"github.com/packetio/l2fwd/core/macaddr"
)

// etherAddrsLen is the span of the destination+source address fields at the
// start of an Ethernet frame.
const etherAddrsLen = 2 * macaddr.AddrLen

// RewriteMacs overwrites the leading address fields of the frame in place:
// destination at offset 0, source at offset 6. Returns false, leaving the
// frame untouched, when it is too short to carry the address fields.
func RewriteMacs(frame []byte, src, dst net.HardwareAddr) bool {
	if len(frame) < etherAddrsLen {
		return false
	}
	copy(frame[0:macaddr.AddrLen], dst)
	copy(frame[macaddr.AddrLen:etherAddrsLen], src)
	return true
}
