package pktmbuf

// Vector is a vector of packet buffers.
// Its capacity bounds bulk allocation and RX burst size.
type Vector []*Packet

// MakeVector creates an empty Vector with given capacity.
func MakeVector(capacity int) Vector {
	return make(Vector, 0, capacity)
}

// Close releases the packet buffers.
func (vec Vector) Close() error {
	for _, pkt := range vec {
		if pkt != nil {
			pkt.Close()
		}
	}
	return nil
}
