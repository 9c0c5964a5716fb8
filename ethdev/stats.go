package ethdev

import (
	"fmt"
)

// Stats contains port counters.
type Stats struct {
	Ipackets uint64 `json:"ipackets"` // received packets
	Ibytes   uint64 `json:"ibytes"`   // received octets
	Imissed  uint64 `json:"imissed"`  // packets dropped for lack of RX buffers
	Ierrors  uint64 `json:"ierrors"`  // erroneous received packets
	Opackets uint64 `json:"opackets"` // transmitted packets
	Obytes   uint64 `json:"obytes"`   // transmitted octets
	Oerrors  uint64 `json:"oerrors"`  // failed transmissions
}

// Sub returns es-baseline, as used by the software stats baseline.
func (es Stats) Sub(baseline Stats) Stats {
	return Stats{
		Ipackets: es.Ipackets - baseline.Ipackets,
		Ibytes:   es.Ibytes - baseline.Ibytes,
		Imissed:  es.Imissed - baseline.Imissed,
		Ierrors:  es.Ierrors - baseline.Ierrors,
		Opackets: es.Opackets - baseline.Opackets,
		Obytes:   es.Obytes - baseline.Obytes,
		Oerrors:  es.Oerrors - baseline.Oerrors,
	}
}

func (es Stats) String() string {
	return fmt.Sprintf("RX %d pkts, %d bytes, %d missed, %d errors; TX %d pkts, %d bytes, %d errors",
		es.Ipackets, es.Ibytes, es.Imissed, es.Ierrors, es.Opackets, es.Obytes, es.Oerrors)
}
