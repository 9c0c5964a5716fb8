package eal

import (
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"
)

var lastObjectID atomic.Uint64

// AllocObjectID allocates an identifier/name for runtime objects.
func AllocObjectID(dbgtype string) string {
	id := fmt.Sprintf("K%016x", lastObjectID.Add(1))
	logger.Debug("object ID allocated",
		zap.String("type", dbgtype),
		zap.String("id", id),
	)
	return id
}
