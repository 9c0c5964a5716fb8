package pktmbuf_test

import (
	"os"
	"testing"

	"github.com/packetio/l2fwd/core/testenv"
	"github.com/packetio/l2fwd/pktmbuf"
)

func TestMain(m *testing.M) {
	exit := m.Run()
	pktmbuf.Teardown()
	os.Exit(exit)
}

var makeAR = testenv.MakeAR
