package dmabackend

import (
	"testing"

	"github.com/arnegard/wlcore"
)

func TestGbmBoUseFlagsAreDistinctBits(t *testing.T) {
	if gbmBoUseScanout&gbmBoUseRendering != 0 {
		t.Fatalf("scanout and rendering flags must be distinct bits, got %#x and %#x", gbmBoUseScanout, gbmBoUseRendering)
	}
}

func TestBackendCloseWithoutDeviceIsNoop(t *testing.T) {
	b := &Backend{bo: make(map[wlcore.Id]uintptr)}
	if err := b.Close(); err != nil {
		t.Fatalf("Close on a backend that never opened a render node should be a no-op, got %v", err)
	}
}
