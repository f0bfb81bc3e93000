package wlcore

import "testing"

// TestShmGrowScenario exercises the wire bytes a shm backend must
// emit when a 500x500 ARGB8888 buffer is requested from a pool that
// started at size 8: a pool.resize(1_000_000) followed by
// create_buffer(offset=0, w=500, h=500, stride=2000, format=0).
func TestShmGrowScenario(t *testing.T) {
	d := newTestDriver()
	poolId := d.reg.NewIdRegistered(&ShmPoolHandler{})

	const (
		w, h     = 500, 500
		stride   = w * 4
		wantSize = stride * h
	)
	if wantSize != 1_000_000 {
		t.Fatalf("test setup error: expected 1_000_000 bytes, computed %d", wantSize)
	}

	d.ResizePool(poolId, wantSize)
	bufId := d.CreateBuffer(poolId, 0, w, h, stride, PixelFormatARGB8888)

	if len(d.consequences) != 2 {
		t.Fatalf("expected exactly two emitted requests, got %d", len(d.consequences))
	}

	resize, _ := NewEncoder(poolId, opShmPoolResize).PutUint32(wantSize).Finish()
	if string(d.consequences[0].Request.Bytes) != string(resize) {
		t.Fatalf("resize bytes mismatch:\n got  %x\n want %x", d.consequences[0].Request.Bytes, resize)
	}

	createBuf, _ := NewEncoder(poolId, opShmPoolCreateBuffer).
		PutUint32(uint32(bufId)).PutUint32(0).PutUint32(w).PutUint32(h).
		PutUint32(stride).PutUint32(PixelFormatARGB8888.ToShmCode()).Finish()
	if string(d.consequences[1].Request.Bytes) != string(createBuf) {
		t.Fatalf("create_buffer bytes mismatch:\n got  %x\n want %x", d.consequences[1].Request.Bytes, createBuf)
	}

	h2, ok := d.reg.Find(bufId)
	if !ok {
		t.Fatalf("buffer %d not registered", bufId)
	}
	buf := h2.(*BufferHandler)
	if buf.Width()*buf.Height()*4 != wantSize {
		t.Fatalf("registered buffer dimensions don't cover %d bytes", wantSize)
	}
}
