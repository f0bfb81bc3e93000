package wlcore

import (
	"bytes"
	"encoding/hex"
	"testing"
)

func TestEncodeGetRegistry(t *testing.T) {
	buf, fds := NewEncoder(DisplayId, 1).PutUint32(2).Finish()
	if len(fds) != 0 {
		t.Fatalf("expected no fds, got %d", len(fds))
	}
	// size=12 (0x0c), opcode=1 packed as size<<16|opcode then written
	// little-endian, matching the teacher's makeMsgBuf exactly (and
	// real libwayland's wire format) — note this swaps the two 16-bit
	// halves of the second word relative to the literal example text,
	// see DESIGN.md.
	want := mustHex(t, "01000000"+"01000c00"+"02000000")
	if !bytes.Equal(buf, want) {
		t.Fatalf("got % x, want % x", buf, want)
	}
}

func mustHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad hex literal %q: %v", s, err)
	}
	return b
}

func TestEncodeStringArg(t *testing.T) {
	e := NewEncoder(1, 0)
	e.PutString("abc")
	buf, _ := e.Finish()
	arg := buf[headerSize:]
	wantLen := mustHex(t, "04000000")
	if !bytes.Equal(arg[:4], wantLen) {
		t.Fatalf("length header = % x, want % x", arg[:4], wantLen)
	}
	wantBody := []byte("abc\x00")
	if !bytes.Equal(arg[4:8], wantBody) {
		t.Fatalf("string body = % x, want % x", arg[4:8], wantBody)
	}
	if len(arg) != 8 {
		t.Fatalf("total arg len = %d, want 8", len(arg))
	}
}

func TestEncodeBindTypedNewId(t *testing.T) {
	e := NewEncoder(2, 0)
	e.PutUint32(7) // name
	e.PutNewIdTyped("wl_compositor", 5, 3)
	buf, _ := e.Finish()
	args := buf[headerSize:]

	wantName := mustHex(t, "07000000")
	if !bytes.Equal(args[0:4], wantName) {
		t.Fatalf("name = % x, want % x", args[0:4], wantName)
	}
	wantLen := mustHex(t, "0e000000") // len("wl_compositor")+1 = 14 = 0x0e
	if !bytes.Equal(args[4:8], wantLen) {
		t.Fatalf("iface len = % x, want % x", args[4:8], wantLen)
	}
	iface := args[8 : 8+13]
	if string(iface) != "wl_compositor" {
		t.Fatalf("iface = %q", iface)
	}
	// NUL + 2 bytes padding to reach 4-byte alignment (14 bytes + 2 pad = 16)
	rest := args[8+13:]
	if rest[0] != 0 {
		t.Fatalf("expected NUL terminator, got %x", rest[0])
	}
	version := args[8+16 : 8+20]
	wantVersion := mustHex(t, "05000000")
	if !bytes.Equal(version, wantVersion) {
		t.Fatalf("version = % x, want % x", version, wantVersion)
	}
	newId := args[8+20 : 8+24]
	wantNewId := mustHex(t, "03000000")
	if !bytes.Equal(newId, wantNewId) {
		t.Fatalf("new_id = % x, want % x", newId, wantNewId)
	}
}

func TestDecodeFramesRoundTrip(t *testing.T) {
	e := NewEncoder(1, 1)
	e.PutUint32(2)
	buf, _ := e.Finish()

	frames, consumed, err := DecodeFrames(buf)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if consumed != len(buf) {
		t.Fatalf("consumed = %d, want %d", consumed, len(buf))
	}
	if len(frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(frames))
	}
	f := frames[0]
	if f.Sender != 1 || f.Op != 1 {
		t.Fatalf("frame = %+v", f)
	}
	if u32At(f.Body, 0) != 2 {
		t.Fatalf("body arg = %d, want 2", u32At(f.Body, 0))
	}
}

func TestDecodeFramesPartialTrailing(t *testing.T) {
	e := NewEncoder(1, 1)
	e.PutUint32(2)
	buf, _ := e.Finish()
	partial := append(append([]byte{}, buf...), buf[:4]...) // trailing half frame

	frames, consumed, err := DecodeFrames(partial)
	if err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(frames) != 1 {
		t.Fatalf("got %d frames, want 1", len(frames))
	}
	if consumed != len(buf) {
		t.Fatalf("consumed = %d, want %d (trailing bytes must stay buffered)", consumed, len(buf))
	}
}

func TestParseStringRoundTrip(t *testing.T) {
	buf := (&Encoder{}).PutString("hello").buf
	s, n, err := ParseString(buf)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	if s != "hello" {
		t.Fatalf("s = %q, want hello", s)
	}
	if n != len(buf) {
		t.Fatalf("n = %d, want %d", n, len(buf))
	}
}

func TestEveryEncodedRequestLengthIsMultipleOf4AndAtLeast8(t *testing.T) {
	cases := []func() ([]byte, []int){
		func() ([]byte, []int) { return NewEncoder(1, 0).Finish() },
		func() ([]byte, []int) { return NewEncoder(1, 0).PutUint32(9).Finish() },
		func() ([]byte, []int) { return NewEncoder(1, 0).PutString("x").Finish() },
		func() ([]byte, []int) { return NewEncoder(1, 0).PutNewIdTyped("iface", 1, 2).Finish() },
	}
	for i, c := range cases {
		buf, _ := c()
		if len(buf) < 8 {
			t.Fatalf("case %d: len %d < 8", i, len(buf))
		}
		if len(buf)%4 != 0 {
			t.Fatalf("case %d: len %d not a multiple of 4", i, len(buf))
		}
	}
}
