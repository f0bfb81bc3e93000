package shmbackend

import "testing"

func TestRandomNameIsHexAndNonEmpty(t *testing.T) {
	name, err := randomName()
	if err != nil {
		t.Fatalf("randomName error: %v", err)
	}
	if len(name) != 16 {
		t.Fatalf("name length = %d, want 16 (8 random bytes hex-encoded)", len(name))
	}
	for _, r := range name {
		isHex := (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f')
		if !isHex {
			t.Fatalf("name %q contains non-hex rune %q", name, r)
		}
	}
}

func TestRandomNameIsNotConstant(t *testing.T) {
	a, err := randomName()
	if err != nil {
		t.Fatalf("randomName error: %v", err)
	}
	b, err := randomName()
	if err != nil {
		t.Fatalf("randomName error: %v", err)
	}
	if a == b {
		t.Fatalf("two consecutive random names collided: %q", a)
	}
}
