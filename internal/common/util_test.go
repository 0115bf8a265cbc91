package common

import (
	"bytes"
	"errors"
	"fmt"
	"testing"
)

// ---------- WipeByteArray ----------

func TestWipeByteArray_ZerosBuffer(t *testing.T) {
	buf := []byte("hunter2")
	WipeByteArray(buf)
	for i, v := range buf {
		if v != 0 {
			t.Fatalf("expected buf[%d]==0, got %d", i, v)
		}
	}
}

func TestWipeByteArray_NilSafe(t *testing.T) {
	WipeByteArray(nil)
}

// ---------- GenerateRandByteArray ----------

func TestGenerateRandByteArray_Basic(t *testing.T) {
	const n = 24
	buf := GenerateRandByteArray(n)
	if len(buf) != n {
		t.Fatalf("expected length %d, got %d", n, len(buf))
	}
}

func TestGenerateRandByteArray_ZeroSize(t *testing.T) {
	if buf := GenerateRandByteArray(0); len(buf) != 0 {
		t.Fatalf("expected empty slice, got %d bytes", len(buf))
	}
}

func TestGenerateRandByteArray_EntropyHint(t *testing.T) {
	const n = 32
	a := GenerateRandByteArray(n)
	b := GenerateRandByteArray(n)
	if bytes.Equal(a, b) {
		t.Logf("warning: two GenerateRandByteArray(%d) results are identical; extremely unlikely", n)
	}
}

// ---------- sentinel errors ----------

func TestSentinels_MatchThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("lookup user: %w", ErrorNotFound)
	if !errors.Is(wrapped, ErrorNotFound) {
		t.Fatalf("errors.Is failed through wrapping")
	}
	if errors.Is(wrapped, ErrorInternal) {
		t.Fatalf("distinct sentinels must not match")
	}
}
