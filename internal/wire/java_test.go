package wire

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/dring/mcstatus/internal/pingerr"
)

func TestVarIntRoundTrip(t *testing.T) {
	values := []int32{0, 1, -1, 127, 128, 255, 25565, -25565, math.MaxInt32, math.MinInt32}
	for _, v := range values {
		buf := &bytes.Buffer{}
		if err := WriteVarInt(buf, v); err != nil {
			t.Fatalf("WriteVarInt(%d): %v", v, err)
		}
		got, err := ReadVarInt(bytes.NewReader(buf.Bytes()))
		if err != nil {
			t.Fatalf("ReadVarInt(%d): %v", v, err)
		}
		if got != v {
			t.Fatalf("round trip mismatch: wrote %d, read %d", v, got)
		}
	}
}

func TestVarIntNegativeIsFiveBytes(t *testing.T) {
	for _, v := range []int32{-1, -25565, math.MinInt32} {
		buf := &bytes.Buffer{}
		if err := WriteVarInt(buf, v); err != nil {
			t.Fatalf("WriteVarInt(%d): %v", v, err)
		}
		if buf.Len() != MaxVarIntBytes {
			t.Fatalf("expected %d-byte encoding for %d, got %d", MaxVarIntBytes, v, buf.Len())
		}
	}
}

func TestVarIntBoundaryTooLong(t *testing.T) {
	// Five bytes, all with the continuation bit set.
	raw := []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
	_, err := ReadVarInt(bytes.NewReader(raw))
	if !pingerr.Is(err, pingerr.InvalidVarInt) {
		t.Fatalf("expected InvalidVarInt, got %v", err)
	}
}

func TestStringRoundTrip(t *testing.T) {
	for _, s := range []string{"a", "hello world", strings.Repeat("x", 5000), "日本語"} {
		buf := &bytes.Buffer{}
		if err := WriteString(buf, s); err != nil {
			t.Fatalf("WriteString(%q): %v", s, err)
		}
		got, err := ReadString(bytes.NewReader(buf.Bytes()))
		if err != nil {
			t.Fatalf("ReadString(%q): %v", s, err)
		}
		if got != s {
			t.Fatalf("round trip mismatch: wrote %q, read %q", s, got)
		}
	}
}

func TestReadStringZeroLengthIsInvalid(t *testing.T) {
	buf := &bytes.Buffer{}
	if err := WriteVarInt(buf, 0); err != nil {
		t.Fatalf("WriteVarInt: %v", err)
	}
	_, err := ReadString(bytes.NewReader(buf.Bytes()))
	if !pingerr.Is(err, pingerr.InvalidPacket) {
		t.Fatalf("expected InvalidPacket for zero-length string, got %v", err)
	}
}

func TestPacketRoundTrip(t *testing.T) {
	payload := []byte{0x00, 'h', 'i'}
	buf := &bytes.Buffer{}
	if err := WritePacket(buf, payload); err != nil {
		t.Fatalf("WritePacket: %v", err)
	}
	got, err := ReadPacket(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("ReadPacket: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("round trip mismatch: wrote %v, read %v", payload, got)
	}
}
