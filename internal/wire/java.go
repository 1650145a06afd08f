// Package wire implements the two framing dialects Minecraft uses on the
// wire: Java Edition's VarInt-prefixed packet stream, and Bedrock
// Edition's fixed-layout RakNet unconnected ping/pong datagrams.
package wire

import (
	"io"
	"math"

	"github.com/dring/mcstatus/internal/pingerr"
)

// MaxVarIntBytes is the maximum number of bytes a Minecraft VarInt may
// occupy on the wire.
const MaxVarIntBytes = 5

// WriteVarInt writes v as Minecraft's little-endian base-128 signed
// VarInt encoding.
func WriteVarInt(w io.Writer, v int32) error {
	u := uint32(v)
	var buf [MaxVarIntBytes]byte
	n := 0
	for {
		if u&^0x7F == 0 {
			buf[n] = byte(u)
			n++
			break
		}
		buf[n] = byte(u&0x7F) | 0x80
		u >>= 7
		n++
	}
	_, err := w.Write(buf[:n])
	return err
}

// ReadVarInt reads a Minecraft VarInt. A 5th byte still carrying the
// continuation bit is pingerr.InvalidVarInt.
func ReadVarInt(r io.Reader) (int32, error) {
	var result int32
	var buf [1]byte
	for i := 0; i < MaxVarIntBytes; i++ {
		if _, err := io.ReadFull(r, buf[:]); err != nil {
			return 0, pingerr.New(pingerr.Io, "wire.ReadVarInt", err)
		}
		b := buf[0]
		result |= int32(b&0x7F) << (7 * uint(i))
		if b&0x80 == 0 {
			return result, nil
		}
	}
	return 0, pingerr.New(pingerr.InvalidVarInt, "wire.ReadVarInt", nil)
}

// WriteString writes a VarInt-length-prefixed UTF-8 string. A string
// whose byte length exceeds math.MaxInt32 is a framing error, reported
// as pingerr.InvalidPacket since framing is a wire-level concern.
func WriteString(w io.Writer, s string) error {
	if len(s) > math.MaxInt32 {
		return pingerr.New(pingerr.InvalidPacket, "wire.WriteString", nil)
	}
	if err := WriteVarInt(w, int32(len(s))); err != nil {
		return err
	}
	_, err := io.WriteString(w, s)
	return err
}

// ReadString reads a VarInt-length-prefixed UTF-8 string. A length
// prefix of zero or less is pingerr.InvalidPacket: every meaningful
// response this protocol expects carries non-empty data, so an empty
// string from the peer is treated as malformed rather than valid.
func ReadString(r io.Reader) (string, error) {
	length, err := ReadVarInt(r)
	if err != nil {
		return "", err
	}
	if length <= 0 {
		return "", pingerr.New(pingerr.InvalidPacket, "wire.ReadString", nil)
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", pingerr.New(pingerr.Io, "wire.ReadString", err)
	}
	return string(buf), nil
}

// WritePacket writes the outer VarInt-length-prefixed frame around an
// already-serialized packet payload (packet id + packet body).
func WritePacket(w io.Writer, payload []byte) error {
	if err := WriteVarInt(w, int32(len(payload))); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

// ReadPacket reads one VarInt-length-prefixed frame and returns its raw
// payload, unparsed.
func ReadPacket(r io.Reader) ([]byte, error) {
	length, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	if length < 0 {
		return nil, pingerr.New(pingerr.InvalidVarInt, "wire.ReadPacket", nil)
	}
	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, pingerr.New(pingerr.Io, "wire.ReadPacket", err)
	}
	return payload, nil
}
