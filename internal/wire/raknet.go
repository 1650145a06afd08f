package wire

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/dring/mcstatus/internal/pingerr"
)

// OfflineMessageDataID is RakNet's fixed 16-byte magic constant that
// frames every unconnected ping/pong exchange.
var OfflineMessageDataID = [16]byte{
	0x00, 0xff, 0xff, 0x00, 0xfe, 0xfe, 0xfe, 0xfe,
	0xfd, 0xfd, 0xfd, 0xfd, 0x12, 0x34, 0x56, 0x78,
}

const (
	idUnconnectedPing = 0x01
	idUnconnectedPong = 0x1C
)

// EncodeUnconnectedPing builds the C->S "Unconnected Ping" datagram:
// id || timestamp || magic || client GUID.
func EncodeUnconnectedPing(timestamp, clientGUID uint64) []byte {
	buf := new(bytes.Buffer)
	buf.Grow(1 + 8 + len(OfflineMessageDataID) + 8)
	buf.WriteByte(idUnconnectedPing)
	_ = binary.Write(buf, binary.BigEndian, timestamp)
	buf.Write(OfflineMessageDataID[:])
	_ = binary.Write(buf, binary.BigEndian, clientGUID)
	return buf.Bytes()
}

// DecodeUnconnectedPong parses the S->C "Unconnected Pong" datagram:
// id || server-time || server-GUID || magic || u16 payload-length ||
// payload. Any first byte other than 0x1C, or a magic mismatch, is
// pingerr.InvalidPacket.
func DecodeUnconnectedPong(buf []byte) (serverTime, serverGUID uint64, payload string, err error) {
	r := bytes.NewReader(buf)

	var id byte
	if id, err = r.ReadByte(); err != nil {
		return 0, 0, "", pingerr.New(pingerr.InvalidPacket, "wire.DecodeUnconnectedPong", err)
	}
	if id != idUnconnectedPong {
		return 0, 0, "", pingerr.New(pingerr.InvalidPacket, "wire.DecodeUnconnectedPong", nil)
	}

	if err = binary.Read(r, binary.BigEndian, &serverTime); err != nil {
		return 0, 0, "", pingerr.New(pingerr.InvalidPacket, "wire.DecodeUnconnectedPong", err)
	}
	if err = binary.Read(r, binary.BigEndian, &serverGUID); err != nil {
		return 0, 0, "", pingerr.New(pingerr.InvalidPacket, "wire.DecodeUnconnectedPong", err)
	}

	var magic [16]byte
	if _, err = io.ReadFull(r, magic[:]); err != nil {
		return 0, 0, "", pingerr.New(pingerr.InvalidPacket, "wire.DecodeUnconnectedPong", err)
	}
	if magic != OfflineMessageDataID {
		return 0, 0, "", pingerr.New(pingerr.InvalidPacket, "wire.DecodeUnconnectedPong", nil)
	}

	var payloadLen uint16
	if err = binary.Read(r, binary.BigEndian, &payloadLen); err != nil {
		return 0, 0, "", pingerr.New(pingerr.InvalidPacket, "wire.DecodeUnconnectedPong", err)
	}
	payloadBytes := make([]byte, payloadLen)
	if _, err = io.ReadFull(r, payloadBytes); err != nil {
		return 0, 0, "", pingerr.New(pingerr.InvalidPacket, "wire.DecodeUnconnectedPong", err)
	}

	return serverTime, serverGUID, string(payloadBytes), nil
}
