package javaping

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"net"
	"testing"
	"time"

	"github.com/dring/mcstatus/internal/pingerr"
	"github.com/dring/mcstatus/internal/resolver"
	"github.com/dring/mcstatus/internal/wire"
)

func startTestServer(t *testing.T, respond func(conn net.Conn)) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { ln.Close() })
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		respond(conn)
	}()
	return ln.Addr().String()
}

func readClientPacket(t *testing.T, conn net.Conn) (int32, []byte) {
	t.Helper()
	payload, err := wire.ReadPacket(conn)
	if err != nil {
		t.Fatalf("ReadPacket: %v", err)
	}
	id, body, err := splitPacketID(payload)
	if err != nil {
		t.Fatalf("splitPacketID: %v", err)
	}
	return id, body
}

func writeServerPacket(t *testing.T, conn net.Conn, id int32, body []byte) {
	t.Helper()
	buf := &bytes.Buffer{}
	if err := wire.WriteVarInt(buf, id); err != nil {
		t.Fatalf("WriteVarInt: %v", err)
	}
	buf.Write(body)
	if err := wire.WritePacket(conn, buf.Bytes()); err != nil {
		t.Fatalf("WritePacket: %v", err)
	}
}

func TestPingHappyPath(t *testing.T) {
	want := Response{
		Version: Version{Name: "1.19.4", Protocol: 762},
		Players: Players{Max: 20, Online: 3, Sample: []Player{{Name: "Steve", ID: "069a79f4-44e9-4726-a5be-fca90e38aaf5"}}},
		Description: Chat{text: "A Minecraft Server"},
	}
	wantJSON, err := json.Marshal(struct {
		Version     Version `json:"version"`
		Players     Players `json:"players"`
		Description string  `json:"description"`
	}{want.Version, want.Players, want.Description.Text()})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	addr := startTestServer(t, func(conn net.Conn) {
		// Handshake
		id, _ := readClientPacket(t, conn)
		if id != packetIDHandshake {
			t.Errorf("expected handshake packet, got %d", id)
		}
		// Request
		id, _ = readClientPacket(t, conn)
		if id != packetIDRequest {
			t.Errorf("expected request packet, got %d", id)
		}
		respBody := &bytes.Buffer{}
		if err := wire.WriteString(respBody, string(wantJSON)); err != nil {
			t.Errorf("WriteString: %v", err)
		}
		writeServerPacket(t, conn, packetIDResponse, respBody.Bytes())

		// Ping
		id, body := readClientPacket(t, conn)
		if id != packetIDPing {
			t.Errorf("expected ping packet, got %d", id)
		}
		var nonce int64
		if err := binary.Read(bytes.NewReader(body), binary.BigEndian, &nonce); err != nil {
			t.Errorf("read nonce: %v", err)
		}
		pongBody := &bytes.Buffer{}
		if err := binary.Write(pongBody, binary.BigEndian, nonce); err != nil {
			t.Errorf("write nonce: %v", err)
		}
		writeServerPacket(t, conn, packetIDPong, pongBody.Bytes())
	})

	res := resolver.New()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	latency, got, err := Ping(ctx, res, Config{Address: addr, Timeout: time.Second})
	if err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if got.Version != want.Version {
		t.Fatalf("unexpected version: %+v", got.Version)
	}
	if got.Players.Online != want.Players.Online || got.Players.Sample[0].ID != want.Players.Sample[0].ID {
		t.Fatalf("unexpected players: %+v", got.Players)
	}
	if got.Description.Text() != want.Description.Text() {
		t.Fatalf("unexpected description: %q", got.Description.Text())
	}
	_ = latency // latency is nondeterministic, only presence of the field matters here
}

func TestPingPongNonceMismatchIsInvalidPacket(t *testing.T) {
	addr := startTestServer(t, func(conn net.Conn) {
		readClientPacket(t, conn) // handshake
		readClientPacket(t, conn) // request
		respBody := &bytes.Buffer{}
		_ = wire.WriteString(respBody, `{"version":{"name":"x","protocol":1},"players":{"max":1,"online":0},"description":"hi"}`)
		writeServerPacket(t, conn, packetIDResponse, respBody.Bytes())

		readClientPacket(t, conn) // ping
		pongBody := &bytes.Buffer{}
		_ = binary.Write(pongBody, binary.BigEndian, int64(999999))
		writeServerPacket(t, conn, packetIDPong, pongBody.Bytes())
	})

	res := resolver.New()
	_, _, err := Ping(context.Background(), res, Config{Address: addr, Timeout: time.Second})
	if !pingerr.Is(err, pingerr.InvalidPacket) {
		t.Fatalf("expected InvalidPacket, got %v", err)
	}
}

func TestSplitHostPortDefaultsPort(t *testing.T) {
	host, port, err := splitHostPort("example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if host != "example.com" || port != defaultPort {
		t.Fatalf("unexpected split: %q %d", host, port)
	}
}

func TestSplitHostPortExplicitPort(t *testing.T) {
	host, port, err := splitHostPort("example.com:25566")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if host != "example.com" || port != 25566 {
		t.Fatalf("unexpected split: %q %d", host, port)
	}
}

func TestSplitHostPortEmptyIsInvalidAddress(t *testing.T) {
	_, _, err := splitHostPort("")
	if !pingerr.Is(err, pingerr.InvalidAddress) {
		t.Fatalf("expected InvalidAddress, got %v", err)
	}
}

func TestChatUnmarshalBareString(t *testing.T) {
	var c Chat
	if err := json.Unmarshal([]byte(`"hello"`), &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if c.Text() != "hello" {
		t.Fatalf("unexpected text: %q", c.Text())
	}
}

func TestChatUnmarshalObjectWithExtra(t *testing.T) {
	var c Chat
	if err := json.Unmarshal([]byte(`{"text":"A ","extra":[{"text":"Server"}]}`), &c); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if c.Text() != "A Server" {
		t.Fatalf("unexpected text: %q", c.Text())
	}
}

func TestPingDialFailureIsIoError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close() // guarantee nothing is listening

	res := resolver.New()
	_, _, err = Ping(context.Background(), res, Config{Address: addr, Timeout: 200 * time.Millisecond})
	if !pingerr.Is(err, pingerr.Io) {
		t.Fatalf("expected Io, got %v", err)
	}
}
