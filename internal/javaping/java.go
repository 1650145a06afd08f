// Package javaping implements the Java Edition Server List Ping
// sequence: Handshake, Status Request, Status Response, Ping, Pong.
package javaping

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/dring/mcstatus/internal/pingerr"
	"github.com/dring/mcstatus/internal/resolver"
	"github.com/dring/mcstatus/internal/wire"
)

// protocolVersion is the handshake protocol version advertised to the
// server. Status requests are accepted by modern servers regardless of
// the exact value, so a fixed post-1.7 constant is sufficient.
const protocolVersion = 47

const defaultPort = 25565

const (
	packetIDHandshake = 0x00
	packetIDRequest   = 0x00
	packetIDResponse  = 0x00
	packetIDPing      = 0x01
	packetIDPong      = 0x01

	nextStateStatus = 1
)

// Config describes one Java Edition ping attempt.
type Config struct {
	// Address is host[:port]; a missing port defaults to 25565.
	Address string
	// Timeout bounds the TCP socket; zero means no deadline.
	Timeout time.Duration
}

// Version is the server's reported version block.
type Version struct {
	Name     string `json:"name"`
	Protocol int    `json:"protocol"`
}

// Player is one sampled online player.
type Player struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// Players is the server's reported player count and sample.
type Players struct {
	Max    int      `json:"max"`
	Online int      `json:"online"`
	Sample []Player `json:"sample"`
}

// Chat models Minecraft's recursive chat component format, collapsed to
// its flattened text. Real servers send either a bare JSON string or an
// object with a "text" field plus optional "extra" children.
type Chat struct {
	text string
}

// Text returns the flattened MOTD string.
func (c Chat) Text() string { return c.text }

// UnmarshalJSON accepts a bare string or a {"text","extra"} object,
// recursing into extra the way a server-side text renderer would.
func (c *Chat) UnmarshalJSON(data []byte) error {
	var asString string
	if err := json.Unmarshal(data, &asString); err == nil {
		c.text = asString
		return nil
	}

	var obj struct {
		Text  string `json:"text"`
		Extra []Chat `json:"extra"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	var b strings.Builder
	b.WriteString(obj.Text)
	for _, e := range obj.Extra {
		b.WriteString(e.text)
	}
	c.text = b.String()
	return nil
}

// ModInfo describes a Forge-modded server's mod list, when present.
type ModInfo struct {
	Type string    `json:"type"`
	Mods []ModItem `json:"modList"`
}

// ModItem is one entry of a Forge mod list.
type ModItem struct {
	ModID   string `json:"modid"`
	Version string `json:"version"`
}

// Response is the decoded JSON status payload.
type Response struct {
	Version            Version  `json:"version"`
	Players            Players  `json:"players"`
	Description        Chat     `json:"description"`
	Favicon            string   `json:"favicon"`
	ModInfo            *ModInfo `json:"modinfo"`
	EnforcesSecureChat *bool    `json:"enforcesSecureChat"`
	PreviewsChat       *bool    `json:"previewsChat"`
}

// Ping performs one Java Edition status ping and returns the measured
// latency (Ping packet sent to Pong packet received, not total
// connection time) alongside the decoded response.
func Ping(ctx context.Context, res *resolver.Resolver, cfg Config) (uint64, Response, error) {
	host, port, err := splitHostPort(cfg.Address)
	if err != nil {
		return 0, Response{}, err
	}
	originalHost := host

	dialHost, dialPort := host, port
	if target, ok := resolveSRV(ctx, res, host); ok {
		dialHost, dialPort = target.Target, target.Port
	}

	ip, err := res.LookupIP(ctx, dialHost)
	if err != nil {
		return 0, Response{}, err
	}

	dialer := net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(ip.String(), strconv.Itoa(int(dialPort))))
	if err != nil {
		return 0, Response{}, pingerr.New(pingerr.Io, "javaping.dial", err)
	}
	defer conn.Close()

	if cfg.Timeout > 0 {
		if err := conn.SetDeadline(time.Now().Add(cfg.Timeout)); err != nil {
			return 0, Response{}, pingerr.New(pingerr.Io, "javaping.SetDeadline", err)
		}
	}
	if deadline, ok := ctx.Deadline(); ok && (cfg.Timeout <= 0 || deadline.Before(time.Now().Add(cfg.Timeout))) {
		_ = conn.SetDeadline(deadline)
	}

	if err := writeHandshake(conn, originalHost, port); err != nil {
		return 0, Response{}, err
	}
	if err := writeRequest(conn); err != nil {
		return 0, Response{}, err
	}

	resp, err := readResponse(conn)
	if err != nil {
		return 0, Response{}, err
	}

	nonce := time.Now().UnixNano()
	pingSentAt := time.Now()
	if err := writePing(conn, nonce); err != nil {
		return 0, Response{}, err
	}
	if err := readPong(conn, nonce); err != nil {
		return 0, Response{}, err
	}
	latency := time.Since(pingSentAt)

	return uint64(latency.Milliseconds()), resp, nil
}

func resolveSRV(ctx context.Context, res *resolver.Resolver, host string) (resolver.SRVTarget, bool) {
	if net.ParseIP(host) != nil {
		return resolver.SRVTarget{}, false
	}
	targets := res.LookupSRV(ctx, fmt.Sprintf("_minecraft._tcp.%s.", host))
	if len(targets) == 0 {
		return resolver.SRVTarget{}, false
	}
	return targets[0], true
}

func splitHostPort(address string) (string, uint16, error) {
	if address == "" {
		return "", 0, pingerr.New(pingerr.InvalidAddress, "javaping.splitHostPort", nil)
	}
	host, portStr, err := net.SplitHostPort(address)
	if err != nil {
		if len(address) >= 2 && address[0] == '[' && address[len(address)-1] == ']' {
			return address[1 : len(address)-1], defaultPort, nil
		}
		return address, defaultPort, nil
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return "", 0, pingerr.New(pingerr.InvalidAddress, "javaping.splitHostPort", err)
	}
	return host, uint16(port), nil
}

func writeHandshake(conn net.Conn, host string, port uint16) error {
	body := &bytes.Buffer{}
	if err := wire.WriteVarInt(body, protocolVersion); err != nil {
		return err
	}
	if err := wire.WriteString(body, host); err != nil {
		return err
	}
	if err := binary.Write(body, binary.BigEndian, port); err != nil {
		return pingerr.New(pingerr.Io, "javaping.writeHandshake", err)
	}
	if err := wire.WriteVarInt(body, nextStateStatus); err != nil {
		return err
	}
	return writePacket(conn, packetIDHandshake, body.Bytes())
}

func writeRequest(conn net.Conn) error {
	return writePacket(conn, packetIDRequest, nil)
}

func writePing(conn net.Conn, nonce int64) error {
	body := &bytes.Buffer{}
	if err := binary.Write(body, binary.BigEndian, nonce); err != nil {
		return pingerr.New(pingerr.Io, "javaping.writePing", err)
	}
	return writePacket(conn, packetIDPing, body.Bytes())
}

func writePacket(conn net.Conn, id int32, payload []byte) error {
	body := &bytes.Buffer{}
	if err := wire.WriteVarInt(body, id); err != nil {
		return err
	}
	body.Write(payload)
	if err := wire.WritePacket(conn, body.Bytes()); err != nil {
		return pingerr.New(pingerr.Io, "javaping.writePacket", err)
	}
	return nil
}

func readResponse(conn net.Conn) (Response, error) {
	payload, err := wire.ReadPacket(conn)
	if err != nil {
		return Response{}, err
	}
	id, body, err := splitPacketID(payload)
	if err != nil {
		return Response{}, err
	}
	if id != packetIDResponse {
		return Response{}, pingerr.New(pingerr.InvalidPacket, "javaping.readResponse", nil)
	}
	jsonStr, err := wire.ReadString(bytes.NewReader(body))
	if err != nil {
		return Response{}, err
	}
	var resp Response
	if err := json.Unmarshal([]byte(jsonStr), &resp); err != nil {
		return Response{}, pingerr.New(pingerr.JsonErr, "javaping.readResponse", err)
	}
	return resp, nil
}

func readPong(conn net.Conn, wantNonce int64) error {
	payload, err := wire.ReadPacket(conn)
	if err != nil {
		return err
	}
	id, body, err := splitPacketID(payload)
	if err != nil {
		return err
	}
	if id != packetIDPong {
		return pingerr.New(pingerr.InvalidPacket, "javaping.readPong", nil)
	}
	var gotNonce int64
	if err := binary.Read(bytes.NewReader(body), binary.BigEndian, &gotNonce); err != nil {
		return pingerr.New(pingerr.Io, "javaping.readPong", err)
	}
	if gotNonce != wantNonce {
		return pingerr.New(pingerr.InvalidPacket, "javaping.readPong", nil)
	}
	return nil
}

func splitPacketID(payload []byte) (int32, []byte, error) {
	r := bytes.NewReader(payload)
	id, err := wire.ReadVarInt(r)
	if err != nil {
		return 0, nil, err
	}
	rest := payload[len(payload)-r.Len():]
	return id, rest, nil
}
