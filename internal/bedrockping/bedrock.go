// Package bedrockping implements Bedrock Edition's RakNet "Unconnected
// Ping" / "Unconnected Pong" exchange over UDP.
package bedrockping

import (
	"context"
	"errors"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/dring/mcstatus/internal/pingerr"
	"github.com/dring/mcstatus/internal/resolver"
	"github.com/dring/mcstatus/internal/wire"
)

const defaultPort = 19132

const (
	// DefaultTries is how many Unconnected Ping datagrams are sent before
	// a single recv, to survive UDP packet loss without waiting for each
	// individual reply.
	DefaultTries = 5
	// DefaultWaitBetweenTries spaces the burst sends apart.
	DefaultWaitBetweenTries = 10 * time.Millisecond
)

const recvBufferSize = 1024

// DefaultBindCandidates mirrors the original implementation's fallback
// of trying a short run of local ports on the unspecified address
// (0.0.0.0) in case one is already in use by another process on the host.
func DefaultBindCandidates() []*net.UDPAddr {
	return []*net.UDPAddr{
		{IP: net.IPv4zero, Port: 25567},
		{IP: net.IPv4zero, Port: 25568},
		{IP: net.IPv4zero, Port: 25569},
	}
}

// Config describes one Bedrock ping attempt.
type Config struct {
	Address          string
	Timeout          time.Duration
	Tries            uint32
	WaitBetweenTries time.Duration
	BindCandidates   []*net.UDPAddr
}

// Edition distinguishes the Bedrock server flavor reported in the pong
// payload's first field.
type Edition int

const (
	PocketEdition Edition = iota
	EducationEdition
	OtherEdition
)

func parseEdition(raw string) Edition {
	switch strings.ToUpper(raw) {
	case "MCPE":
		return PocketEdition
	case "MCEE":
		return EducationEdition
	default:
		return OtherEdition
	}
}

// Response is the decoded, semicolon-delimited Unconnected Pong payload.
// Fields beyond the first four are optional: servers vary in how much
// they report, and a short payload is still a valid response.
type Response struct {
	Edition         Edition
	EditionRaw      string
	MOTD1           string
	ProtocolVersion *int64
	VersionName     string
	PlayersOnline   *int64
	PlayersMax      *int64
	ServerID        *int64
	MOTD2           *string
	GameMode        *string
	GameModeID      *int64
	PortV4          *uint16
	PortV6          *uint16
}

// Extract parses the semicolon-separated Bedrock status payload. At
// least 4 fields (edition, motd_1, protocol_version, version_name) are
// required; a shorter payload is not a status response at all, and is
// reported as Io("Invalid Payload") rather than InvalidPacket, matching
// the original implementation's io::Error::other("Invalid Payload").
func Extract(payload string) (Response, error) {
	fields := strings.Split(payload, ";")
	if len(fields) < 4 {
		return Response{}, pingerr.New(pingerr.Io, "bedrockping.Extract", errors.New("Invalid Payload"))
	}

	resp := Response{
		EditionRaw:  fields[0],
		Edition:     parseEdition(fields[0]),
		MOTD1:       fields[1],
		VersionName: fields[3],
	}
	if v, err := strconv.ParseInt(fields[2], 10, 64); err == nil {
		resp.ProtocolVersion = &v
	}
	if len(fields) > 4 {
		if v, err := strconv.ParseInt(fields[4], 10, 64); err == nil {
			resp.PlayersOnline = &v
		}
	}
	if len(fields) > 5 {
		if v, err := strconv.ParseInt(fields[5], 10, 64); err == nil {
			resp.PlayersMax = &v
		}
	}
	if len(fields) > 6 {
		if v, err := strconv.ParseInt(fields[6], 10, 64); err == nil {
			resp.ServerID = &v
		}
	}
	if len(fields) > 7 {
		resp.MOTD2 = &fields[7]
	}
	if len(fields) > 8 {
		resp.GameMode = &fields[8]
	}
	if len(fields) > 9 {
		if v, err := strconv.ParseInt(fields[9], 10, 64); err == nil {
			resp.GameModeID = &v
		}
	}
	if len(fields) > 10 {
		if v, err := strconv.ParseUint(fields[10], 10, 16); err == nil {
			p := uint16(v)
			resp.PortV4 = &p
		}
	}
	if len(fields) > 11 {
		if v, err := strconv.ParseUint(fields[11], 10, 16); err == nil {
			p := uint16(v)
			resp.PortV6 = &p
		}
	}

	return resp, nil
}

// Ping performs one Bedrock Unconnected Ping burst and returns the
// measured latency (first send to pong receipt) alongside the decoded
// response.
func Ping(ctx context.Context, res *resolver.Resolver, cfg Config) (uint64, Response, error) {
	host, port, err := splitHostPort(cfg.Address)
	if err != nil {
		return 0, Response{}, err
	}

	ip, err := res.LookupIP(ctx, host)
	if err != nil {
		return 0, Response{}, err
	}

	tries := cfg.Tries
	if tries == 0 {
		tries = DefaultTries
	}
	wait := cfg.WaitBetweenTries
	if wait == 0 {
		wait = DefaultWaitBetweenTries
	}
	candidates := cfg.BindCandidates
	if len(candidates) == 0 {
		candidates = DefaultBindCandidates()
	}

	conn, err := bindFirstAvailable(candidates)
	if err != nil {
		return 0, Response{}, err
	}
	defer conn.Close()

	remote := &net.UDPAddr{IP: ip, Port: int(port)}
	if err := conn.Connect(remote); err != nil {
		return 0, Response{}, err
	}

	if cfg.Timeout > 0 {
		if err := conn.SetDeadline(time.Now().Add(cfg.Timeout)); err != nil {
			return 0, Response{}, pingerr.New(pingerr.Io, "bedrockping.SetDeadline", err)
		}
	}
	if deadline, ok := ctx.Deadline(); ok && (cfg.Timeout <= 0 || deadline.Before(time.Now().Add(cfg.Timeout))) {
		_ = conn.SetDeadline(deadline)
	}

	clientGUID := uint64(time.Now().UnixNano())
	var firstSendAt time.Time
	for i := uint32(0); i < tries; i++ {
		ping := wire.EncodeUnconnectedPing(uint64(time.Now().UnixMilli()), clientGUID)
		if i == 0 {
			firstSendAt = time.Now()
		}
		if _, err := conn.Write(ping); err != nil {
			return 0, Response{}, pingerr.New(pingerr.Io, "bedrockping.send", err)
		}
		if wait > 0 && i < tries-1 {
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return 0, Response{}, pingerr.New(pingerr.TimedOut, "bedrockping.send", ctx.Err())
			}
		}
	}

	buf := make([]byte, recvBufferSize)
	n, err := conn.Read(buf)
	if err != nil {
		return 0, Response{}, pingerr.New(pingerr.Io, "bedrockping.recv", err)
	}
	latency := time.Since(firstSendAt)

	_, _, payload, err := wire.DecodeUnconnectedPong(buf[:n])
	if err != nil {
		return 0, Response{}, err
	}

	resp, err := Extract(payload)
	if err != nil {
		return 0, Response{}, err
	}

	return uint64(latency.Milliseconds()), resp, nil
}

func splitHostPort(address string) (string, uint16, error) {
	if address == "" {
		return "", 0, pingerr.New(pingerr.InvalidAddress, "bedrockping.splitHostPort", nil)
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
		return "", 0, pingerr.New(pingerr.InvalidAddress, "bedrockping.splitHostPort", err)
	}
	return host, uint16(port), nil
}

func bindFirstAvailable(candidates []*net.UDPAddr) (*boundConn, error) {
	var lastErr error
	for _, addr := range candidates {
		conn, err := net.ListenUDP("udp", addr)
		if err != nil {
			lastErr = err
			continue
		}
		return &boundConn{conn: conn}, nil
	}
	return nil, pingerr.New(pingerr.Io, "bedrockping.bind", lastErr)
}

// boundConn adapts a locally-bound *net.UDPConn (no fixed peer at bind
// time, since the bind candidates only fix the local port) into the
// connected-style Write/Read Ping needs, by recording the remote
// address on Connect and using WriteTo/ReadFrom underneath.
type boundConn struct {
	conn   *net.UDPConn
	remote *net.UDPAddr
}

func (b *boundConn) Connect(remote *net.UDPAddr) error {
	b.remote = remote
	return nil
}

func (b *boundConn) SetDeadline(t time.Time) error { return b.conn.SetDeadline(t) }

func (b *boundConn) Write(p []byte) (int, error) {
	return b.conn.WriteTo(p, b.remote)
}

func (b *boundConn) Read(p []byte) (int, error) {
	for {
		n, from, err := b.conn.ReadFrom(p)
		if err != nil {
			return n, err
		}
		if udpAddr, ok := from.(*net.UDPAddr); ok && b.remote != nil && !udpAddr.IP.Equal(b.remote.IP) {
			continue
		}
		return n, nil
	}
}

func (b *boundConn) Close() error { return b.conn.Close() }
