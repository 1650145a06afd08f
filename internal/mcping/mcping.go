// Package mcping is the ping orchestrator: it drives the Java or
// Bedrock pinger and normalizes either response into one common shape.
package mcping

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dring/mcstatus/internal/bedrockping"
	"github.com/dring/mcstatus/internal/javaping"
	"github.com/dring/mcstatus/internal/pingerr"
	"github.com/dring/mcstatus/internal/resolver"
)

// unknownCount is the sentinel used where a Bedrock pong omits a count
// field the Java response always carries.
const unknownCount = -1

// PlayersResult is the normalized player-count block.
type PlayersResult struct {
	Online int
	Max    int
	Sample []PlayerResult
}

// PlayerResult is one normalized sampled player.
type PlayerResult struct {
	Name string
	ID   string
}

// VersionResult is the normalized version block.
type VersionResult struct {
	Protocol  int
	Broadcast string
}

// ChatResult carries the Java chat-session flags; Bedrock never reports
// these, so both fields are false for a Bedrock result.
type ChatResult struct {
	Signing bool
	Preview bool
}

// PingResult is the normalized shape both pingers are reduced to.
type PingResult struct {
	LatencyMS uint64
	Players   PlayersResult
	MOTD      string
	Icon      string
	Version   VersionResult
	Chat      ChatResult
}

// Pinger is a tiny facade over the Java and Bedrock pingers, sharing one
// resolver across every call it serves.
type Pinger struct {
	Resolver *resolver.Resolver
}

// New builds a Pinger around an already-constructed resolver.
func New(r *resolver.Resolver) *Pinger {
	return &Pinger{Resolver: r}
}

// PingJava pings a Java Edition server and returns the normalized result.
func (p *Pinger) PingJava(ctx context.Context, cfg javaping.Config) (PingResult, error) {
	latencyMS, resp, err := javaping.Ping(ctx, p.Resolver, cfg)
	if err != nil {
		return PingResult{}, err
	}
	return normalizeJava(latencyMS, resp), nil
}

// PingBedrock pings a Bedrock Edition server and returns the normalized
// result.
func (p *Pinger) PingBedrock(ctx context.Context, cfg bedrockping.Config) (PingResult, error) {
	latencyMS, resp, err := bedrockping.Ping(ctx, p.Resolver, cfg)
	if err != nil {
		return PingResult{}, err
	}
	return normalizeBedrock(latencyMS, resp), nil
}

// PingJavaWithDeadline races PingJava against an outer wall-clock
// deadline. If the deadline wins, the ping is cancelled at its next
// suspension point and pingerr.TimedOut is returned instead of
// whatever i/o-timeout error the abandoned socket produced.
func (p *Pinger) PingJavaWithDeadline(ctx context.Context, cfg javaping.Config, deadline time.Duration) (PingResult, error) {
	outerCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	type outcome struct {
		result PingResult
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := p.PingJava(outerCtx, cfg)
		done <- outcome{result, err}
	}()

	select {
	case o := <-done:
		return o.result, o.err
	case <-outerCtx.Done():
		return PingResult{}, pingerr.New(pingerr.TimedOut, "mcping.PingJavaWithDeadline", outerCtx.Err())
	}
}

func normalizeJava(latencyMS uint64, resp javaping.Response) PingResult {
	sample := make([]PlayerResult, 0, len(resp.Players.Sample))
	for _, pl := range resp.Players.Sample {
		id := pl.ID
		if parsed, err := uuid.Parse(pl.ID); err == nil {
			id = parsed.String()
		}
		sample = append(sample, PlayerResult{Name: pl.Name, ID: id})
	}

	signing := false
	if resp.EnforcesSecureChat != nil {
		signing = *resp.EnforcesSecureChat
	}
	preview := false
	if resp.PreviewsChat != nil {
		preview = *resp.PreviewsChat
	}

	return PingResult{
		LatencyMS: latencyMS,
		Players: PlayersResult{
			Online: resp.Players.Online,
			Max:    resp.Players.Max,
			Sample: sample,
		},
		MOTD: resp.Description.Text(),
		Icon: resp.Favicon,
		Version: VersionResult{
			Protocol:  resp.Version.Protocol,
			Broadcast: resp.Version.Name,
		},
		Chat: ChatResult{Signing: signing, Preview: preview},
	}
}

func normalizeBedrock(latencyMS uint64, resp bedrockping.Response) PingResult {
	online := unknownCount
	if resp.PlayersOnline != nil {
		online = int(*resp.PlayersOnline)
	}
	max := unknownCount
	if resp.PlayersMax != nil {
		max = int(*resp.PlayersMax)
	}
	protocol := unknownCount
	if resp.ProtocolVersion != nil {
		protocol = int(*resp.ProtocolVersion)
	}

	return PingResult{
		LatencyMS: latencyMS,
		Players: PlayersResult{
			Online: online,
			Max:    max,
			Sample: nil,
		},
		MOTD: resp.MOTD1,
		Icon: "",
		Version: VersionResult{
			Protocol:  protocol,
			Broadcast: resp.VersionName,
		},
		Chat: ChatResult{Signing: false, Preview: false},
	}
}
