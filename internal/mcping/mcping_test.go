package mcping

import (
	"context"
	"testing"
	"time"

	"github.com/dring/mcstatus/internal/bedrockping"
	"github.com/dring/mcstatus/internal/javaping"
	"github.com/dring/mcstatus/internal/pingerr"
	"github.com/dring/mcstatus/internal/resolver"
)

func int64Ptr(v int64) *int64 { return &v }
func boolPtr(v bool) *bool    { return &v }

func TestNormalizeJavaDefaultsChatFlagsFalse(t *testing.T) {
	resp := javaping.Response{
		Version: javaping.Version{Name: "1.19.4", Protocol: 762},
		Players: javaping.Players{Online: 5, Max: 20},
	}
	result := normalizeJava(12, resp)
	if result.Chat.Signing || result.Chat.Preview {
		t.Fatalf("expected both chat flags false by default, got %+v", result.Chat)
	}
	if result.Players.Online != 5 || result.Players.Max != 20 {
		t.Fatalf("unexpected players: %+v", result.Players)
	}
	if result.LatencyMS != 12 {
		t.Fatalf("unexpected latency: %d", result.LatencyMS)
	}
}

func TestNormalizeJavaHonorsExplicitChatFlags(t *testing.T) {
	resp := javaping.Response{
		EnforcesSecureChat: boolPtr(true),
		PreviewsChat:       boolPtr(true),
	}
	result := normalizeJava(0, resp)
	if !result.Chat.Signing || !result.Chat.Preview {
		t.Fatalf("expected both chat flags true, got %+v", result.Chat)
	}
}

func TestNormalizeJavaCanonicalizesValidUUIDs(t *testing.T) {
	resp := javaping.Response{
		Players: javaping.Players{
			Sample: []javaping.Player{{Name: "Steve", ID: "069a79f444e94726a5befca90e38aaf5"}},
		},
	}
	result := normalizeJava(0, resp)
	if result.Players.Sample[0].ID != "069a79f4-44e9-4726-a5be-fca90e38aaf5" {
		t.Fatalf("expected canonicalized uuid, got %q", result.Players.Sample[0].ID)
	}
}

func TestNormalizeJavaPassesThroughInvalidUUID(t *testing.T) {
	resp := javaping.Response{
		Players: javaping.Players{
			Sample: []javaping.Player{{Name: "Steve", ID: "not-a-uuid"}},
		},
	}
	result := normalizeJava(0, resp)
	if result.Players.Sample[0].ID != "not-a-uuid" {
		t.Fatalf("expected verbatim pass-through, got %q", result.Players.Sample[0].ID)
	}
}

func TestNormalizeBedrockMissingCountsAreMinusOne(t *testing.T) {
	resp := bedrockping.Response{
		MOTD1:       "hi",
		VersionName: "1.19",
	}
	result := normalizeBedrock(5, resp)
	if result.Players.Online != -1 || result.Players.Max != -1 || result.Version.Protocol != -1 {
		t.Fatalf("expected -1 sentinels, got %+v", result)
	}
	if result.Players.Sample != nil {
		t.Fatalf("expected nil sample for bedrock, got %+v", result.Players.Sample)
	}
	if result.Icon != "" {
		t.Fatalf("expected empty icon for bedrock, got %q", result.Icon)
	}
}

func TestNormalizeBedrockPresentCountsSurface(t *testing.T) {
	resp := bedrockping.Response{
		MOTD1:           "hi",
		VersionName:     "1.19",
		PlayersOnline:   int64Ptr(3),
		PlayersMax:      int64Ptr(10),
		ProtocolVersion: int64Ptr(503),
	}
	result := normalizeBedrock(5, resp)
	if result.Players.Online != 3 || result.Players.Max != 10 || result.Version.Protocol != 503 {
		t.Fatalf("unexpected normalized counts: %+v", result)
	}
}

func TestPingJavaWithDeadlineTimesOutAgainstAnUnresponsivePeer(t *testing.T) {
	// 192.0.2.0/24 is reserved (TEST-NET-1) and never responds, so the
	// outer deadline is what actually fires here rather than the socket
	// timeout or a connection refusal.
	cfg := javaping.Config{Address: "192.0.2.1:25565", Timeout: 5 * time.Second}
	pinger := New(resolver.New())
	_, err := pinger.PingJavaWithDeadline(context.Background(), cfg, 150*time.Millisecond)
	if !pingerr.Is(err, pingerr.TimedOut) {
		t.Fatalf("expected TimedOut from an unreachable outer-deadline-bound ping, got %v", err)
	}
}
