// Package httpapi exposes the ping core over HTTP: one route for Java
// Edition, one for Bedrock Edition, both returning a normalized
// PingResult as JSON.
package httpapi

import (
	"net/http"
	"time"

	"emperror.dev/errors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/dring/mcstatus/internal/bedrockping"
	"github.com/dring/mcstatus/internal/javaping"
	"github.com/dring/mcstatus/internal/mcping"
	"github.com/dring/mcstatus/internal/pingerr"
)

// Timeouts carries the per-route deadlines and Bedrock burst-send count loaded from
// config.Config, so that MCSTATUS_JAVA_OUTER_DEADLINE and friends
// actually reach the handlers that need them instead of being decoded
// and discarded.
type Timeouts struct {
	JavaOuterDeadline    time.Duration
	JavaSocketTimeout    time.Duration
	BedrockSocketTimeout time.Duration
	BedrockTries         uint32
}

// DefaultTimeouts mirrors config.Config's own defaults, for callers
// (tests, one-off tools) that don't load a Config.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		JavaOuterDeadline:    5 * time.Second,
		JavaSocketTimeout:    1 * time.Second,
		BedrockSocketTimeout: 5 * time.Second,
		BedrockTries:         bedrockping.DefaultTries,
	}
}

// Server wires a Pinger into a gin router.
type Server struct {
	pinger   *mcping.Pinger
	log      *zap.SugaredLogger
	engine   *gin.Engine
	timeouts Timeouts
}

// New builds a Server around the given Pinger. A nil logger is replaced
// with a no-op one. A zero Timeouts is replaced with DefaultTimeouts.
func New(pinger *mcping.Pinger, logger *zap.Logger, timeouts Timeouts) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeouts == (Timeouts{}) {
		timeouts = DefaultTimeouts()
	}
	s := &Server{pinger: pinger, log: logger.Sugar(), timeouts: timeouts}
	s.engine = gin.New()
	s.engine.Use(gin.Recovery())
	s.engine.GET("/api/java/:address", s.handleJava)
	s.engine.GET("/api/bedrock/:address", s.handleBedrock)
	return s
}

// Handler returns the underlying http.Handler for use with http.Server.
func (s *Server) Handler() http.Handler { return s.engine }

type pingResponse struct {
	Latency uint64         `json:"latency"`
	Players playersPayload `json:"players"`
	MOTD    string         `json:"motd"`
	Icon    string         `json:"icon,omitempty"`
	Version versionPayload `json:"version"`
}

type playersPayload struct {
	Online int              `json:"online"`
	Max    int              `json:"maximum"`
	Sample []samplePlayer   `json:"sample"`
}

type samplePlayer struct {
	UUID string `json:"uuid"`
	Name string `json:"name"`
}

type versionPayload struct {
	Protocol  int    `json:"protocol"`
	Broadcast string `json:"broadcast"`
}

func toPayload(r mcping.PingResult) pingResponse {
	sample := make([]samplePlayer, 0, len(r.Players.Sample))
	for _, pl := range r.Players.Sample {
		sample = append(sample, samplePlayer{UUID: pl.ID, Name: pl.Name})
	}
	return pingResponse{
		Latency: r.LatencyMS,
		Players: playersPayload{Online: r.Players.Online, Max: r.Players.Max, Sample: sample},
		MOTD:    r.MOTD,
		Icon:    r.Icon,
		Version: versionPayload{Protocol: r.Version.Protocol, Broadcast: r.Version.Broadcast},
	}
}

func (s *Server) handleJava(c *gin.Context) {
	address := c.Param("address")
	cfg := javaping.Config{Address: address, Timeout: s.timeouts.JavaSocketTimeout}
	result, err := s.pinger.PingJavaWithDeadline(c.Request.Context(), cfg, s.timeouts.JavaOuterDeadline)
	if err != nil {
		s.respondFailure(c, address, err)
		return
	}
	c.JSON(http.StatusOK, toPayload(result))
}

func (s *Server) handleBedrock(c *gin.Context) {
	address := c.Param("address")
	cfg := bedrockping.Config{Address: address, Timeout: s.timeouts.BedrockSocketTimeout, Tries: s.timeouts.BedrockTries}
	result, err := s.pinger.PingBedrock(c.Request.Context(), cfg)
	if err != nil {
		s.respondFailure(c, address, err)
		return
	}
	c.JSON(http.StatusOK, toPayload(result))
}

// respondFailure mirrors the original service's convention: a ping that
// simply could not reach or parse the target server is still a 200 with
// an "error" JSON body, since the caller asked a real question
// ("is this server up?") and got a real answer ("no"). An address that
// cannot be parsed is the caller's mistake and gets a 400 instead.
func (s *Server) respondFailure(c *gin.Context, address string, err error) {
	wrapped := errors.Wrapf(err, "pinging %s", address)

	if pingerr.Is(err, pingerr.InvalidAddress) {
		c.JSON(http.StatusBadRequest, gin.H{"error": wrapped.Error()})
		return
	}

	s.log.Debugw("ping failed", "address", address, "error", wrapped)
	c.JSON(http.StatusOK, gin.H{"error": wrapped.Error()})
}
