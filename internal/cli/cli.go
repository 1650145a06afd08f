// Package cli is the interactive terminal client kept from the teacher
// repo, retargeted to call internal/mcping instead of inline protocol
// code. The one-shot --healthcheck mode lives in cmd/uwp-tcp-con, not
// in this package.
package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dring/mcstatus/internal/bedrockping"
	"github.com/dring/mcstatus/internal/javaping"
	"github.com/dring/mcstatus/internal/mcping"
	"github.com/dring/mcstatus/internal/resolver"
)

// Edition selects which pinger a query uses.
type Edition string

const (
	EditionBedrock Edition = "bedrock"
	EditionJava    Edition = "java"
)

func defaultPort(edition Edition) int {
	if edition == EditionJava {
		return 25565
	}
	return 19132
}

func parsePort(value string) (int, error) {
	port, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("port must be a number: %w", err)
	}
	if port < 1 || port > 65535 {
		return 0, errors.New("port must be between 1 and 65535")
	}
	return port, nil
}

// App is the interactive query client.
type App struct {
	pinger       *mcping.Pinger
	queryTimeout time.Duration
}

// NewApp builds an App around a freshly constructed resolver.
func NewApp() *App {
	return &App{
		pinger:       mcping.New(resolver.New()),
		queryTimeout: 5 * time.Second,
	}
}

// Run drives the interactive query loop until the user exits.
func (a *App) Run() error {
	for {
		config, err := a.collectConfig()
		if err != nil {
			if errors.Is(err, errAborted) {
				return nil
			}
			return err
		}

		if err := a.executeDirect(config); err != nil {
			if errors.Is(err, errAborted) {
				return nil
			}
			return err
		}

		again, err := a.askAgain()
		if err != nil {
			if errors.Is(err, errAborted) {
				return nil
			}
			return err
		}
		if !again {
			return nil
		}
	}
}

// DirectConfig is one interactively-collected query.
type DirectConfig struct {
	Host    string
	Port    int
	Edition Edition
}

func (a *App) collectConfig() (DirectConfig, error) {
	edition, err := a.askEdition()
	if err != nil {
		return DirectConfig{}, err
	}

	host, err := a.askHost()
	if err != nil {
		return DirectConfig{}, err
	}

	port, err := a.askPort(edition)
	if err != nil {
		return DirectConfig{}, err
	}

	return DirectConfig{Host: host, Port: port, Edition: edition}, nil
}

func (a *App) askEdition() (Edition, error) {
	index, err := selectOption("Edition", []string{"Bedrock", "Java"})
	if err != nil {
		return "", err
	}
	if index == 1 {
		return EditionJava, nil
	}
	return EditionBedrock, nil
}

func (a *App) askHost() (string, error) {
	var errMsg string
	for {
		value, err := promptInput("Server host", "e.g. play.example.com", errMsg)
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(value) == "" {
			errMsg = "Host cannot be empty"
			continue
		}
		return value, nil
	}
}

func (a *App) askPort(edition Edition) (int, error) {
	want := defaultPort(edition)
	var errMsg string
	for {
		value, err := promptInput(fmt.Sprintf("Port (%d)", want), "Leave empty for the default port", errMsg)
		if err != nil {
			return 0, err
		}
		if strings.TrimSpace(value) == "" {
			return want, nil
		}
		port, err := parsePort(value)
		if err != nil {
			errMsg = err.Error()
			continue
		}
		return port, nil
	}
}

func (a *App) askAgain() (bool, error) {
	index, err := selectOption("Next step", []string{"New query", "Exit"})
	if err != nil {
		return false, err
	}
	return index == 0, nil
}

func (a *App) executeDirect(config DirectConfig) error {
	ctx, cancel := context.WithTimeout(context.Background(), a.queryTimeout)
	defer cancel()

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)

	resultText, err := withSpinner("Query", "Querying server", 120*time.Millisecond, func() (string, error) {
		var (
			result mcping.PingResult
			err    error
		)
		switch config.Edition {
		case EditionJava:
			result, err = a.pinger.PingJavaWithDeadline(ctx, javaping.Config{Address: address, Timeout: time.Second}, a.queryTimeout)
		default:
			result, err = a.pinger.PingBedrock(ctx, bedrockping.Config{Address: address, Timeout: a.queryTimeout})
		}
		if err != nil {
			return "", err
		}
		return formatResult(config.Edition, result), nil
	})
	if err != nil {
		return err
	}

	renderTextPage("Result", resultText)
	return nil
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func formatResult(edition Edition, result mcping.PingResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Edition: %s\n", capitalize(string(edition)))
	fmt.Fprintf(&b, "MOTD: %s\n", result.MOTD)
	fmt.Fprintf(&b, "Version: %s (protocol %d)\n", result.Version.Broadcast, result.Version.Protocol)
	fmt.Fprintf(&b, "Players: %d/%d\n", result.Players.Online, result.Players.Max)
	fmt.Fprintf(&b, "Latency(ms): %d\n", result.LatencyMS)
	if len(result.Players.Sample) > 0 {
		b.WriteString("Sample:\n")
		for _, p := range result.Players.Sample {
			fmt.Fprintf(&b, "  - %s (%s)\n", p.Name, p.ID)
		}
	}
	return b.String()
}
