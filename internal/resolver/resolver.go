// Package resolver provides an asynchronous-safe DNS client for A/AAAA
// and SRV lookups, backed by a bounded in-memory cache. It is built on
// miekg/dns rather than net.Resolver so the upstream servers, retry
// count, and timeout are all explicitly controlled, matching the
// "configured against a public recursive resolver" design the core
// requires.
package resolver

import (
	"context"
	"net"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2"
	"github.com/miekg/dns"
	"go.uber.org/zap"

	"github.com/dring/mcstatus/internal/pingerr"
)

const (
	// DefaultCacheSize bounds the resolver's LRU cache at roughly the
	// working set of one process's worth of distinct hostnames.
	DefaultCacheSize = 1024
	// DefaultAttempts is the number of times a single query is retried
	// against a given upstream server before moving to the next one.
	DefaultAttempts = 3
	// DefaultCacheTTL bounds how long a resolved answer is trusted,
	// independent of whatever TTL the upstream record carried.
	DefaultCacheTTL = 5 * time.Minute
	// DefaultQueryTimeout bounds a single DNS exchange.
	DefaultQueryTimeout = 2 * time.Second
)

// cloudflareServers are the default upstream recursive resolvers, chosen
// to match the original implementation's ResolverConfig::cloudflare().
var cloudflareServers = []string{"1.1.1.1:53", "1.0.0.1:53"}

// SRVTarget is one (target host, port) pair from an SRV lookup.
type SRVTarget struct {
	Target string
	Port   uint16
}

type exchangeFunc func(ctx context.Context, m *dns.Msg, server string) (*dns.Msg, time.Duration, error)

// Resolver is constructed once by the caller (never a package-level
// singleton, so it stays injectable in tests) and shared across every
// ping it serves. Its cache is safe for concurrent use.
type Resolver struct {
	servers      []string
	attempts     int
	cacheTTL     time.Duration
	queryTimeout time.Duration
	log          *zap.SugaredLogger

	ipCache *lru.Cache[string, ipCacheEntry]
	exchange exchangeFunc
}

type ipCacheEntry struct {
	ip        net.IP
	expiresAt time.Time
}

// Option configures a Resolver at construction time.
type Option func(*Resolver)

// WithServers overrides the upstream DNS servers (host:port pairs).
func WithServers(servers ...string) Option {
	return func(r *Resolver) { r.servers = servers }
}

// WithAttempts overrides the per-server retry count.
func WithAttempts(attempts int) Option {
	return func(r *Resolver) { r.attempts = attempts }
}

// WithCacheSize overrides the bounded LRU cache capacity.
func WithCacheSize(size int) Option {
	return func(r *Resolver) {
		cache, err := lru.New[string, ipCacheEntry](size)
		if err == nil {
			r.ipCache = cache
		}
	}
}

// WithCacheTTL overrides how long a resolved IP is trusted.
func WithCacheTTL(ttl time.Duration) Option {
	return func(r *Resolver) { r.cacheTTL = ttl }
}

// WithLogger attaches a logger; a nil logger is replaced with a no-op one.
func WithLogger(logger *zap.Logger) Option {
	return func(r *Resolver) {
		if logger == nil {
			logger = zap.NewNop()
		}
		r.log = logger.Sugar()
	}
}

// New builds a Resolver against the default Cloudflare upstream servers.
func New(opts ...Option) *Resolver {
	cache, _ := lru.New[string, ipCacheEntry](DefaultCacheSize)
	r := &Resolver{
		servers:      cloudflareServers,
		attempts:     DefaultAttempts,
		cacheTTL:     DefaultCacheTTL,
		queryTimeout: DefaultQueryTimeout,
		log:          zap.NewNop().Sugar(),
		ipCache:      cache,
	}
	client := new(dns.Client)
	r.exchange = client.ExchangeContext
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// LookupIP resolves host to its first usable A or AAAA address. If host
// is already an IP literal it is returned immediately without a network
// round-trip.
func (r *Resolver) LookupIP(ctx context.Context, host string) (net.IP, error) {
	if ip := net.ParseIP(host); ip != nil {
		return ip, nil
	}

	if entry, ok := r.ipCache.Get(host); ok {
		if time.Now().Before(entry.expiresAt) {
			return entry.ip, nil
		}
		r.ipCache.Remove(host)
	}

	fqdn := dns.Fqdn(host)
	if ip, err := r.queryFirstIP(ctx, fqdn, dns.TypeA); err == nil {
		r.ipCache.Add(host, ipCacheEntry{ip: ip, expiresAt: time.Now().Add(r.cacheTTL)})
		return ip, nil
	}
	if ip, err := r.queryFirstIP(ctx, fqdn, dns.TypeAAAA); err == nil {
		r.ipCache.Add(host, ipCacheEntry{ip: ip, expiresAt: time.Now().Add(r.cacheTTL)})
		return ip, nil
	}

	r.log.Debugw("dns lookup failed for both A and AAAA", "host", host)
	return nil, pingerr.New(pingerr.DnsLookupFailed, "resolver.LookupIP", nil)
}

func (r *Resolver) queryFirstIP(ctx context.Context, fqdn string, qtype uint16) (net.IP, error) {
	msg, err := r.query(ctx, fqdn, qtype)
	if err != nil {
		return nil, err
	}
	for _, ans := range msg.Answer {
		switch rec := ans.(type) {
		case *dns.A:
			return rec.A, nil
		case *dns.AAAA:
			return rec.AAAA, nil
		}
	}
	return nil, pingerr.New(pingerr.DnsLookupFailed, "resolver.queryFirstIP", nil)
}

// LookupSRV resolves the fully-qualified SRV service name (e.g.
// "_minecraft._tcp.example.com."). It never returns an error for
// "not found" or for network failures — both collapse to an empty
// slice, because SRV is advisory for Java Edition.
func (r *Resolver) LookupSRV(ctx context.Context, name string) []SRVTarget {
	msg, err := r.query(ctx, dns.Fqdn(name), dns.TypeSRV)
	if err != nil {
		r.log.Debugw("srv lookup failed, treating as advisory empty result", "name", name, "error", err)
		return nil
	}

	targets := make([]SRVTarget, 0, len(msg.Answer))
	for _, ans := range msg.Answer {
		if rec, ok := ans.(*dns.SRV); ok {
			targets = append(targets, SRVTarget{
				Target: strings.TrimSuffix(rec.Target, "."),
				Port:   rec.Port,
			})
		}
	}
	sortSRVTargets(msg, targets)
	return targets
}

// sortSRVTargets orders by ascending priority then descending weight,
// per RFC 2782 — lowest priority value first, heaviest weight wins ties.
func sortSRVTargets(msg *dns.Msg, targets []SRVTarget) {
	type withMeta struct {
		SRVTarget
		priority, weight uint16
	}
	meta := make([]withMeta, 0, len(targets))
	idx := 0
	for _, ans := range msg.Answer {
		rec, ok := ans.(*dns.SRV)
		if !ok {
			continue
		}
		meta = append(meta, withMeta{SRVTarget: targets[idx], priority: rec.Priority, weight: rec.Weight})
		idx++
	}
	sort.SliceStable(meta, func(i, j int) bool {
		if meta[i].priority != meta[j].priority {
			return meta[i].priority < meta[j].priority
		}
		return meta[i].weight > meta[j].weight
	})
	for i, m := range meta {
		targets[i] = m.SRVTarget
	}
}

// query performs the DNS exchange against each configured server in
// turn, retrying each up to r.attempts times, and returns the first
// successful response with no error rcode.
func (r *Resolver) query(ctx context.Context, fqdn string, qtype uint16) (*dns.Msg, error) {
	msg := new(dns.Msg)
	msg.SetQuestion(fqdn, qtype)
	msg.RecursionDesired = true

	var lastErr error
	for _, server := range r.servers {
		for attempt := 0; attempt < r.attempts; attempt++ {
			queryCtx, cancel := context.WithTimeout(ctx, r.queryTimeout)
			resp, _, err := r.exchange(queryCtx, msg, server)
			cancel()
			if err != nil {
				lastErr = err
				continue
			}
			if resp.Rcode != dns.RcodeSuccess {
				lastErr = pingerr.New(pingerr.DnsLookupFailed, "resolver.query", nil)
				continue
			}
			return resp, nil
		}
	}
	if lastErr == nil {
		lastErr = pingerr.New(pingerr.DnsLookupFailed, "resolver.query", nil)
	}
	return nil, lastErr
}
