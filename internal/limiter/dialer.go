package limiter

import (
	"context"
	"net"
	"net/http"
	"sync"
	"time"
)

type dnsEntry struct {
	addrs   []string
	expires time.Time
}

// dialer resolves through a TTL'd host cache so repeated requests to the
// same hosts skip redundant DNS lookups.
type dialer struct {
	ttl      time.Duration
	lookupFn func(ctx context.Context, host string) ([]string, error)
	netDial  net.Dialer

	mu    sync.Mutex
	cache map[string]dnsEntry
}

func newDialer(ttl time.Duration) *dialer {
	return &dialer{
		ttl:      ttl,
		lookupFn: net.DefaultResolver.LookupHost,
		netDial:  net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second},
		cache:    make(map[string]dnsEntry),
	}
}

func (d *dialer) DialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, err
	}
	if ip := net.ParseIP(host); ip != nil {
		return d.netDial.DialContext(ctx, network, addr)
	}

	addrs, err := d.resolve(ctx, host)
	if err != nil {
		return nil, err
	}
	if len(addrs) == 0 {
		return nil, &net.DNSError{Err: "no addresses", Name: host}
	}

	var lastErr error
	for _, a := range addrs {
		conn, err := d.netDial.DialContext(ctx, network, net.JoinHostPort(a, port))
		if err == nil {
			return conn, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

func (d *dialer) resolve(ctx context.Context, host string) ([]string, error) {
	d.mu.Lock()
	entry, ok := d.cache[host]
	d.mu.Unlock()
	if ok && time.Now().Before(entry.expires) {
		return entry.addrs, nil
	}

	addrs, err := d.lookupFn(ctx, host)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	d.cache[host] = dnsEntry{addrs: addrs, expires: time.Now().Add(d.ttl)}
	d.mu.Unlock()
	return addrs, nil
}

// NewTransport builds the shared HTTP transport: keep-alive pooling sized to
// the connection caps, DNS answers cached for cfg.DNSCacheTTL. Concurrency
// is enforced by the Limiter, not the transport.
func NewTransport(cfg Config) *http.Transport {
	cfg = cfg.withDefaults()
	return &http.Transport{
		DialContext:         newDialer(cfg.DNSCacheTTL).DialContext,
		MaxIdleConns:        int(cfg.MaxConnections),
		MaxIdleConnsPerHost: int(cfg.MaxPerHost),
		IdleConnTimeout:     90 * time.Second,
	}
}
