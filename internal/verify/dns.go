package verify

import (
	"context"
	"net"
	"time"

	"go.uber.org/zap"
)

// Resolver abstracts DNS address lookups to simplify testing.
type Resolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

// DNSVerifier checks that a domain has at least one A or AAAA record.
type DNSVerifier struct {
	resolver Resolver
	timeout  time.Duration
}

// DNSOption configures a DNSVerifier.
type DNSOption func(*DNSVerifier)

// WithResolver overrides the system resolver.
func WithResolver(r Resolver) DNSOption {
	return func(v *DNSVerifier) {
		if r != nil {
			v.resolver = r
		}
	}
}

// WithTimeout bounds each lookup.
func WithTimeout(d time.Duration) DNSOption {
	return func(v *DNSVerifier) {
		if d > 0 {
			v.timeout = d
		}
	}
}

// NewDNSVerifier creates a verifier backed by net.DefaultResolver.
func NewDNSVerifier(opts ...DNSOption) *DNSVerifier {
	v := &DNSVerifier{
		resolver: net.DefaultResolver,
		timeout:  5 * time.Second,
	}
	for _, o := range opts {
		o(v)
	}
	return v
}

// Resolves reports whether domain has an A or AAAA record. Lookup failures,
// including NXDOMAIN and timeouts, count as not resolving.
func (v *DNSVerifier) Resolves(ctx context.Context, domain string) bool {
	if domain == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(ctx, v.timeout)
	defer cancel()

	addrs, err := v.resolver.LookupIPAddr(ctx, domain)
	if err != nil {
		zap.L().Debug("verify: dns lookup failed",
			zap.String("domain", domain),
			zap.Error(err),
		)
		return false
	}
	return len(addrs) > 0
}
