package verify

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPhoneMatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"format invariant", "(555) 123-4567", "555-123-4567", true},
		{"country code", "+1 512 555 0100", "512-555-0100", true},
		{"different tail", "512-555-0100", "512-555-0199", false},
		{"too short", "123", "0123", false},
		{"empty", "", "512-555-0100", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, PhoneMatch(tt.a, tt.b, 4))
			assert.Equal(t, tt.want, PhoneMatch(tt.b, tt.a, 4), "must be symmetric")
		})
	}
}

func TestPhoneInText(t *testing.T) {
	t.Parallel()

	assert.True(t, PhoneInText("512-555-0100", "Call us at (512) 555-0100 today", 4))
	assert.False(t, PhoneInText("512-555-0100", "Call us at (512) 555-0199", 4))
	assert.False(t, PhoneInText("", "0100", 4))
}

func TestLastDigits(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "0100", LastDigits("512-555-0100", 4))
	assert.Equal(t, "", LastDigits("12", 4))
	assert.Equal(t, "5125550100", Digits("(512) 555-0100"))
}

func TestNormalizePhone(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "+16502530000", NormalizePhone("(650) 253-0000", "US"))
	assert.Equal(t, "+16502530000", NormalizePhone("650-253-0000", ""))
	assert.Equal(t, "", NormalizePhone("not a phone", "US"))
	assert.Equal(t, "", NormalizePhone("", "US"))
}

type fakeResolver struct {
	addrs []net.IPAddr
	err   error
	delay time.Duration
}

func (f fakeResolver) LookupIPAddr(ctx context.Context, _ string) ([]net.IPAddr, error) {
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.addrs, f.err
}

func TestDNSVerifier_Resolves(t *testing.T) {
	t.Parallel()

	ok := NewDNSVerifier(WithResolver(fakeResolver{addrs: []net.IPAddr{{IP: net.ParseIP("93.184.216.34")}}}))
	assert.True(t, ok.Resolves(context.Background(), "example.com"))
	assert.False(t, ok.Resolves(context.Background(), ""))

	nx := NewDNSVerifier(WithResolver(fakeResolver{err: &net.DNSError{Err: "no such host", IsNotFound: true}}))
	assert.False(t, nx.Resolves(context.Background(), "nope.invalid"))

	empty := NewDNSVerifier(WithResolver(fakeResolver{}))
	assert.False(t, empty.Resolves(context.Background(), "example.com"))

	failing := NewDNSVerifier(WithResolver(fakeResolver{err: errors.New("boom")}))
	assert.False(t, failing.Resolves(context.Background(), "example.com"))
}

func TestDNSVerifier_Timeout(t *testing.T) {
	t.Parallel()

	slow := NewDNSVerifier(
		WithResolver(fakeResolver{delay: time.Second, addrs: []net.IPAddr{{IP: net.ParseIP("1.2.3.4")}}}),
		WithTimeout(20*time.Millisecond),
	)
	assert.False(t, slow.Resolves(context.Background(), "example.com"))
}
