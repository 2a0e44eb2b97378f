package validators

import (
	"context"
	"net"
	"strings"
	"time"
)

// NormalizeEmail is the form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// EmailDomainResolves reports whether the domain of email has an MX or
// address record. Lookups give up after two seconds.
func EmailDomainResolves(email string) bool {
	_, domain, ok := strings.Cut(NormalizeEmail(email), "@")
	if !ok || domain == "" || strings.Contains(domain, "@") {
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if mx, err := net.DefaultResolver.LookupMX(ctx, domain); err == nil && len(mx) > 0 {
		return true
	}
	addrs, err := net.DefaultResolver.LookupHost(ctx, domain)
	return err == nil && len(addrs) > 0
}
