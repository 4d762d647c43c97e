// Package security guards outbound network access made by components
// (such as an HTTP-fetch demo component) against server-side request
// forgery, per SPEC_FULL.md §10.3's zero-trust network-access-control
// fields on config.Config. The policy is driven directly by
// config.Config's Allow* fields instead of a separate config struct.
package security

import (
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/ragnarok-labs/dataflow/pkg/config"
)

// Guard validates outbound URLs against a config.Config's zero-trust
// network policy before a component is allowed to dial them.
type Guard struct {
	allowHTTP          bool
	allowedDomains     map[string]bool
	allowPrivateIPs    bool
	allowLocalhost     bool
	allowLinkLocal     bool
	allowCloudMetadata bool
}

// NewGuard builds a Guard from cfg's network-access-control fields.
// ALL network access is denied unless cfg explicitly allows it.
func NewGuard(cfg *config.Config) *Guard {
	g := &Guard{
		allowHTTP:          cfg.AllowHTTP,
		allowedDomains:     make(map[string]bool, len(cfg.AllowedDomains)),
		allowPrivateIPs:    cfg.AllowPrivateIPs,
		allowLocalhost:     cfg.AllowLocalhost,
		allowLinkLocal:     cfg.AllowLinkLocal,
		allowCloudMetadata: cfg.AllowCloudMetadata,
	}
	for _, domain := range cfg.AllowedDomains {
		g.allowedDomains[strings.ToLower(domain)] = true
	}
	return g
}

// ValidateURL returns an error if urlStr must not be dialed under the
// guard's policy: disallowed scheme, domain outside an explicit
// allowlist, or a hostname/IP resolving into a blocked range.
func (g *Guard) ValidateURL(urlStr string) error {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return fmt.Errorf("URL scheme not allowed: %s (allowed: http, https)", parsed.Scheme)
	}
	if !g.allowHTTP {
		return fmt.Errorf("%w: outbound HTTP is disabled", ErrURLNotAllowed)
	}

	hostname := parsed.Hostname()
	if hostname == "" {
		return fmt.Errorf("URL missing hostname")
	}

	if len(g.allowedDomains) > 0 && !g.allowedDomains[strings.ToLower(hostname)] {
		return fmt.Errorf("%w: domain not in allowlist: %s", ErrURLNotAllowed, hostname)
	}

	if ip := net.ParseIP(hostname); ip != nil {
		if err := g.validateIP(ip); err != nil {
			return fmt.Errorf("IP validation failed for %s: %w", hostname, err)
		}
		return nil
	}

	if err := g.validateHostname(hostname); err != nil {
		return err
	}

	ips, err := net.LookupIP(hostname)
	if err != nil {
		return nil
	}
	for _, ip := range ips {
		if err := g.validateIP(ip); err != nil {
			return fmt.Errorf("IP validation failed for %s (%s): %w", hostname, ip, err)
		}
	}
	return nil
}

func (g *Guard) validateIP(ip net.IP) error {
	if !g.allowLocalhost && isLocalhost(ip) {
		return ErrLocalhostBlocked
	}
	if !g.allowPrivateIPs && isPrivateIP(ip) {
		return ErrPrivateIPBlocked
	}
	if !g.allowLinkLocal && isLinkLocal(ip) {
		return fmt.Errorf("%w: link-local addresses blocked", ErrURLNotAllowed)
	}
	if !g.allowCloudMetadata && isCloudMetadata(ip) {
		return ErrMetadataBlocked
	}
	return nil
}

func (g *Guard) validateHostname(hostname string) error {
	hostname = strings.ToLower(hostname)

	if !g.allowLocalhost {
		for _, name := range []string{"localhost", "127.0.0.1", "::1", "0.0.0.0"} {
			if hostname == name {
				return ErrLocalhostBlocked
			}
		}
	}
	if !g.allowCloudMetadata {
		for _, name := range []string{"169.254.169.254", "metadata.google.internal", "metadata.azure.com"} {
			if hostname == name {
				return ErrMetadataBlocked
			}
		}
	}
	return nil
}

func isLocalhost(ip net.IP) bool {
	if ip.IsLoopback() {
		return true
	}
	if ipv4 := ip.To4(); ipv4 != nil {
		if ipv4[0] == 0 && ipv4[1] == 0 && ipv4[2] == 0 && ipv4[3] == 0 {
			return true
		}
	}
	return false
}

func isPrivateIP(ip net.IP) bool {
	if ipv4 := ip.To4(); ipv4 != nil {
		if ipv4[0] == 10 {
			return true
		}
		if ipv4[0] == 172 && ipv4[1] >= 16 && ipv4[1] <= 31 {
			return true
		}
		if ipv4[0] == 192 && ipv4[1] == 168 {
			return true
		}
		return false
	}
	if len(ip) == 16 && (ip[0]&0xfe) == 0xfc {
		return true
	}
	return false
}

func isLinkLocal(ip net.IP) bool {
	if ipv4 := ip.To4(); ipv4 != nil {
		return ipv4[0] == 169 && ipv4[1] == 254
	}
	if len(ip) == 16 && ip[0] == 0xfe && (ip[1]&0xc0) == 0x80 {
		return true
	}
	return ip.IsLinkLocalUnicast()
}

func isCloudMetadata(ip net.IP) bool {
	if ipv4 := ip.To4(); ipv4 != nil {
		return ipv4[0] == 169 && ipv4[1] == 254 && ipv4[2] == 169 && ipv4[3] == 254
	}
	if len(ip) == 16 && ip[0] == 0xfd && ip[1] == 0x00 && ip[2] == 0x0e && ip[3] == 0xc2 {
		isZeros := true
		for i := 4; i < 14; i++ {
			if ip[i] != 0 {
				isZeros = false
				break
			}
		}
		return isZeros && ip[14] == 0x02 && ip[15] == 0x54
	}
	return false
}
