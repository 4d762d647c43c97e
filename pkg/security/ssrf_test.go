package security

import (
	"testing"

	"github.com/ragnarok-labs/dataflow/pkg/config"
)

func allowingConfig() *config.Config {
	cfg := config.Default()
	cfg.AllowHTTP = true
	return cfg
}

func denyingConfig() *config.Config {
	return config.Default()
}

func TestGuardValidateURL(t *testing.T) {
	cfg := allowingConfig()
	g := NewGuard(cfg)

	for _, urlStr := range []string{
		"https://example.com",
		"http://example.com",
		"https://api.example.com/data",
		"https://example.com:8080/path",
	} {
		if err := g.ValidateURL(urlStr); err != nil {
			t.Errorf("ValidateURL(%q) = %v, want nil", urlStr, err)
		}
	}
}

func TestGuardValidateURLBlockedScheme(t *testing.T) {
	g := NewGuard(allowingConfig())

	for _, urlStr := range []string{
		"ftp://example.com",
		"file:///etc/passwd",
		"gopher://example.com",
	} {
		if err := g.ValidateURL(urlStr); err == nil {
			t.Errorf("ValidateURL(%q) = nil, want error for disallowed scheme", urlStr)
		}
	}
}

func TestGuardValidateURLDeniesByDefault(t *testing.T) {
	g := NewGuard(denyingConfig())

	if err := g.ValidateURL("https://example.com"); err == nil {
		t.Fatal("ValidateURL should reject all outbound HTTP when AllowHTTP is false")
	}
}

func TestGuardValidateURLBlockedLocalAndPrivate(t *testing.T) {
	g := NewGuard(allowingConfig())

	for _, urlStr := range []string{
		"http://localhost",
		"http://127.0.0.1",
		"http://[::1]",
		"http://0.0.0.0",
		"http://10.0.0.1",
		"http://172.16.0.1",
		"http://192.168.0.1",
		"http://169.254.169.254",
	} {
		if err := g.ValidateURL(urlStr); err == nil {
			t.Errorf("ValidateURL(%q) = nil, want error (blocked by default)", urlStr)
		}
	}
}

func TestGuardValidateURLAllowlist(t *testing.T) {
	cfg := allowingConfig()
	cfg.AllowedDomains = []string{"example.com"}
	g := NewGuard(cfg)

	if err := g.ValidateURL("https://example.com"); err != nil {
		t.Errorf("ValidateURL(example.com) = %v, want nil (in allowlist)", err)
	}
	if err := g.ValidateURL("https://evil.com"); err == nil {
		t.Error("ValidateURL(evil.com) = nil, want error (not in allowlist)")
	}
}

func TestGuardValidateURLRelaxedFlags(t *testing.T) {
	cfg := allowingConfig()
	cfg.AllowPrivateIPs = true
	cfg.AllowLocalhost = true
	g := NewGuard(cfg)

	for _, urlStr := range []string{"http://10.0.0.1", "http://localhost"} {
		if err := g.ValidateURL(urlStr); err != nil {
			t.Errorf("ValidateURL(%q) = %v, want nil with relaxed policy", urlStr, err)
		}
	}
	if err := g.ValidateURL("http://169.254.169.254"); err == nil {
		t.Error("cloud metadata should remain blocked regardless of other relaxed flags")
	}
}
