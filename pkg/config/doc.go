// Package config centralizes the execution engine's tunable limits:
// timeouts, resource ceilings, and the zero-trust network access controls
// that govern demo.http_fetch (and any future outbound-HTTP component).
//
// # Overview
//
// Config is a single struct with no hidden global state; a caller builds
// one with Default, Development, Production, or Testing and can then
// override individual fields directly before passing it to engine.Run
// via engine.WithConfig or to server.New.
//
// # Configuration sections
//
//   - Execution limits: MaxExecutionTime, MaxNodeExecutionTime, MaxIterations
//   - HTTP settings: HTTPTimeout, MaxHTTPRedirects, MaxResponseSize, MaxHTTPCallsPerExec
//   - Security: the Allow* zero-trust network access fields (see pkg/security)
//   - Cache settings: DefaultCacheTTL, MaxCacheSize
//   - Resource limits: MaxNodes, MaxEdges, MaxNodeExecutions, MaxStringLength, ...
//   - Retry settings: DefaultMaxAttempts, DefaultBackoff
//   - HTTP surface: Address, ReadTimeout, WriteTimeout, ShutdownTimeout (cmd/server only)
//
// # Basic usage
//
//	cfg := config.Default()
//	cfg.MaxExecutionTime = 10 * time.Minute
//	cfg.HTTPTimeout = 30 * time.Second
//
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
//
// # Zero trust by default
//
// Every Allow* field defaults to false: demo.http_fetch denies all
// outbound HTTP until a caller explicitly opts a domain, private range,
// or localhost in. See pkg/security.Guard for the enforcement side.
//
// # Thread safety
//
// A *Config is not safe for concurrent mutation; Clone returns a deep
// copy so a caller can derive a per-request variant without races.
package config
