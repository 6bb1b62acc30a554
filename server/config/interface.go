// Package config supplies the ambient server configuration that feeds
// cmd/a2a-example-server: listen address, agent-card identity fields,
// the single static API key's hash, and push-notification delivery
// tuning. Two implementations back the same IConfig interface, the way
// shared/config offers a YAML-file and a database-backed implementation
// side by side: YamlConfig (file-based, hot-reloadable) and EnvConfig
// (environment variables with sane defaults, for container deployment
// or tests).
package config

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"github.com/gate4ai/a2a/a2a"
)

// ErrNotFound is returned by lookups that found nothing, mirroring
// shared/config's sentinel so callers can errors.Is against it
// regardless of which IConfig implementation is in play.
var ErrNotFound = errors.New("config: not found")

// IConfig is the configuration surface cmd/a2a-example-server builds
// its dependencies from.
type IConfig interface {
	// ListenAddr is the address http.ListenAndServe binds to.
	ListenAddr() (string, error)
	// LogLevel is a zapcore.Level name ("debug", "info", "warn", "error").
	LogLevel() (string, error)
	// AgentCard builds the agent's AgentCard, stamping url as both the
	// card's URL and (where unset) its transport interface URLs.
	AgentCard(url string) (a2a.AgentCard, error)

	// AuthorizedAPIKeyHash is the SHA-256 hex digest of the single
	// static API key accepted by the example server's UserBuilder, or
	// "" if no key is configured (anonymous access only).
	AuthorizedAPIKeyHash() (string, error)

	// PushNotificationTokenHeader is the header carrying each
	// PushNotificationConfig's bearer token on outbound webhook POSTs.
	PushNotificationTokenHeader() (string, error)
	// PushNotificationRateLimit caps outbound webhook POSTs per second
	// across every task's push configs; burst is the token bucket size.
	// rps<=0 means unlimited.
	PushNotificationRateLimit() (rps float64, burst int, err error)

	// Status reports whether the configuration source is currently
	// readable (e.g. the backing file still exists).
	Status(ctx context.Context) error
	// Close releases resources held by the configuration source (file
	// watchers, database connections).
	Close() error
}

// HashAPIKey converts a plaintext API key to its SHA-256 hex digest, the
// form stored and compared against, never the plaintext itself.
func HashAPIKey(key string) string {
	if key == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}
