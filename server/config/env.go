package config

import (
	"context"
	"os"
	"strconv"

	"github.com/gate4ai/a2a/a2a"
)

var _ IConfig = (*EnvConfig)(nil)

// EnvConfig reads configuration from environment variables, falling
// back to defaults suited to local development and tests. It never
// reloads; a fresh process picks up new values.
type EnvConfig struct {
	listenAddr   string
	logLevel     string
	apiKeyHash   string
	pushToken    string
	pushRPS      float64
	pushBurst    int
	agentName    string
	agentVersion string
	streaming    bool
	pushCapable  bool
}

// Environment variable names read by NewEnvConfig.
const (
	EnvListenAddr   = "A2A_LISTEN_ADDR"
	EnvLogLevel     = "A2A_LOG_LEVEL"
	EnvAPIKey       = "A2A_API_KEY"
	EnvPushToken    = "A2A_PUSH_TOKEN_HEADER"
	EnvPushRPS      = "A2A_PUSH_RATE_LIMIT_RPS"
	EnvPushBurst    = "A2A_PUSH_RATE_LIMIT_BURST"
	EnvAgentName    = "A2A_AGENT_NAME"
	EnvAgentVersion = "A2A_AGENT_VERSION"
	EnvStreaming    = "A2A_STREAMING"
	EnvPushCapable  = "A2A_PUSH_NOTIFICATIONS"
)

// NewEnvConfig builds an EnvConfig from the current environment.
func NewEnvConfig() *EnvConfig {
	c := &EnvConfig{
		listenAddr:   getenvDefault(EnvListenAddr, ":8080"),
		logLevel:     getenvDefault(EnvLogLevel, "info"),
		pushToken:    getenvDefault(EnvPushToken, a2a.DefaultPushNotificationTokenHeader),
		pushRPS:      getenvFloat(EnvPushRPS, 0),
		pushBurst:    getenvInt(EnvPushBurst, 0),
		agentName:    getenvDefault(EnvAgentName, "a2a-example-agent"),
		agentVersion: getenvDefault(EnvAgentVersion, "0.1.0"),
		streaming:    getenvBool(EnvStreaming, true),
		pushCapable:  getenvBool(EnvPushCapable, true),
	}
	if key := os.Getenv(EnvAPIKey); key != "" {
		c.apiKeyHash = HashAPIKey(key)
	}
	return c
}

func getenvDefault(name, def string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return def
}

func getenvBool(name string, def bool) bool {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func getenvInt(name string, def int) int {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getenvFloat(name string, def float64) float64 {
	v := os.Getenv(name)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func (c *EnvConfig) ListenAddr() (string, error) { return c.listenAddr, nil }
func (c *EnvConfig) LogLevel() (string, error)   { return c.logLevel, nil }

func (c *EnvConfig) AuthorizedAPIKeyHash() (string, error) { return c.apiKeyHash, nil }

func (c *EnvConfig) PushNotificationTokenHeader() (string, error) { return c.pushToken, nil }

func (c *EnvConfig) PushNotificationRateLimit() (float64, int, error) {
	return c.pushRPS, c.pushBurst, nil
}

func (c *EnvConfig) AgentCard(url string) (a2a.AgentCard, error) {
	return a2a.AgentCard{
		Name:               c.agentName,
		URL:                url,
		PreferredTransport: "JSONRPC",
		Version:            c.agentVersion,
		Capabilities: a2a.AgentCapabilities{
			Streaming:         c.streaming,
			PushNotifications: c.pushCapable,
		},
		DefaultInputModes:  []string{"text/plain"},
		DefaultOutputModes: []string{"text/plain"},
		Skills:             []a2a.AgentSkill{},
	}, nil
}

func (c *EnvConfig) Status(ctx context.Context) error { return nil }
func (c *EnvConfig) Close() error                     { return nil }
