package config

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/gate4ai/a2a/a2a"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

var _ IConfig = (*YamlConfig)(nil)

// YamlConfig loads configuration from a YAML file and, once Watch is
// started, hot-reloads it on every write to that file.
type YamlConfig struct {
	mu     sync.RWMutex
	path   string
	logger *zap.Logger

	listenAddr    string
	logLevel      string
	apiKeyHash    string
	pushToken     string
	pushRPS       float64
	pushBurst     int
	agentName     string
	agentVersion  string
	agentDesc     *string
	providerOrg   *string
	providerURL   *string
	docURL        *string
	defaultInput  []string
	defaultOutput []string
	skills        []a2a.AgentSkill
	streaming     bool
	pushCapable   bool
}

type yamlDocument struct {
	Server struct {
		ListenAddr string `yaml:"listen_addr"`
		LogLevel   string `yaml:"log_level"`
		APIKey     string `yaml:"api_key"`
	} `yaml:"server"`

	PushNotifications struct {
		TokenHeader string  `yaml:"token_header"`
		RateLimit   float64 `yaml:"rate_limit_rps"`
		Burst       int     `yaml:"burst"`
	} `yaml:"push_notifications"`

	Agent struct {
		Name             string             `yaml:"name"`
		Version          string             `yaml:"version"`
		Description      *string            `yaml:"description"`
		DocumentationURL *string            `yaml:"documentation_url"`
		Streaming        bool               `yaml:"streaming"`
		PushNotification bool               `yaml:"push_notifications"`
		DefaultInput     []string           `yaml:"default_input_modes"`
		DefaultOutput    []string           `yaml:"default_output_modes"`
		Skills           []a2a.AgentSkill   `yaml:"skills"`
		Provider         *yamlAgentProvider `yaml:"provider"`
	} `yaml:"agent"`
}

type yamlAgentProvider struct {
	Organization string  `yaml:"organization"`
	URL          *string `yaml:"url"`
}

// NewYamlConfig loads path and returns a YamlConfig. logger defaults to
// a no-op logger if nil.
func NewYamlConfig(path string, logger *zap.Logger) (*YamlConfig, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &YamlConfig{path: path, logger: logger}
	if err := c.reload(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *YamlConfig) reload() error {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", c.path, err)
	}
	var doc yamlDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("config: parse %s: %w", c.path, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.listenAddr = doc.Server.ListenAddr
	c.logLevel = doc.Server.LogLevel
	if doc.Server.APIKey != "" {
		c.apiKeyHash = HashAPIKey(doc.Server.APIKey)
	}
	c.pushToken = doc.PushNotifications.TokenHeader
	c.pushRPS = doc.PushNotifications.RateLimit
	c.pushBurst = doc.PushNotifications.Burst
	c.agentName = doc.Agent.Name
	c.agentVersion = doc.Agent.Version
	c.agentDesc = doc.Agent.Description
	c.docURL = doc.Agent.DocumentationURL
	c.defaultInput = doc.Agent.DefaultInput
	c.defaultOutput = doc.Agent.DefaultOutput
	c.skills = doc.Agent.Skills
	c.streaming = doc.Agent.Streaming
	c.pushCapable = doc.Agent.PushNotification
	if doc.Agent.Provider != nil {
		c.providerOrg = &doc.Agent.Provider.Organization
		c.providerURL = doc.Agent.Provider.URL
	} else {
		c.providerOrg = nil
		c.providerURL = nil
	}
	return nil
}

// Watch starts a background fsnotify watcher on the config file,
// reloading on every write/create/rename event until ctx is done.
// Reload errors are logged, not returned, so a transient bad write
// (editor truncate-then-rewrite) doesn't tear down a running server.
func (c *YamlConfig) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config: start watcher: %w", err)
	}
	if err := watcher.Add(c.path); err != nil {
		watcher.Close()
		return fmt.Errorf("config: watch %s: %w", c.path, err)
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-watcher.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				if err := c.reload(); err != nil {
					c.logger.Error("config: reload failed, keeping previous values", zap.Error(err))
					continue
				}
				c.logger.Info("config: reloaded", zap.String("path", c.path))
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				c.logger.Error("config: watcher error", zap.Error(err))
			}
		}
	}()
	return nil
}

func (c *YamlConfig) ListenAddr() (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.listenAddr, nil
}

func (c *YamlConfig) LogLevel() (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.logLevel, nil
}

func (c *YamlConfig) AuthorizedAPIKeyHash() (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.apiKeyHash, nil
}

func (c *YamlConfig) PushNotificationTokenHeader() (string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pushToken, nil
}

func (c *YamlConfig) PushNotificationRateLimit() (float64, int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pushRPS, c.pushBurst, nil
}

func (c *YamlConfig) AgentCard(url string) (a2a.AgentCard, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var provider *a2a.AgentProvider
	if c.providerOrg != nil {
		provider = &a2a.AgentProvider{Organization: *c.providerOrg, URL: c.providerURL}
	}
	return a2a.AgentCard{
		Name:               c.agentName,
		Description:        c.agentDesc,
		URL:                url,
		PreferredTransport: "JSONRPC",
		Provider:           provider,
		Version:            c.agentVersion,
		DocumentationURL:   c.docURL,
		Capabilities: a2a.AgentCapabilities{
			Streaming:         c.streaming,
			PushNotifications: c.pushCapable,
		},
		DefaultInputModes:  c.defaultInput,
		DefaultOutputModes: c.defaultOutput,
		Skills:             c.skills,
	}, nil
}

func (c *YamlConfig) Status(ctx context.Context) error {
	if _, err := os.Stat(c.path); err != nil {
		return fmt.Errorf("config: status check failed: %w", err)
	}
	return nil
}

func (c *YamlConfig) Close() error { return nil }
