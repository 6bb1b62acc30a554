package client

import (
	"fmt"

	"github.com/gate4ai/a2a/a2a"
)

// TransportFactory builds a Transport bound to agentURL.
type TransportFactory func(agentURL string) Transport

// ClientFactory composes wire transports by protocol name
// (case-insensitive, deduplicated) and resolves, from an AgentCard,
// which one to speak: (1) the caller's preferred transports in order,
// (2) the card's PreferredTransport, (3) its AdditionalInterfaces, in
// card order. First registered match wins.
type ClientFactory struct {
	factories map[string]TransportFactory
	preferred []string
}

// NewClientFactory builds a factory with no transports registered yet;
// preferred is the caller's transport-name preference order, most
// preferred first.
func NewClientFactory(preferred ...string) *ClientFactory {
	return &ClientFactory{
		factories: make(map[string]TransportFactory),
		preferred: preferred,
	}
}

// Register adds (or replaces) the factory for a transport name.
func (f *ClientFactory) Register(name string, factory TransportFactory) {
	f.factories[lower(name)] = factory
}

// NewClient resolves a transport from card and builds a Client over it.
func (f *ClientFactory) NewClient(card a2a.AgentCard, opts ...ClientOption) (*Client, error) {
	name, url, err := f.resolveTransport(card)
	if err != nil {
		return nil, err
	}
	transport := f.factories[lower(name)](url)
	return NewClient(transport, opts...), nil
}

func (f *ClientFactory) resolveTransport(card a2a.AgentCard) (string, string, error) {
	seen := make(map[string]struct{})
	candidates := make([]a2a.AgentInterface, 0, 1+len(card.AdditionalInterfaces))
	addCandidate := func(transport, url string) {
		key := lower(transport)
		if _, dup := seen[key]; dup || transport == "" {
			return
		}
		seen[key] = struct{}{}
		candidates = append(candidates, a2a.AgentInterface{Transport: transport, URL: url})
	}

	for _, name := range f.preferred {
		if card.PreferredTransport != "" && lower(name) == lower(card.PreferredTransport) {
			addCandidate(card.PreferredTransport, card.URL)
			continue
		}
		for _, iface := range card.AdditionalInterfaces {
			if lower(iface.Transport) == lower(name) {
				addCandidate(iface.Transport, iface.URL)
			}
		}
	}
	addCandidate(card.PreferredTransport, card.URL)
	for _, iface := range card.AdditionalInterfaces {
		addCandidate(iface.Transport, iface.URL)
	}

	for _, c := range candidates {
		if _, ok := f.factories[lower(c.Transport)]; ok {
			return c.Transport, c.URL, nil
		}
	}
	return "", "", fmt.Errorf("client: no registered transport matches agent card %q (tried %d candidate interfaces)", card.Name, len(candidates))
}

func lower(s string) string {
	out := make([]byte, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		out[i] = c
	}
	return string(out)
}
