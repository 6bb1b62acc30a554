// Command a2a-example-client drives an A2A agent from the terminal: it
// fetches the agent card, resolves a transport via client.ClientFactory
// the way a real integration would, and sends one message either as a
// blocking call or as a streamed one.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gate4ai/a2a/a2a"
	"github.com/gate4ai/a2a/client"
	"github.com/gate4ai/a2a/transport/jsonrpc"
	"github.com/gate4ai/a2a/transport/rest"
)

func main() {
	agentURL := flag.String("agent-url", "http://localhost:41241", "base URL the agent's card is served from")
	message := flag.String("message", "respond text hello from the example client", "message text to send")
	stream := flag.Bool("stream", false, "use message/stream instead of message/send")
	apiKey := flag.String("api-key", "", "bearer token sent as Authorization: Bearer <key>")
	preferredTransport := flag.String("transport", "", "preferred transport name (JSONRPC or HTTP+JSON); defaults to the card's own preference")
	timeout := flag.Duration("timeout", 30*time.Second, "overall request timeout")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	card, err := fetchAgentCard(ctx, *agentURL)
	if err != nil {
		fatalf("failed to fetch agent card: %v", err)
	}

	var preferred []string
	if *preferredTransport != "" {
		preferred = append(preferred, *preferredTransport)
	}
	factory := client.NewClientFactory(preferred...)
	factory.Register("JSONRPC", func(url string) client.Transport {
		opts := []jsonrpc.ClientOption{}
		if *apiKey != "" {
			opts = append(opts, jsonrpc.WithHeader("Authorization", "Bearer "+*apiKey))
		}
		return client.NewJSONRPCTransport(jsonrpc.NewClient(url, opts...))
	})
	factory.Register("HTTP+JSON", func(url string) client.Transport {
		opts := []rest.ClientOption{}
		if *apiKey != "" {
			opts = append(opts, rest.WithHeader("Authorization", "Bearer "+*apiKey))
		}
		return client.NewRESTTransport(rest.NewClient(url, opts...))
	})

	c, err := factory.NewClient(*card)
	if err != nil {
		fatalf("failed to resolve a transport for agent %q: %v", card.Name, err)
	}

	params := a2a.MessageSendParams{
		Message: a2a.Message{
			MessageID: a2a.NewMessageID(),
			Role:      a2a.RoleUser,
			Parts:     []a2a.Part{a2a.NewTextPart(*message)},
			Kind:      "message",
		},
	}

	if *stream {
		runStreaming(ctx, c, params)
		return
	}
	runBlocking(ctx, c, params)
}

func runBlocking(ctx context.Context, c *client.Client, params a2a.MessageSendParams) {
	result, err := c.SendMessage(ctx, params)
	if err != nil {
		fatalf("message/send failed: %v", err)
	}
	printJSON(result)
}

func runStreaming(ctx context.Context, c *client.Client, params a2a.MessageSendParams) {
	events, err := c.SendMessageStream(ctx, params)
	if err != nil {
		fatalf("message/stream failed: %v", err)
	}
	for event := range events {
		if event.Err != nil {
			fmt.Fprintln(os.Stderr, "stream error:", event.Err)
			continue
		}
		printJSON(event.Event)
	}
}

func fetchAgentCard(ctx context.Context, baseURL string) (*a2a.AgentCard, error) {
	url := strings.TrimRight(baseURL, "/") + a2a.WellKnownAgentCardPath
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, url)
	}
	var card a2a.AgentCard
	if err := json.NewDecoder(resp.Body).Decode(&card); err != nil {
		return nil, fmt.Errorf("decode agent card: %w", err)
	}
	return &card, nil
}

func printJSON(v interface{}) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to marshal result:", err)
		return
	}
	fmt.Println(string(out))
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
