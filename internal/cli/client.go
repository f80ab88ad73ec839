package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"streamdash/internal/config"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
)

// DefaultTimeout bounds every request made by Client.
const DefaultTimeout = 30 * time.Second

// EndpointFromConfig returns the SSE endpoint of the MCP server a running
// `streamdash serve` exposes.
func EndpointFromConfig(cfg config.StreamdashConfig) string {
	return fmt.Sprintf("http://%s/sse", cfg.MCP.Addr())
}

// Client talks to the dashboard tools of a running serve process.
type Client struct {
	endpoint string
	client   *client.Client
	timeout  time.Duration
	version  string
}

// NewClient creates an unconnected client for endpoint.
func NewClient(endpoint, version string) *Client {
	if version == "" {
		version = "dev"
	}
	return &Client{
		endpoint: endpoint,
		timeout:  DefaultTimeout,
		version:  version,
	}
}

// Endpoint is the SSE URL the client connects to.
func (c *Client) Endpoint() string { return c.endpoint }

// Connect opens the SSE stream and performs the MCP handshake. ctx must
// outlive the client: cancelling it ends the stream.
func (c *Client) Connect(ctx context.Context) error {
	sseClient, err := client.NewSSEMCPClient(c.endpoint)
	if err != nil {
		return fmt.Errorf("failed to create sse client: %w", err)
	}

	if err := sseClient.Start(ctx); err != nil {
		return fmt.Errorf("failed to connect to %s: %w", c.endpoint, err)
	}
	c.client = sseClient

	if err := c.initialize(ctx); err != nil {
		_ = c.Close()
		return fmt.Errorf("initialization failed: %w", err)
	}
	return nil
}

// ListTools returns the tools the server exposes.
func (c *Client) ListTools(ctx context.Context) ([]mcp.Tool, error) {
	if c.client == nil {
		return nil, fmt.Errorf("client not connected")
	}
	timeoutCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	result, err := c.client.ListTools(timeoutCtx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("list tools: %w", err)
	}
	return result.Tools, nil
}

// CallTool executes a tool and returns the raw result.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]interface{}) (*mcp.CallToolResult, error) {
	if c.client == nil {
		return nil, fmt.Errorf("client not connected")
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	timeoutCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	result, err := c.client.CallTool(timeoutCtx, req)
	if err != nil {
		return nil, fmt.Errorf("tool call failed: %w", err)
	}
	return result, nil
}

// CallToolSimple executes a tool and returns its first text content. A
// tool-level error is returned as an error.
func (c *Client) CallToolSimple(ctx context.Context, name string, args map[string]interface{}) (string, error) {
	result, err := c.CallTool(ctx, name, args)
	if err != nil {
		return "", err
	}

	texts := textContents(result)
	if result.IsError {
		return "", fmt.Errorf("tool error: %s", strings.Join(texts, "\n"))
	}
	if len(texts) == 0 {
		return "", nil
	}
	return texts[0], nil
}

// CallToolJSON executes a tool and decodes its text content. Non-JSON
// content is returned as a plain string.
func (c *Client) CallToolJSON(ctx context.Context, name string, args map[string]interface{}) (interface{}, error) {
	text, err := c.CallToolSimple(ctx, name, args)
	if err != nil {
		return nil, err
	}

	var out interface{}
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return text, nil
	}
	return out, nil
}

// Close closes the connection. Closing an unconnected client is a no-op.
func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}
	err := c.client.Close()
	c.client = nil
	return err
}

func (c *Client) initialize(ctx context.Context) error {
	req := mcp.InitializeRequest{}
	req.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	req.Params.ClientInfo = mcp.Implementation{
		Name:    "streamdash-cli",
		Version: c.version,
	}
	req.Params.Capabilities = mcp.ClientCapabilities{}

	timeoutCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	_, err := c.client.Initialize(timeoutCtx, req)
	return err
}

func textContents(result *mcp.CallToolResult) []string {
	var out []string
	for _, content := range result.Content {
		if tc, ok := mcp.AsTextContent(content); ok {
			out = append(out, tc.Text)
		}
	}
	return out
}
