package cli

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"streamdash/internal/channel"
	"streamdash/internal/clock"
	"streamdash/internal/config"
	"streamdash/internal/dashboard"
	"streamdash/internal/mcpserver"
	"streamdash/internal/storage"
)

func TestEndpointFromConfig(t *testing.T) {
	cfg := config.GetDefaultConfig()
	assert.Equal(t, "http://localhost:8092/sse", EndpointFromConfig(cfg))

	cfg.MCP.Host = "0.0.0.0"
	cfg.MCP.Port = 9000
	assert.Equal(t, "http://0.0.0.0:9000/sse", EndpointFromConfig(cfg))
}

func TestNewClient(t *testing.T) {
	c := NewClient("http://localhost:8092/sse", "")
	assert.Equal(t, "http://localhost:8092/sse", c.Endpoint())
	assert.Equal(t, DefaultTimeout, c.timeout)
	assert.Equal(t, "dev", c.version)
}

func TestClientNotConnected(t *testing.T) {
	c := NewClient("http://localhost:8092/sse", "1.0.0")

	_, err := c.CallTool(context.Background(), "settings_get", nil)
	assert.EqualError(t, err, "client not connected")
	_, err = c.ListTools(context.Background())
	assert.EqualError(t, err, "client not connected")

	assert.NoError(t, c.Close())
	assert.NoError(t, c.Close())
}

func TestClientConnectUnreachable(t *testing.T) {
	c := NewClient("http://127.0.0.1:1/sse", "1.0.0")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	err := c.Connect(ctx)
	assert.Error(t, err)
}

// newServedDashboard serves the dashboard tools from an httptest server and
// returns a connected client.
func newServedDashboard(t *testing.T) (*Client, *dashboard.Dashboard) {
	t.Helper()
	dashEnd, _ := channel.Pipe()
	dash := dashboard.New(channel.New("https://dash.example.com", dashEnd), dashboard.Config{
		Storage: storage.NewMemory(),
		Clock:   clock.Fake(time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)),
	})
	t.Cleanup(func() { _ = dash.Close() })

	s := server.NewMCPServer("streamdash", "test", server.WithToolCapabilities(false))
	s.AddTools(mcpserver.NewTools(dash).ServerTools()...)
	ts := server.NewTestServer(s)
	t.Cleanup(ts.Close)

	c := NewClient(ts.URL+"/sse", "test")
	require.NoError(t, c.Connect(context.Background()))
	t.Cleanup(func() { _ = c.Close() })
	return c, dash
}

func TestClientAgainstDashboardTools(t *testing.T) {
	c, dash := newServedDashboard(t)
	ctx := context.Background()

	tools, err := c.ListTools(ctx)
	require.NoError(t, err)
	assert.Len(t, tools, 13)

	text, err := c.CallToolSimple(ctx, "settings_set", map[string]interface{}{"key": "videoFramerate", "value": "30"})
	require.NoError(t, err)
	assert.Equal(t, "videoFramerate set to 30", text)
	assert.Equal(t, 30, dash.Settings.Values().Framerate)

	got, err := c.CallToolJSON(ctx, "settings_get", map[string]interface{}{"key": "videoFramerate"})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"key": "videoFramerate", "value": float64(30)}, got)

	_, err = c.CallToolSimple(ctx, "catalog_list", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tool error")
}

func TestExecutorAgainstDashboardTools(t *testing.T) {
	c, _ := newServedDashboard(t)
	var out bytes.Buffer
	e := NewToolExecutor(c, ExecutorOptions{Format: OutputFormatJSON, Out: &out})

	require.NoError(t, e.Execute(context.Background(), "gamepad_state", nil))
	assert.Contains(t, out.String(), `"touchMode": false`)

	err := e.Execute(context.Background(), "pipeline_toggle", map[string]interface{}{"pipeline": "screen"})
	assert.Error(t, err)
}
