package channel

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"streamdash/internal/protocol"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const dashboardOrigin = "https://stream.example.test"

func encodeEvent(t *testing.T, evt protocol.Event) []byte {
	t.Helper()
	data, err := protocol.EncodeEvent(evt)
	require.NoError(t, err)
	return data
}

func TestSend_WithoutTransportIsNoop(t *testing.T) {
	ch := New(dashboardOrigin, nil)

	assert.NotPanics(t, func() {
		ch.Send(protocol.RequestFullscreen())
	})
	assert.Equal(t, int64(1), ch.Stats().Dropped)
	assert.Equal(t, int64(0), ch.Stats().Sent)
}

func TestSend_DeliversToPeerWithOwnOrigin(t *testing.T) {
	dash, host := Pipe()
	ch := New(dashboardOrigin, dash)

	ch.Send(protocol.SetManualResolution(1920, 1080))

	env := <-host.Inbound()
	assert.Equal(t, dashboardOrigin, env.Origin)
	cmd, err := protocol.DecodeCommand(env.Data)
	require.NoError(t, err)
	assert.Equal(t, protocol.ManualResolutionPayload{Width: 1920, Height: 1080}, cmd.Payload)
	assert.Equal(t, int64(1), ch.Stats().Sent)
}

func TestSend_AfterCloseIsDropped(t *testing.T) {
	dash, _ := Pipe()
	ch := New(dashboardOrigin, dash)
	require.NoError(t, ch.Close())

	ch.Send(protocol.ShowVirtualKeyboard())
	assert.Equal(t, int64(1), ch.Stats().Dropped)
}

func TestDispatch_RejectsForeignOrigin(t *testing.T) {
	ch := New(dashboardOrigin, nil)
	var got []protocol.Event
	ch.OnMessage(func(e protocol.Event) { got = append(got, e) })

	ok := ch.Dispatch(Envelope{
		Origin: "https://evil.example.test",
		Data:   encodeEvent(t, protocol.ClipboardContentUpdate{Text: "secret"}),
	})

	assert.False(t, ok)
	assert.Empty(t, got)
	assert.Equal(t, int64(1), ch.Stats().Rejected)
}

func TestDispatch_MalformedAndUnknownAreIgnored(t *testing.T) {
	ch := New(dashboardOrigin, nil)
	calls := 0
	ch.OnMessage(func(protocol.Event) { calls++ })

	assert.False(t, ch.Dispatch(Envelope{Origin: dashboardOrigin, Data: []byte(`{broken`)}))
	assert.False(t, ch.Dispatch(Envelope{Origin: dashboardOrigin, Data: []byte(`{"type":"mystery"}`)}))
	assert.True(t, ch.Dispatch(Envelope{Origin: dashboardOrigin, Data: []byte(`{"type":"clipboardContentUpdate","text":"ok"}`)}))

	stats := ch.Stats()
	assert.Equal(t, 1, calls)
	assert.Equal(t, int64(1), stats.Malformed)
	assert.Equal(t, int64(1), stats.Unknown)
	assert.Equal(t, int64(3), stats.Received)
}

func TestDispatch_RecoversFromPanickingHandler(t *testing.T) {
	ch := New(dashboardOrigin, nil)
	ch.OnMessage(func(protocol.Event) { panic("renderer exploded") })

	var ok bool
	assert.NotPanics(t, func() {
		ok = ch.Dispatch(Envelope{Origin: dashboardOrigin, Data: encodeEvent(t, protocol.ClipboardContentUpdate{Text: "x"})})
	})
	assert.False(t, ok)
}

func TestRun_PreservesSenderOrder(t *testing.T) {
	dash, host := Pipe()
	ch := New(dashboardOrigin, dash)

	var got []int
	done := make(chan struct{})
	ch.OnMessage(func(e protocol.Event) {
		got = append(got, e.(protocol.GamepadButtonUpdate).ButtonIndex)
		if len(got) == 5 {
			close(done)
		}
	})

	for i := 0; i < 5; i++ {
		require.NoError(t, host.Post(dashboardOrigin, encodeEvent(t, protocol.GamepadButtonUpdate{ButtonIndex: i, Value: 1})))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = ch.Run(ctx) }()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		require.Fail(t, "timed out waiting for events")
	}
	assert.Equal(t, []int{0, 1, 2, 3, 4}, got)
}

func TestRun_ReturnsWhenTransportCloses(t *testing.T) {
	dash, _ := Pipe()
	ch := New(dashboardOrigin, dash)

	errCh := make(chan error, 1)
	go func() { errCh <- ch.Run(context.Background()) }()
	require.NoError(t, dash.Close())

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		require.Fail(t, "Run did not return")
	}
}

func TestRun_RequiresTransport(t *testing.T) {
	assert.Error(t, New(dashboardOrigin, nil).Run(context.Background()))
}

func TestPipe_PostAfterPeerCloseFails(t *testing.T) {
	a, b := Pipe()
	require.NoError(t, b.Close())
	assert.ErrorIs(t, a.Post(dashboardOrigin, []byte(`{}`)), ErrClosed)
}

func TestWebSocket_RoundTripAndOriginCheck(t *testing.T) {
	hostSide := make(chan Transport, 1)
	srv := httptest.NewServer(WebSocketHandler(dashboardOrigin, func(tr Transport) { hostSide <- tr }))
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := DialWebSocket(ctx, wsURL, "https://evil.example.test")
	assert.Error(t, err, "foreign origin must be refused at the handshake")

	dash, err := DialWebSocket(ctx, wsURL, dashboardOrigin)
	require.NoError(t, err)
	defer dash.Close()

	var host Transport
	select {
	case host = <-hostSide:
	case <-ctx.Done():
		require.Fail(t, "host never saw the connection")
	}
	defer host.Close()

	ch := New(dashboardOrigin, dash)
	ch.Send(protocol.GamepadControl(true))

	env := <-host.Inbound()
	assert.Equal(t, dashboardOrigin, env.Origin)
	assert.JSONEq(t, `{"type":"gamepadControl","enabled":true}`, string(env.Data))

	require.NoError(t, host.Post(dashboardOrigin, encodeEvent(t, protocol.ClipboardContentUpdate{Text: "hi"})))
	back := <-dash.Inbound()
	evt, err := protocol.DecodeEvent(back.Data)
	require.NoError(t, err)
	assert.Equal(t, protocol.ClipboardContentUpdate{Text: "hi"}, evt)
}

func TestWebSocket_MalformedFrameKeepsConnection(t *testing.T) {
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	fromDash := make(chan []byte, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"origin":"x","data": nope}`))
		_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"origin":"`+dashboardOrigin+`","data":{"type":"clipboardContentUpdate","text":"after"}}`))
		if _, msg, err := conn.ReadMessage(); err == nil {
			fromDash <- msg
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	dash, err := DialWebSocket(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), dashboardOrigin)
	require.NoError(t, err)
	defer dash.Close()

	select {
	case env, ok := <-dash.Inbound():
		require.True(t, ok, "transport closed after a malformed frame")
		evt, err := protocol.DecodeEvent(env.Data)
		require.NoError(t, err)
		assert.Equal(t, protocol.ClipboardContentUpdate{Text: "after"}, evt)
	case <-ctx.Done():
		require.Fail(t, "valid frame never arrived")
	}
	assert.Equal(t, int64(1), dash.(*wsTransport).badFrames.Load())

	require.NoError(t, dash.Post(dashboardOrigin, []byte(`{"type":"gamepadControl","enabled":false}`)))
	select {
	case msg := <-fromDash:
		assert.Contains(t, string(msg), "gamepadControl")
	case <-ctx.Done():
		require.Fail(t, "host never received the post")
	}
}
