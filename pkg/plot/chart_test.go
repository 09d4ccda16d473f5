package plot

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/raykavin/pricechart/pkg/core"
	"github.com/raykavin/pricechart/pkg/feed"
	"github.com/raykavin/pricechart/pkg/logger/zerolog"
	"github.com/raykavin/pricechart/pkg/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type received struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func volume(v float64) *core.Number {
	n := core.Number(v)
	return &n
}

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()

	store, err := storage.FromMemory(zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Save(feed.Batch{
		Symbol: "GP",
		Primary: []core.RawRecord{
			{Date: "2024-01-01", Open: 9, High: 11, Low: 8, Close: 10, Volume: volume(100)},
			{Date: "2024-01-02", Open: 10, High: 10, Low: 8, Close: 9, Volume: volume(120)},
			{Date: "2024-01-03", Open: 9, High: 12, Low: 9, Close: 11, Volume: volume(90)},
		},
		Prediction: []core.PredictionRecord{
			{Date: "2024-01-04", Value: 11.5},
		},
	}))

	srv, err := NewServer(zerolog.Nop(), store, WithDebug())
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)

	return srv, ts
}

func dial(t *testing.T, ts *httptest.Server, query string) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

// readUntil collects messages up to and including the first one of the given type
func readUntil(t *testing.T, conn *websocket.Conn, kind string) []received {
	t.Helper()

	var messages []received
	for {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

		var msg received
		require.NoError(t, conn.ReadJSON(&msg))
		messages = append(messages, msg)
		if msg.Type == kind {
			return messages
		}
	}
}

func types(messages []received) []string {
	out := make([]string, 0, len(messages))
	for _, m := range messages {
		out = append(out, m.Type)
	}
	return out
}

func send(t *testing.T, conn *websocket.Conn, kind string, payload any) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(WebSocketMessage{Type: kind, Payload: payload}))
}

func day(date string) int64 {
	t, err := core.ParseDate(date)
	if err != nil {
		panic(err)
	}
	return t
}

func TestServer_SessionLifecycle(t *testing.T) {
	srv, ts := newTestServer(t)
	conn := dial(t, ts, "symbol=gp&width=800")

	initial := readUntil(t, conn, MessageFit)
	assert.Equal(t, []string{
		MessageSurfaceCreate,
		MessageSeriesSet,
		MessageSeriesSet,
		MessageSeriesSet,
		MessagePriceLineCreate,
		MessageFit,
	}, types(initial))
	assert.Equal(t, 1, srv.Sessions())

	var created surfacePayload
	require.NoError(t, json.Unmarshal(initial[0].Payload, &created))
	require.NotNil(t, created.Options)
	assert.Equal(t, 800, created.Options.Width)
	assert.Equal(t, 500, created.Options.Height)

	var primary seriesPayload
	require.NoError(t, json.Unmarshal(initial[1].Payload, &primary))
	assert.Equal(t, "primary", primary.Kind)
	assert.Equal(t, core.Candlestick, primary.Chart)
	assert.Len(t, primary.Points, 3)

	var volumes seriesPayload
	require.NoError(t, json.Unmarshal(initial[3].Payload, &volumes))
	assert.Equal(t, "volume", volumes.Kind)
	require.Len(t, volumes.Bars, 3)
	assert.Equal(t, "#FF3B3055", volumes.Bars[1].Color)

	// hovering a candle pushes the legend
	at := day("2024-01-02")
	send(t, conn, MessageCrosshair, crosshairPayload{Surface: created.Surface, Time: &at, InPlot: true})
	hover := readUntil(t, conn, MessageLegend)

	var legend legendPayload
	require.NoError(t, json.Unmarshal(hover[len(hover)-1].Payload, &legend))
	assert.Equal(t, "GP", legend.Symbol)
	require.NotNil(t, legend.Legend)
	assert.Equal(t, 9.0, *legend.Legend.Close)
	assert.Equal(t, 120.0, *legend.Legend.Volume)

	// pointer moves of unknown surfaces are ignored, resize is delivered
	send(t, conn, MessageCrosshair, crosshairPayload{Surface: "stale", Time: &at, InPlot: true})
	send(t, conn, MessageResize, resizePayload{Width: 1000})
	resized := readUntil(t, conn, MessageSurfaceResize)
	assert.Equal(t, []string{MessageSurfaceResize}, types(resized))

	// switching the chart kind removes the old surface before creating the new one
	send(t, conn, MessageConfig, map[string]any{"chartKind": "line"})
	rebuilt := readUntil(t, conn, MessageFit)
	assert.Equal(t, []string{
		MessageSurfaceRemove,
		MessageLegend,
		MessageSurfaceCreate,
		MessageSeriesSet,
		MessageSeriesSet,
		MessagePriceLineCreate,
		MessageFit,
	}, types(rebuilt))

	var removed surfacePayload
	require.NoError(t, json.Unmarshal(rebuilt[0].Payload, &removed))
	assert.Equal(t, created.Surface, removed.Surface)

	var recreated surfacePayload
	require.NoError(t, json.Unmarshal(rebuilt[2].Payload, &recreated))
	assert.NotEqual(t, created.Surface, recreated.Surface)
	assert.Equal(t, 1000, recreated.Options.Width)

	// the old surface id no longer reaches the viewport
	send(t, conn, MessageCrosshair, crosshairPayload{Surface: created.Surface, Time: &at, InPlot: true})
	send(t, conn, MessageCrosshair, crosshairPayload{Surface: recreated.Surface, Time: &at, InPlot: true})
	hover = readUntil(t, conn, MessageLegend)
	assert.Equal(t, []string{MessageLegend}, types(hover))

	var line legendPayload
	require.NoError(t, json.Unmarshal(hover[0].Payload, &line))
	require.NotNil(t, line.Legend)
	assert.Equal(t, core.Line, line.Legend.Kind)
	assert.Nil(t, line.Legend.Open)
	assert.Nil(t, line.Legend.Close)
	assert.Equal(t, 9.0, *line.Legend.Value)
	assert.Equal(t, 120.0, *line.Legend.Volume)
}

func TestServer_InvalidConfiguration(t *testing.T) {
	_, ts := newTestServer(t)
	conn := dial(t, ts, "symbol=GP")
	readUntil(t, conn, MessageFit)

	send(t, conn, MessageConfig, map[string]any{"timeRange": "3W"})
	messages := readUntil(t, conn, MessageError)
	assert.Equal(t, []string{MessageSurfaceRemove, MessageError}, types(messages))

	var failure errorPayload
	require.NoError(t, json.Unmarshal(messages[1].Payload, &failure))
	assert.Contains(t, failure.Message, "3W")

	// the session recovers with a valid configuration
	send(t, conn, MessageConfig, map[string]any{"timeRange": "1Y", "chartKind": "area"})
	messages = readUntil(t, conn, MessageFit)
	assert.Equal(t, MessageSurfaceCreate, messages[0].Type)
}

func TestServer_WebSocketErrors(t *testing.T) {
	_, ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/ws")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/ws?symbol=NOPE")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestServer_HTTPEndpoints(t *testing.T) {
	_, ts := newTestServer(t)

	client := &http.Client{
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}

	t.Run("index redirects to first symbol", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/")
		require.NoError(t, err)
		defer resp.Body.Close()

		assert.Equal(t, http.StatusFound, resp.StatusCode)
		assert.Equal(t, "/?symbol=GP", resp.Header.Get("Location"))
	})

	t.Run("index page", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/?symbol=GP")
		require.NoError(t, err)
		defer resp.Body.Close()

		page, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Contains(t, string(page), `data-symbol="GP"`)
		assert.Contains(t, string(page), `data-chart-kind="candlestick"`)
	})

	t.Run("script", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/assets/chart.js")
		require.NoError(t, err)
		defer resp.Body.Close()

		script, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, "application/javascript", resp.Header.Get("Content-Type"))
		assert.Contains(t, string(script), "surface.create")
	})

	t.Run("symbols", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/symbols")
		require.NoError(t, err)
		defer resp.Body.Close()

		var symbols []string
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&symbols))
		assert.Equal(t, []string{"GP"}, symbols)
	})

	t.Run("health", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/health")
		require.NoError(t, err)
		defer resp.Body.Close()

		var body map[string]any
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "ok", body["status"])
	})
}

func TestServer_SessionClosedOnDisconnect(t *testing.T) {
	srv, ts := newTestServer(t)
	conn := dial(t, ts, "symbol=GP")
	readUntil(t, conn, MessageFit)
	require.Equal(t, 1, srv.Sessions())

	require.NoError(t, conn.Close())

	assert.Eventually(t, func() bool {
		return srv.Sessions() == 0
	}, 5*time.Second, 10*time.Millisecond)
}
