package gateway

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aryok23/garden-advisor/advisor"
	"github.com/Aryok23/garden-advisor/engine"
	"github.com/Aryok23/garden-advisor/llm"
	"github.com/Aryok23/garden-advisor/memory"
	"github.com/Aryok23/garden-advisor/memory/embedder/mock"
	"github.com/Aryok23/garden-advisor/memory/store/chromem"
	"github.com/Aryok23/garden-advisor/planner"
)

func newTestGateway(backend llm.Backend) *Gateway {
	registry := engine.NewToolRegistry()
	adv := advisor.New(advisor.Deps{
		Engine:  engine.NewEngine(backend, registry),
		Planner: planner.New(nil, ""),
		Memory: memory.NewManager(chromem.New(), mock.New(), memory.Config{
			Enabled:       true,
			MinSimilarity: -1,
			RecallLimit:   3,
		}),
		Window: memory.NewWindow(10),
	})
	return New(adv)
}

func TestChatEndpoint(t *testing.T) {
	g := newTestGateway(llm.NewMock(llm.TextMessage("Water basil every 2-3 days.")))
	srv := httptest.NewServer(g.Router())
	defer srv.Close()

	body, _ := json.Marshal(chatRequest{UserID: "alice", Text: "how often to water basil?"})
	resp, err := http.Post(srv.URL+"/v1/chat", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var parsed chatResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
	assert.Equal(t, "finished", parsed.State)
	assert.Contains(t, parsed.Text, "2-3 days")
}

func TestChatValidation(t *testing.T) {
	g := newTestGateway(llm.NewMock(llm.TextMessage("ok")))
	srv := httptest.NewServer(g.Router())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/v1/chat", "application/json", strings.NewReader(`{"text": "no user"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestChatBackendFailure(t *testing.T) {
	backend := llm.NewMock()
	backend.Err = assert.AnError
	g := newTestGateway(backend)
	srv := httptest.NewServer(g.Router())
	defer srv.Close()

	body, _ := json.Marshal(chatRequest{UserID: "alice", Text: "hello"})
	resp, err := http.Post(srv.URL+"/v1/chat", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	var parsed chatResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
	assert.Equal(t, advisor.Apology, parsed.Text)
}

func TestHealthAndHelp(t *testing.T) {
	g := newTestGateway(llm.NewMock(llm.TextMessage("ok")))
	srv := httptest.NewServer(g.Router())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/v1/help")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var parsed map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
	assert.Contains(t, parsed["help"], "garden advisor")
}

func TestUserRoutes(t *testing.T) {
	g := newTestGateway(llm.NewMock(llm.TextMessage("Tomatoes like full sun.")))
	srv := httptest.NewServer(g.Router())
	defer srv.Close()

	// Seed memory through a chat turn.
	body, _ := json.Marshal(chatRequest{UserID: "alice", Text: "tell me about my tomato plants"})
	resp, err := http.Post(srv.URL+"/v1/chat", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/v1/users/alice/plants")
	require.NoError(t, err)
	var parsed map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
	resp.Body.Close()
	assert.Contains(t, parsed["message"], "tomato")

	req, _ := http.NewRequest(http.MethodDelete, srv.URL+"/v1/users/alice/history", nil)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/v1/users/alice/plants")
	require.NoError(t, err)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
	resp.Body.Close()
	assert.NotContains(t, parsed["message"], "tomato,")
}

func TestWebSocketChat(t *testing.T) {
	g := newTestGateway(llm.NewMock(llm.TextMessage("Cacti want almost no water.")))
	srv := httptest.NewServer(g.Router())
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(chatRequest{UserID: "alice", Text: "water my cactus?"}))

	var resp chatResponse
	require.NoError(t, conn.ReadJSON(&resp))
	assert.Equal(t, "finished", resp.State)
	assert.Contains(t, resp.Text, "no water")
}
