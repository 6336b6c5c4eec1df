package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"arena-ledger/internal/eventbus"
	"arena-ledger/internal/keys"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialTopic(t *testing.T, server *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) eventbus.Event {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var event eventbus.Event
	require.NoError(t, json.Unmarshal(data, &event))
	return event
}

func TestHubDeliversByTopic(t *testing.T) {
	ws := NewWebSocketHandler()
	defer ws.GetHub().Stop()

	router := mux.NewRouter()
	router.HandleFunc("/ws/feed", ws.HandleFeed)
	router.HandleFunc("/ws/battles/{battleId}", ws.HandleBattle)
	server := httptest.NewServer(router)
	defer server.Close()

	hub := ws.GetHub()
	feed := dialTopic(t, server, "/ws/feed")
	watcher := dialTopic(t, server, "/ws/battles/b-1")
	require.Eventually(t, func() bool {
		return hub.ClientCount(FeedTopic) == 1 && hub.ClientCount(battleTopic("b-1")) == 1
	}, 2*time.Second, 10*time.Millisecond)

	agentEvent, err := eventbus.NewEvent(eventbus.EventAgentRegistered, "", keys.Agent("a"), nil)
	require.NoError(t, err)
	battleEvent, err := eventbus.NewEvent(eventbus.EventBattleRecorded, "b-1", keys.Battle("b-1"), nil)
	require.NoError(t, err)
	hub.Deliver(agentEvent)
	hub.Deliver(battleEvent)

	assert.Equal(t, eventbus.EventAgentRegistered, readEvent(t, feed).Type)
	assert.Equal(t, eventbus.EventBattleRecorded, readEvent(t, feed).Type)

	// The battle topic only sees its own battle
	got := readEvent(t, watcher)
	assert.Equal(t, eventbus.EventBattleRecorded, got.Type)
	assert.Equal(t, "b-1", got.BattleID)

	watcher.Close()
	require.Eventually(t, func() bool {
		return hub.ClientCount(battleTopic("b-1")) == 0
	}, 2*time.Second, 10*time.Millisecond)
}
