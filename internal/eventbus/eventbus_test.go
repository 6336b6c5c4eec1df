package eventbus

import (
	"encoding/json"
	"sync"
	"testing"

	"arena-ledger/internal/keys"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEvent(t *testing.T) {
	payload := map[string]any{"name": "Alpha"}
	event, err := NewEvent(EventAgentRegistered, "", keys.Agent("a"), payload)
	require.NoError(t, err)

	assert.Len(t, event.ID, 26)
	assert.Equal(t, EventAgentRegistered, event.Type)
	assert.Equal(t, keys.Agent("a"), event.Key)
	assert.JSONEq(t, `{"name":"Alpha"}`, string(event.Payload))

	_, err = NewEvent(EventBetPlaced, "b", keys.Bet("b", "x"), make(chan int))
	assert.Error(t, err)
}

// TestPublishLocal verifies a bus without MongoDB still delivers locally.
func TestPublishLocal(t *testing.T) {
	var (
		mu       sync.Mutex
		received []Event
	)
	bus := New(nil, func(e Event) {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, e)
	})
	bus.Start()
	defer bus.Stop()

	event, err := NewEvent(EventBattleRecorded, "battle-1", keys.Battle("battle-1"), nil)
	require.NoError(t, err)
	bus.Publish(event)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 1)
	assert.Equal(t, "battle-1", received[0].BattleID)
	assert.Equal(t, json.RawMessage("null"), received[0].Payload)
}

func TestMachineIDStable(t *testing.T) {
	a := New(nil, nil)
	b := New(nil, nil)
	assert.NotEmpty(t, a.machineID)
	assert.Equal(t, a.machineID, a.machineID)
	assert.NotEqual(t, a.machineID, b.machineID)
}
