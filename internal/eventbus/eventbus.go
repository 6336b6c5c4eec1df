package eventbus

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"arena-ledger/internal/keys"

	"github.com/oklog/ulid/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Ledger event types
const (
	EventRegistryInitialized = "registry_initialized"
	EventAgentRegistered     = "agent_registered"
	EventBattleRecorded      = "battle_recorded"
	EventBetPlaced           = "bet_placed"
)

// Event is a committed ledger change, as delivered to stream subscribers.
type Event struct {
	ID        string          `json:"id" bson:"eventId"`
	Type      string          `json:"type" bson:"type"`
	BattleID  string          `json:"battleId,omitempty" bson:"battleId,omitempty"`
	Key       keys.Location   `json:"key" bson:"key"`
	Payload   json.RawMessage `json:"payload,omitempty" bson:"payload,omitempty"`
	CreatedAt time.Time       `json:"createdAt" bson:"createdAt"`
}

// NewEvent stamps a ULID and encodes payload as JSON.
func NewEvent(eventType, battleID string, key keys.Location, payload any) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("encode %s payload: %w", eventType, err)
	}
	return Event{
		ID:        ulid.Make().String(),
		Type:      eventType,
		BattleID:  battleID,
		Key:       key,
		Payload:   raw,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// WSEvent is the document stored in the ws_events collection.
type WSEvent struct {
	ID              primitive.ObjectID `bson:"_id,omitempty"`
	OriginMachineID string             `bson:"originMachineId"`
	Event           Event              `bson:"event"`
	// Housekeeping:
	CreatedAt time.Time `bson:"createdAt"`
}

// DeliverFunc hands an event to local subscribers.
type DeliverFunc func(event Event)

// EventBus delivers ledger events to local subscribers and, when backed by
// MongoDB, publishes them to ws_events and watches for events from other
// machines via Change Streams.
type EventBus struct {
	machineID    string
	collection   *mongo.Collection
	deliverLocal DeliverFunc
	cancelFunc   context.CancelFunc
	wg           sync.WaitGroup
	running      bool
	mu           sync.Mutex
}

func generateMachineID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// New creates an EventBus. If collection is nil, the EventBus runs in
// local-only mode (no database writes, no watcher).
func New(collection *mongo.Collection, deliverLocal DeliverFunc) *EventBus {
	return &EventBus{
		machineID:    generateMachineID(),
		collection:   collection,
		deliverLocal: deliverLocal,
	}
}

// Start begins the Change Stream watcher in a background goroutine.
func (eb *EventBus) Start() {
	if eb.collection == nil {
		log.Println("[EventBus] No collection configured, running in local-only mode")
		return
	}

	eb.mu.Lock()
	defer eb.mu.Unlock()
	if eb.running {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	eb.cancelFunc = cancel
	eb.running = true
	eb.wg.Add(1)

	go eb.watchLoop(ctx)
	log.Printf("[EventBus] Started (machineId=%s)", eb.machineID)
}

// Stop cancels the Change Stream watcher and waits for it to exit.
func (eb *EventBus) Stop() {
	eb.mu.Lock()
	defer eb.mu.Unlock()
	if !eb.running {
		return
	}
	eb.running = false
	if eb.cancelFunc != nil {
		eb.cancelFunc()
	}
	eb.wg.Wait()
	log.Println("[EventBus] Stopped")
}

// Publish delivers event locally, then inserts it into ws_events for other
// machines. Errors are logged, never returned (fire-and-forget).
func (eb *EventBus) Publish(event Event) {
	if eb.deliverLocal != nil {
		eb.deliverLocal(event)
	}
	if eb.collection == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	doc := WSEvent{
		OriginMachineID: eb.machineID,
		Event:           event,
		CreatedAt:       time.Now(),
	}
	if _, err := eb.collection.InsertOne(ctx, doc); err != nil {
		log.Printf("[EventBus] Failed to publish %s: %v", event.Type, err)
	}
}

// watchLoop runs the Change Stream in a reconnecting loop.
func (eb *EventBus) watchLoop(ctx context.Context) {
	defer eb.wg.Done()

	for {
		if ctx.Err() != nil {
			return
		}
		err := eb.watch(ctx)
		if ctx.Err() != nil {
			return // normal shutdown
		}
		log.Printf("[EventBus] Change stream error (reconnecting in 2s): %v", err)
		select {
		case <-ctx.Done():
			return
		case <-time.After(2 * time.Second):
		}
	}
}

func (eb *EventBus) watch(ctx context.Context) error {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{
			{Key: "operationType", Value: "insert"},
		}}},
	}
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)

	cs, err := eb.collection.Watch(ctx, pipeline, opts)
	if err != nil {
		return err
	}
	defer cs.Close(ctx)

	for cs.Next(ctx) {
		var changeDoc struct {
			FullDocument WSEvent `bson:"fullDocument"`
		}
		if err := cs.Decode(&changeDoc); err != nil {
			log.Printf("[EventBus] Failed to decode change event: %v", err)
			continue
		}

		doc := changeDoc.FullDocument

		// Skip events from this machine (already delivered locally)
		if doc.OriginMachineID == eb.machineID {
			continue
		}
		if eb.deliverLocal != nil {
			eb.deliverLocal(doc.Event)
		}
	}

	return cs.Err()
}
