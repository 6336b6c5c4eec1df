package audit

import (
	"context"
	"log"
	"time"

	"arena-ledger/internal/keys"
	"arena-ledger/internal/models"

	"github.com/oklog/ulid/v2"
	"go.mongodb.org/mongo-driver/mongo"
)

// Operation names for audit entries
const (
	OpInitializeRegistry = "initialize_registry"
	OpRegisterAgent      = "register_agent"
	OpRecordBattle       = "record_battle"
	OpPlaceBet           = "place_bet"
)

// Entry is the diagnostic record of one committed ledger operation.
type Entry struct {
	ID        string          `bson:"_id"`
	Operation string          `bson:"operation"`
	Caller    models.Identity `bson:"caller"`
	Key       keys.Location   `bson:"key"`
	Message   string          `bson:"message"`
	CreatedAt time.Time       `bson:"createdAt"`
}

// Logger prints one line per operation and, when a collection is set,
// persists the entry.
type Logger struct {
	collection *mongo.Collection
}

// NewLogger creates a Logger. A nil collection logs to stderr only.
func NewLogger(collection *mongo.Collection) *Logger {
	return &Logger{collection: collection}
}

// Record logs the message and writes the entry to the database
// (fire-and-forget). It returns the entry ID.
func (l *Logger) Record(operation string, caller models.Identity, key keys.Location, message string) string {
	entry := Entry{
		ID:        ulid.Make().String(),
		Operation: operation,
		Caller:    caller,
		Key:       key,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}

	log.Printf("[Ledger] %s (op=%s id=%s)", message, operation, entry.ID)

	if l == nil || l.collection == nil {
		return entry.ID
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := l.collection.InsertOne(ctx, entry); err != nil {
			log.Printf("Audit log write failed: %v", err)
		}
	}()
	return entry.ID
}
