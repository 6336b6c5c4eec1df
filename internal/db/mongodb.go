package db

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"arena-ledger/internal/keys"
	"arena-ledger/internal/store"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoDB implements store.Store on a MongoDB replica set. Each record kind
// is a collection and the derived location is the document _id, so the
// primary key index provides insert-if-absent.
type MongoDB struct {
	Client   *mongo.Client
	Database *mongo.Database
}

func NewMongoDB(uri, database string) (*MongoDB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOptions := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(100).
		SetMinPoolSize(5).
		SetMaxConnIdleTime(5 * time.Minute)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	db := &MongoDB{
		Client:   client,
		Database: client.Database(database),
	}

	// Collections must exist before the first transaction writes to them
	if err := db.ensureIndexes(); err != nil {
		return nil, err
	}

	return db, nil
}

// ensureIndexes creates all required indexes. Called once on startup.
func (m *MongoDB) ensureIndexes() error {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	// Uniqueness comes from _id, the derived location. These only serve reads.
	indexes := []struct {
		collection string
		models     []mongo.IndexModel
	}{
		{
			string(store.KindAgent),
			[]mongo.IndexModel{
				{Keys: bson.D{{Key: "externalId", Value: 1}}},
				{Keys: bson.D{{Key: "rating", Value: -1}}},
			},
		},
		{
			string(store.KindBattle),
			[]mongo.IndexModel{
				{Keys: bson.D{{Key: "battleId", Value: 1}}},
				{Keys: bson.D{{Key: "timestamp", Value: -1}}},
			},
		},
		{
			string(store.KindBet),
			[]mongo.IndexModel{
				{Keys: bson.D{{Key: "battleId", Value: 1}, {Key: "bettor", Value: 1}}},
				{Keys: bson.D{{Key: "bettor", Value: 1}, {Key: "placedAt", Value: -1}}},
			},
		},
		{
			"ws_events",
			[]mongo.IndexModel{
				{Keys: bson.D{{Key: "createdAt", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(60)},
			},
		},
		{
			"audit_log",
			[]mongo.IndexModel{
				{Keys: bson.D{{Key: "createdAt", Value: 1}}, Options: options.Index().SetExpireAfterSeconds(90 * 24 * 3600)}, // 90-day retention
				{Keys: bson.D{{Key: "operation", Value: 1}, {Key: "createdAt", Value: -1}}},
			},
		},
	}

	for _, idx := range indexes {
		coll := m.Database.Collection(idx.collection)
		if _, err := coll.Indexes().CreateMany(ctx, idx.models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", idx.collection, err)
		}
	}

	// The registry has no secondary index; create it explicitly
	err := m.Database.CreateCollection(ctx, string(store.KindRegistry))
	var cmdErr mongo.CommandError
	if err != nil && !(errors.As(err, &cmdErr) && cmdErr.Name == "NamespaceExists") {
		return fmt.Errorf("failed to create registry collection: %w", err)
	}

	log.Println("Database indexes ensured")
	return nil
}

func (m *MongoDB) Close(ctx context.Context) error {
	return m.Client.Disconnect(ctx)
}

func (m *MongoDB) collection(kind store.Kind) *mongo.Collection {
	return m.Database.Collection(string(kind))
}

func (m *MongoDB) WSEvents() *mongo.Collection {
	return m.Database.Collection("ws_events")
}

func (m *MongoDB) AuditLog() *mongo.Collection {
	return m.Database.Collection("audit_log")
}

// Update runs fn inside a multi-document transaction. WithTransaction
// retries on TransientTransactionError, so driver errors are returned
// unwrapped unless they are duplicate-key failures.
func (m *MongoDB) Update(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	session, err := m.Client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc, mongoTx{db: m})
	})
	return err
}

func (m *MongoDB) View(ctx context.Context, fn func(ctx context.Context, tx store.Tx) error) error {
	return fn(ctx, mongoTx{db: m})
}

func (m *MongoDB) Scan(ctx context.Context, kind store.Kind, fn func(loc keys.Location, decode store.DecodeFunc) error) error {
	cursor, err := m.collection(kind).Find(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("failed to scan %s: %w", kind, err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var id struct {
			ID keys.Location `bson:"_id"`
		}
		if err := cursor.Decode(&id); err != nil {
			return fmt.Errorf("failed to decode %s id: %w", kind, err)
		}
		err := fn(id.ID, func(out any) error {
			return cursor.Decode(out)
		})
		if errors.Is(err, store.ErrStopScan) {
			return nil
		}
		if err != nil {
			return err
		}
	}
	return cursor.Err()
}

type mongoTx struct {
	db *MongoDB
}

func (t mongoTx) Get(ctx context.Context, kind store.Kind, loc keys.Location, out any) error {
	err := t.db.collection(kind).FindOne(ctx, bson.M{"_id": loc}).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return fmt.Errorf("%s %s: %w", kind, loc.Short(), store.ErrNotFound)
	}
	return err
}

func (t mongoTx) Create(ctx context.Context, kind store.Kind, loc keys.Location, doc any) error {
	_, err := t.db.collection(kind).InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%s %s: %w", kind, loc.Short(), store.ErrDuplicateKey)
	}
	return err
}

func (t mongoTx) Put(ctx context.Context, kind store.Kind, loc keys.Location, doc any) error {
	res, err := t.db.collection(kind).ReplaceOne(ctx, bson.M{"_id": loc}, doc)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("%s %s: %w", kind, loc.Short(), store.ErrNotFound)
	}
	return nil
}
