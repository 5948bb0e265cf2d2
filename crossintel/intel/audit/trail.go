// Package audit provides a best-effort trail of trust events. Writes are
// fire-and-forget: a lost audit entry must never fail the primary write, so
// every error here is logged and swallowed by the caller via Record's
// ignored result.
package audit

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/tradewind/crossintel/crossintel/logger"
)

const (
	defaultDatabase   = "crossintel"
	defaultCollection = "trust_audit"
	writeTimeout      = 2 * time.Second
)

// Entry is one audit record. It intentionally duplicates the primary event
// row so the trail stays readable even if the relational side is rewritten.
type Entry struct {
	EventID   string            `bson:"event_id"`
	UserID    string            `bson:"user_id"`
	EventType string            `bson:"event_type"`
	Impact    float64           `bson:"impact"`
	Context   map[string]string `bson:"context,omitempty"`
	Score     float64           `bson:"score_after"`
	Timestamp time.Time         `bson:"timestamp"`
}

// Trail writes audit entries to MongoDB. A nil *Trail is valid and records
// nothing, so the engine can run without an audit sink configured.
type Trail struct {
	coll *mongo.Collection
}

type Config struct {
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// Connect opens the Mongo client and resolves the audit collection.
func Connect(ctx context.Context, cfg Config) (*Trail, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	dbName := cfg.Database
	if dbName == "" {
		dbName = defaultDatabase
	}
	collName := cfg.Collection
	if collName == "" {
		collName = defaultCollection
	}

	return &Trail{coll: client.Database(dbName).Collection(collName)}, nil
}

// Record appends one entry to the trail. The returned error exists so the
// failure stays observable in logs and tests; call sites ignore it by
// design.
func (t *Trail) Record(ctx context.Context, entry Entry) error {
	if t == nil || t.coll == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	_, err := t.coll.InsertOne(ctx, entry)
	if err != nil {
		logger.LogAuditDrop(entry.EventID, err)
		return err
	}
	return nil
}
