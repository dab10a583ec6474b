package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoConfig configures [NewMongoStore].
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
}

// MongoStore keeps records in a MongoDB collection. A TTL index on
// expires_at lets the server drop expired records on its own.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// mongoRecord is the stored document. The layout is kept as JSON so the
// grid status round-trips exactly as the file store writes it.
type mongoRecord struct {
	ID        string     `bson:"_id"`
	Kind      string     `bson:"kind"`
	DocHash   string     `bson:"doc_hash"`
	Layout    []byte     `bson:"layout"`
	CreatedAt time.Time  `bson:"created_at"`
	ExpiresAt *time.Time `bson:"expires_at,omitempty"`
}

// NewMongoStore connects, pings and ensures the TTL index.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	if cfg.Database == "" {
		cfg.Database = "tilegrid"
	}
	if cfg.Collection == "" {
		cfg.Collection = "snapshots"
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	coll := client.Database(cfg.Database).Collection(cfg.Collection)
	_, err = coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expires_at", Value: 1}},
		Options: options.Index().SetExpireAfterSeconds(0),
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("create ttl index: %w", err)
	}
	return &MongoStore{client: client, coll: coll}, nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (*Record, error) {
	if err := ValidateID(id); err != nil {
		return nil, err
	}
	var doc mongoRecord
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find snapshot: %w", err)
	}

	rec, err := doc.record()
	if err != nil {
		return nil, err
	}
	// The TTL monitor runs about once a minute.
	if rec.IsExpired() {
		return nil, nil
	}
	return rec, nil
}

func (s *MongoStore) Set(ctx context.Context, rec *Record) error {
	if err := ValidateID(rec.ID); err != nil {
		return err
	}
	doc, err := newMongoRecord(rec)
	if err != nil {
		return err
	}
	_, err = s.coll.ReplaceOne(ctx, bson.M{"_id": rec.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("store snapshot: %w", err)
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, id string) error {
	if err := ValidateID(id); err != nil {
		return err
	}
	if _, err := s.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return nil
}

func (s *MongoStore) Cleanup(ctx context.Context) error {
	_, err := s.coll.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lt": time.Now()}})
	if err != nil {
		return fmt.Errorf("cleanup snapshots: %w", err)
	}
	return nil
}

// Close disconnects the client.
func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func newMongoRecord(rec *Record) (mongoRecord, error) {
	layout, err := json.Marshal(rec.Layout)
	if err != nil {
		return mongoRecord{}, fmt.Errorf("marshal layout: %w", err)
	}
	doc := mongoRecord{
		ID:        rec.ID,
		Kind:      rec.Kind,
		DocHash:   rec.DocHash,
		Layout:    layout,
		CreatedAt: rec.CreatedAt,
	}
	if !rec.ExpiresAt.IsZero() {
		t := rec.ExpiresAt
		doc.ExpiresAt = &t
	}
	return doc, nil
}

func (d mongoRecord) record() (*Record, error) {
	rec := &Record{
		ID:        d.ID,
		Kind:      d.Kind,
		DocHash:   d.DocHash,
		CreatedAt: d.CreatedAt,
	}
	if d.ExpiresAt != nil {
		rec.ExpiresAt = *d.ExpiresAt
	}
	if err := json.Unmarshal(d.Layout, &rec.Layout); err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}
	return rec, nil
}

var _ Store = (*MongoStore)(nil)
