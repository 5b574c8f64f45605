package mongodb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/trezcool/ratiba/core"
)

const errInvalidID = "this id is not valid"

const (
	usersCollection        = "users"
	appointmentsCollection = "appointments"
	messagesCollection     = "messages"
)

// DB is the process-wide handle to the document store.
type DB struct {
	client *mongo.Client
	db     *mongo.Database
}

// Open connects to url, selects dbName and makes sure the indexes exist.
func Open(ctx context.Context, url, dbName string) (*DB, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(url))
	if err != nil {
		return nil, errors.Wrap(err, "connecting to mongodb")
	}
	if err = ping(ctx, client); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	db := &DB{client: client, db: client.Database(dbName)}
	if err = db.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return db, nil
}

// ping waits for the server to be ready. Waits 100ms longer between each attempt.
func ping(ctx context.Context, client *mongo.Client) error {
	var err error
	maxAttempts := 10
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		if err = client.Ping(ctx, readpref.Primary()); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "DB ping cancelled")
		case <-time.After(time.Duration(attempts) * 100 * time.Millisecond):
		}
	}
	return errors.Wrap(err, "DB ping timeout")
}

func (db *DB) ensureIndexes(ctx context.Context) error {
	_, err := db.db.Collection(usersCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "role", Value: 1}, {Key: "department", Value: 1}, {Key: "subject", Value: 1}}},
	})
	if err != nil {
		return errors.Wrap(err, "creating users indexes")
	}
	_, err = db.db.Collection(appointmentsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "teacherId", Value: 1}}},
		{Keys: bson.D{{Key: "studentId", Value: 1}}},
	})
	if err != nil {
		return errors.Wrap(err, "creating appointments indexes")
	}
	_, err = db.db.Collection(messagesCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "recipientId", Value: 1}},
	})
	return errors.Wrap(err, "creating messages indexes")
}

func (db *DB) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return db.client.Disconnect(ctx)
}

// objectID parses a hex id; ok is false for ids that cannot exist in the store.
func objectID(id string) (primitive.ObjectID, bool) {
	oid, err := primitive.ObjectIDFromHex(id)
	return oid, err == nil
}

// refID converts a foreign key used in a lookup, keeping unparsable ones as NilObjectID so they never match.
func refID(id string) primitive.ObjectID {
	oid, _ := objectID(id)
	return oid
}

// foreignID converts a foreign key about to be written. Unparsable keys are rejected on field.
func foreignID(field, id string) (primitive.ObjectID, error) {
	oid, ok := objectID(id)
	if !ok {
		return primitive.NilObjectID, core.NewValidationError(nil, core.FieldError{Field: field, Error: errInvalidID})
	}
	return oid, nil
}

func hexID(oid primitive.ObjectID) string {
	if oid.IsZero() {
		return ""
	}
	return oid.Hex()
}
