// Package mongo implements the record store driver on MongoDB: a
// status-filtered find for the initial load and a change stream for the
// live insert feed.
package mongo

import (
	"context"
	"log/slog"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ShanmugaRamana/ProjectRakshak-V2/store"
)

const (
	databaseName   = "rakshak"
	collectionName = "people"
)

// Driver is the MongoDB-backed record store.
type Driver struct {
	client *mongo.Client
	people *mongo.Collection
}

// NewDriver connects to MongoDB and verifies the connection. A failure here
// must abort startup.
func NewDriver(ctx context.Context, uri string) (*Driver, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to mongodb")
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, errors.Wrap(err, "failed to ping mongodb")
	}
	return &Driver{
		client: client,
		people: client.Database(databaseName).Collection(collectionName),
	}, nil
}

type personDoc struct {
	ID         primitive.ObjectID `bson:"_id"`
	FullName   string             `bson:"fullName"`
	Status     string             `bson:"status"`
	Embeddings [][]float32        `bson:"embeddings"`
}

func (d personDoc) toPerson() *store.Person {
	return &store.Person{
		ID:         d.ID.Hex(),
		FullName:   d.FullName,
		Status:     d.Status,
		Embeddings: d.Embeddings,
	}
}

// ListLostPersons fetches pre-calculated embeddings for every person whose
// status is Lost and whose embeddings array is non-empty.
func (d *Driver) ListLostPersons(ctx context.Context) ([]*store.Person, error) {
	filter := bson.M{
		"status":     store.StatusLost,
		"embeddings": bson.M{"$exists": true, "$not": bson.M{"$size": 0}},
	}
	projection := bson.M{"_id": 1, "fullName": 1, "embeddings": 1}

	cursor, err := d.people.Find(ctx, filter, options.Find().SetProjection(projection))
	if err != nil {
		return nil, errors.Wrap(err, "failed to query lost persons")
	}
	defer cursor.Close(ctx)

	var persons []*store.Person
	for cursor.Next(ctx) {
		var doc personDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, errors.Wrap(err, "failed to decode person document")
		}
		doc.Status = store.StatusLost
		persons = append(persons, doc.toPerson())
	}
	if err := cursor.Err(); err != nil {
		return nil, errors.Wrap(err, "cursor failed while listing lost persons")
	}
	return persons, nil
}

// WatchInserts opens a change stream restricted to insert operations and
// forwards each full inserted document. The returned channel closes when
// the stream ends or ctx is canceled.
func (d *Driver) WatchInserts(ctx context.Context) (<-chan *store.Person, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"operationType": "insert"}}},
	}
	stream, err := d.people.Watch(ctx, pipeline)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open change stream")
	}

	out := make(chan *store.Person)
	go func() {
		defer close(out)
		defer stream.Close(context.Background())

		for stream.Next(ctx) {
			var change struct {
				FullDocument personDoc `bson:"fullDocument"`
			}
			if err := stream.Decode(&change); err != nil {
				slog.Warn("failed to decode change stream event", "err", err)
				continue
			}
			select {
			case out <- change.FullDocument.toPerson():
			case <-ctx.Done():
				return
			}
		}
		if err := stream.Err(); err != nil && ctx.Err() == nil {
			slog.Error("change stream ended", "err", err)
		}
	}()
	return out, nil
}

func (d *Driver) Close(ctx context.Context) error {
	return d.client.Disconnect(ctx)
}
