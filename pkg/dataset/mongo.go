package dataset

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoSource is a read-only Collection backed by a MongoDB collection.
// Each document contributes the value of a single configured field.
// Documents are read in _id order so repeated reads are deterministic.
//
// MongoSource is intended as a pipeline input: Map materializes the
// documents and returns an in-memory [Slice], since transformed elements
// are intermediate results and are not written back to the database.
type MongoSource struct {
	coll  *mongo.Collection
	field string
}

// NewMongoSource creates a collection view over coll, extracting field
// from each document.
func NewMongoSource(coll *mongo.Collection, field string) *MongoSource {
	return &MongoSource{coll: coll, field: field}
}

// Map materializes the source and applies fn element-wise.
// The result is an in-memory collection.
func (m *MongoSource) Map(ctx context.Context, fn MapFunc) (Collection, error) {
	items, err := m.Collect(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]any, len(items))
	for i, x := range items {
		y, err := fn(x)
		if err != nil {
			return nil, err
		}
		out[i] = y
	}
	return &Slice{items: out}, nil
}

// Collect reads every document in _id order and extracts the configured
// field. A document missing the field is an error, since a silent skip
// would break the 1:1 mapping contract.
func (m *MongoSource) Collect(ctx context.Context) ([]any, error) {
	findOpts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := m.coll.Find(ctx, bson.D{}, findOpts)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", m.coll.Name(), err)
	}
	defer cursor.Close(ctx)

	var out []any
	for cursor.Next(ctx) {
		var doc bson.M
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode document: %w", err)
		}
		value, ok := doc[m.field]
		if !ok {
			return nil, fmt.Errorf("document %v: missing field %q", doc["_id"], m.field)
		}
		out = append(out, value)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", m.coll.Name(), err)
	}
	return out, nil
}

// Ensure MongoSource implements Collection.
var _ Collection = (*MongoSource)(nil)
