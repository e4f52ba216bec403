package topicseed

import (
	"context"
	"encoding/json"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultMongoDatabase = "topicseed"

// MongoStore maps collections onto MongoDB collections of one database.
type MongoStore struct {
	client *mongo.Client
	db     *mongo.Database
}

var _ DocumentStore = (*MongoStore)(nil)

// NewMongoStore connects to uri. An empty database selects "topicseed".
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	if database == "" {
		database = defaultMongoDatabase
	}
	return &MongoStore{client: client, db: client.Database(database)}, nil
}

func (s *MongoStore) Close() error {
	return s.client.Disconnect(context.Background())
}

func (s *MongoStore) Insert(ctx context.Context, collection string, doc any) (string, error) {
	ids, err := s.InsertMany(ctx, collection, []any{doc})
	if err != nil {
		return "", err
	}
	return ids[0], nil
}

func (s *MongoStore) InsertMany(ctx context.Context, collection string, docs []any) ([]string, error) {
	if len(docs) == 0 {
		return nil, nil
	}
	ids := make([]string, len(docs))
	records := make([]any, len(docs))
	for i, doc := range docs {
		fields, err := toFields(doc)
		if err != nil {
			return nil, err
		}
		ids[i] = newDocumentID()
		record := bson.M{"_id": ids[i]}
		for k, v := range fields {
			record[k] = v
		}
		records[i] = record
	}
	if _, err := s.db.Collection(collection).InsertMany(ctx, records); err != nil {
		return nil, fmt.Errorf("failed to insert documents: %w", err)
	}
	return ids, nil
}

func (s *MongoStore) Search(ctx context.Context, collection string, filter map[string]any) ([]Document, error) {
	query := bson.M{}
	for k, v := range filter {
		if l, ok := v.(Label); ok {
			v = l.String()
		}
		query[k] = v
	}
	// Ids are ULIDs, so sorting by _id keeps insertion order.
	cursor, err := s.db.Collection(collection).Find(ctx, query, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []Document
	for cursor.Next(ctx) {
		doc, err := decodeMongoDocument(cursor.Current)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, cursor.Err()
}

// decodeMongoDocument goes through relaxed extended JSON so nested values come
// back as plain JSON types.
func decodeMongoDocument(raw bson.Raw) (Document, error) {
	data, err := bson.MarshalExtJSON(raw, false, false)
	if err != nil {
		return Document{}, fmt.Errorf("failed to convert document: %w", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return Document{}, fmt.Errorf("failed to parse document: %w", err)
	}
	id, _ := fields["_id"].(string)
	delete(fields, "_id")
	return Document{ID: id, Fields: fields}, nil
}
