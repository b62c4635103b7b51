// internal/output/mongodb.go
package output

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/valpere/SocialScrapexter/pkg/types"
)

const mongoTimeout = 10 * time.Second

// MongoWriter upserts posts into a collection keyed by post id.
type MongoWriter struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoWriter connects to the URI and targets the named collection in
// the URI's database (default database "socialscrapexter").
func NewMongoWriter(uri, collection string) (*MongoWriter, error) {
	if uri == "" {
		return nil, fmt.Errorf("mongodb output requires a connection uri")
	}
	if collection == "" {
		collection = "posts"
	}

	ctx, cancel := context.WithTimeout(context.Background(), mongoTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	dbName := databaseFromURI(uri)
	if dbName == "" {
		dbName = "socialscrapexter"
	}

	return &MongoWriter{
		client:     client,
		collection: client.Database(dbName).Collection(collection),
	}, nil
}

// databaseFromURI pulls the database segment out of a mongodb URI path.
func databaseFromURI(uri string) string {
	parsed, err := url.Parse(uri)
	if err != nil {
		return ""
	}
	return strings.Trim(parsed.Path, "/")
}

func (w *MongoWriter) Write(posts []types.Post) error {
	if len(posts) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), mongoTimeout)
	defer cancel()

	models := make([]mongo.WriteModel, 0, len(posts))
	for _, p := range posts {
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": p.ID}).
			SetReplacement(bson.M{
				"_id":        p.ID,
				"author":     p.Author,
				"author_url": p.AuthorURL,
				"content":    p.Content,
				"timestamp":  p.Timestamp,
				"reactions":  p.Reactions,
				"comments":   p.Comments,
				"shares":     p.Shares,
				"url":        p.URL,
			}).
			SetUpsert(true))
	}

	if _, err := w.collection.BulkWrite(ctx, models); err != nil {
		return fmt.Errorf("failed to write posts: %w", err)
	}
	return nil
}

func (w *MongoWriter) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), mongoTimeout)
	defer cancel()
	return w.client.Disconnect(ctx)
}
