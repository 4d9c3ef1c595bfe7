package db

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const databaseName = "recipedb"

// DB wraps the Mongo client and the collection handles the catalog
// uses. It is constructed once in main and injected into handlers, so
// tests can substitute a fake behind the store interfaces each consumer
// declares.
type DB struct {
	client *mongo.Client

	Users   *mongo.Collection
	Recipes *mongo.Collection
	Stats   *mongo.Collection
}

// Connect dials MongoDB and verifies the connection with a ping.
func Connect(ctx context.Context, uri string) (*DB, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		return nil, err
	}

	database := client.Database(databaseName)
	return &DB{
		client:  client,
		Users:   database.Collection("users"),
		Recipes: database.Collection("recipes"),
		Stats:   database.Collection("stats"),
	}, nil
}

func (db *DB) Close(ctx context.Context) error {
	return db.client.Disconnect(ctx)
}
