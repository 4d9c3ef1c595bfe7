package db

import (
	"context"
	"errors"

	"tastebase/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ReplaceStats overwrites the dashboard singleton. Counts are replaced,
// never merged; the document always reflects the latest ingestion run.
func (db *DB) ReplaceStats(ctx context.Context, stats models.DietStats) error {
	_, err := db.Stats.ReplaceOne(ctx,
		bson.M{"_id": stats.ID}, stats, options.Replace().SetUpsert(true))
	return err
}

// GetStats returns the dashboard singleton, or nil before the first
// ingestion run. Absence is not an error.
func (db *DB) GetStats(ctx context.Context) (*models.DietStats, error) {
	var stats models.DietStats
	err := db.Stats.FindOne(ctx, bson.M{"_id": models.DietStatsID}).Decode(&stats)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
