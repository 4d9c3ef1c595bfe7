package models

import "time"

const (
	ProviderLocal  = "local"
	ProviderGoogle = "google"
)

// DietStatsID keys the dashboard singleton. Every ingestion run
// replaces the document under this id wholesale.
const DietStatsID = "dashboard-stats"

// User is one catalog account. Exactly one document exists per email;
// the id is the email stripped of non-alphanumeric characters.
// Externally-authenticated accounts carry no password hash.
type User struct {
	ID           string    `bson:"_id" json:"id"`
	Name         string    `bson:"name" json:"name"`
	Email        string    `bson:"email" json:"email"`
	PasswordHash string    `bson:"password,omitempty" json:"-"`
	Provider     string    `bson:"provider" json:"provider"`
	CreatedAt    time.Time `bson:"createdAt" json:"createdAt"`
}

// Recipe is one catalog entry. The id is a slug derived from the
// trimmed title, so two rows with the same title collapse to one
// document. The bson names match the documents the ingest pipeline has
// always written; the json names are the v1 response contract.
type Recipe struct {
	ID      string `bson:"_id" json:"id"`
	Title   string `bson:"Title" json:"title"`
	Diet    string `bson:"Diet" json:"diet"`
	Cuisine string `bson:"Cuisine" json:"cuisine"`
	Protein string `bson:"Protein,omitempty" json:"protein"`
	Carbs   string `bson:"Carbs,omitempty" json:"carbs"`
	Fat     string `bson:"Fat,omitempty" json:"fat"`
}

// DietStats maps diet name to the number of deduplicated recipes in the
// most recently ingested batch. Counts are never merged across runs.
type DietStats struct {
	ID          string         `bson:"_id" json:"id"`
	DietCounts  map[string]int `bson:"dietCounts" json:"dietCounts"`
	LastUpdated time.Time      `bson:"lastUpdated" json:"lastUpdated"`
}
