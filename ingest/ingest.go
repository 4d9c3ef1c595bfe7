package ingest

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"tastebase/models"
)

// DefaultMaxRecipes caps how many deduplicated recipes a single run
// persists. The cap is a deliberate truncation, not an error; diet
// counts are computed over the full deduplicated set before it applies.
const DefaultMaxRecipes = 50

// Upstream export column names.
const (
	colTitle   = "Recipe_name"
	colDiet    = "Diet_type"
	colCuisine = "Cuisine_type"
	colProtein = "Protein(g)"
	colCarbs   = "Carbs(g)"
	colFat     = "Fat(g)"
)

// CatalogWriter is the slice of the document store a run writes to.
type CatalogWriter interface {
	UpsertRecipe(ctx context.Context, recipe models.Recipe) error
	ReplaceStats(ctx context.Context, stats models.DietStats) error
}

// StatsCache is notified after the stats singleton has been replaced,
// so stale dashboard snapshots get dropped.
type StatsCache interface {
	Invalidate(ctx context.Context)
}

// Pipeline turns one raw CSV upload into a deduplicated recipe batch
// plus a fresh diet-distribution snapshot.
type Pipeline struct {
	Writer     CatalogWriter
	Cache      StatsCache
	MaxRecipes int

	now func() time.Time
}

func NewPipeline(writer CatalogWriter, maxRecipes int) *Pipeline {
	if maxRecipes <= 0 {
		maxRecipes = DefaultMaxRecipes
	}
	return &Pipeline{Writer: writer, MaxRecipes: maxRecipes, now: time.Now}
}

// Run processes one uploaded batch end to end. The stats singleton is
// replaced first, then recipes are upserted up to MaxRecipes. The first
// persistence error aborts the run; documents already written stay put.
// There are no retries and no rollback.
func (p *Pipeline) Run(ctx context.Context, name string, data []byte) error {
	rows := parseCSV(data)
	recipes := Normalize(rows)

	stats := models.DietStats{
		ID:          models.DietStatsID,
		DietCounts:  DietCounts(recipes),
		LastUpdated: p.now().UTC(),
	}
	if err := p.Writer.ReplaceStats(ctx, stats); err != nil {
		return fmt.Errorf("save stats: %w", err)
	}
	if p.Cache != nil {
		p.Cache.Invalidate(ctx)
	}

	n := min(len(recipes), p.MaxRecipes)
	for i, recipe := range recipes[:n] {
		if err := p.Writer.UpsertRecipe(ctx, recipe); err != nil {
			return fmt.Errorf("save recipe %d of %d: %w", i+1, n, err)
		}
	}

	log.Printf("ingest: %s: %d rows, %d unique, %d saved", name, len(rows), len(recipes), n)
	return nil
}

// parseCSV reads delimited text with a header row into field-name to
// value mappings. Rows that cannot be parsed are skipped; they never
// fail the run.
func parseCSV(data []byte) []map[string]string {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		return nil
	}

	var rows []map[string]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// Normalize trims, defaults and deduplicates raw rows. Rows with an
// empty title are dropped. Dedup keys on the trimmed title and the
// first occurrence wins; later duplicates are discarded, not merged.
func Normalize(rows []map[string]string) []models.Recipe {
	seen := make(map[string]bool, len(rows))
	var recipes []models.Recipe

	for _, row := range rows {
		title := strings.TrimSpace(row[colTitle])
		if title == "" || seen[title] {
			continue
		}
		seen[title] = true

		diet := strings.ToLower(strings.TrimSpace(row[colDiet]))
		if diet == "" {
			diet = "unknown"
		}
		cuisine := strings.TrimSpace(row[colCuisine])
		if cuisine == "" {
			cuisine = "General"
		}

		recipes = append(recipes, models.Recipe{
			ID:      Slugify(title),
			Title:   title,
			Diet:    diet,
			Cuisine: cuisine,
			Protein: row[colProtein],
			Carbs:   row[colCarbs],
			Fat:     row[colFat],
		})
	}
	return recipes
}

// Slugify maps every character outside [A-Za-z0-9] to '-' and
// lower-cases the rest, so the id is a pure function of the title.
func Slugify(title string) string {
	var b strings.Builder
	b.Grow(len(title))
	for _, r := range title {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r - 'A' + 'a')
		default:
			b.WriteRune('-')
		}
	}
	return b.String()
}

// DietCounts aggregates the deduplicated set per diet value.
func DietCounts(recipes []models.Recipe) map[string]int {
	counts := make(map[string]int)
	for _, r := range recipes {
		counts[r.Diet]++
	}
	return counts
}
