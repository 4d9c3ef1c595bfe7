package stats

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"tastebase/models"
	"tastebase/utils"

	"github.com/julienschmidt/httprouter"
	"github.com/redis/go-redis/v9"
)

const (
	cacheKey = "stats:dashboard"
	cacheTTL = 30 * time.Second
)

// Store reads the dashboard singleton from the document store. A nil
// result means no ingestion run has happened yet.
type Store interface {
	GetStats(ctx context.Context) (*models.DietStats, error)
}

// Cache is a redis read-through in front of the singleton. A nil Cache
// or an unreachable redis degrades silently to the store.
type Cache struct {
	Client *redis.Client
}

func (c *Cache) Get(ctx context.Context) (*models.DietStats, bool) {
	if c == nil || c.Client == nil {
		return nil, false
	}
	raw, err := c.Client.Get(ctx, cacheKey).Bytes()
	if err != nil {
		return nil, false
	}
	var stats models.DietStats
	if err := json.Unmarshal(raw, &stats); err != nil {
		return nil, false
	}
	return &stats, true
}

func (c *Cache) Set(ctx context.Context, stats *models.DietStats) {
	if c == nil || c.Client == nil {
		return
	}
	raw, err := json.Marshal(stats)
	if err != nil {
		return
	}
	if err := c.Client.Set(ctx, cacheKey, raw, cacheTTL).Err(); err != nil {
		log.Printf("stats: cache set: %v", err)
	}
}

// Invalidate drops the cached snapshot. The ingest pipeline calls this
// after replacing the singleton.
func (c *Cache) Invalidate(ctx context.Context) {
	if c == nil || c.Client == nil {
		return
	}
	if err := c.Client.Del(ctx, cacheKey).Err(); err != nil {
		log.Printf("stats: cache invalidate: %v", err)
	}
}

type Handlers struct {
	Store Store
	Cache *Cache
}

func NewHandlers(store Store, cache *Cache) *Handlers {
	return &Handlers{Store: store, Cache: cache}
}

// Get handles GET /stats: the diet distribution of the most recently
// ingested batch.
func (h *Handlers) Get(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if cached, ok := h.Cache.Get(ctx); ok {
		utils.RespondWithJSON(w, http.StatusOK, cached)
		return
	}

	snapshot, err := h.Store.GetStats(ctx)
	if err != nil {
		log.Printf("stats: fetch: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch stats")
		return
	}
	if snapshot == nil {
		// Nothing ingested yet; an empty distribution, not an error.
		snapshot = &models.DietStats{ID: models.DietStatsID, DietCounts: map[string]int{}}
	}

	h.Cache.Set(ctx, snapshot)
	utils.RespondWithJSON(w, http.StatusOK, snapshot)
}
