package recipes

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"tastebase/models"
	"tastebase/utils"

	"github.com/julienschmidt/httprouter"
)

// Store is the read side of the catalog. Implementations match diet by
// case-insensitive equality and keyword by case-insensitive substring
// of the title.
type Store interface {
	SearchRecipes(ctx context.Context, diet, keyword string) ([]models.Recipe, error)
}

type Handlers struct {
	Store Store
}

func NewHandlers(store Store) *Handlers {
	return &Handlers{Store: store}
}

// Search handles GET /recipes. The store returns every match; paging is
// applied here so total reflects the full match count, not one page.
func (h *Handlers) Search(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	diet := strings.TrimSpace(r.URL.Query().Get("diet"))
	if strings.EqualFold(diet, "all") {
		diet = ""
	}
	keyword := strings.TrimSpace(r.URL.Query().Get("keyword"))
	page, pageSize := utils.ParsePagination(r)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	matches, err := h.Store.SearchRecipes(ctx, diet, keyword)
	if err != nil {
		log.Printf("recipes: search: %v", err)
		utils.RespondWithError(w, http.StatusInternalServerError, "Failed to fetch recipes")
		return
	}

	total := len(matches)
	utils.RespondWithJSON(w, http.StatusOK, utils.M{
		"page":       page,
		"pageSize":   pageSize,
		"total":      total,
		"totalPages": TotalPages(total, pageSize),
		"data":       Paginate(matches, page, pageSize),
	})
}

// Paginate slices one page out of the full match set. Pages past the
// end yield an empty slice, never an error.
func Paginate(items []models.Recipe, page, pageSize int) []models.Recipe {
	start := (page - 1) * pageSize
	if start >= len(items) {
		return []models.Recipe{}
	}
	end := min(start+pageSize, len(items))
	return items[start:end]
}

func TotalPages(total, pageSize int) int {
	return (total + pageSize - 1) / pageSize
}
