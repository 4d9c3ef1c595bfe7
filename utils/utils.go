package utils

import (
	"encoding/json"
	"net/http"
	"strconv"
)

type M map[string]any

func RespondWithError(w http.ResponseWriter, code int, msg string) {
	RespondWithJSON(w, code, map[string]string{"error": msg})
}

// Sends a JSON response
func RespondWithJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

// ParsePagination reads page/pageSize from the query string. Missing or
// non-positive values are coerced to 1 and 10.
func ParsePagination(r *http.Request) (page, pageSize int) {
	q := r.URL.Query()

	page, _ = strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}

	pageSize, _ = strconv.Atoi(q.Get("pageSize"))
	if pageSize < 1 {
		pageSize = 10
	}

	return page, pageSize
}
