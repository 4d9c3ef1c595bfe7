package routes

import (
	"tastebase/auth"
	"tastebase/middleware"
	"tastebase/oauth"
	"tastebase/ratelim"
	"tastebase/recipes"
	"tastebase/stats"
	"tastebase/tokens"

	"github.com/julienschmidt/httprouter"
)

func AddAuthRoutes(router *httprouter.Router, h *auth.Handlers, g *oauth.Handlers, rl *ratelim.RateLimiter) {
	router.POST("/login", rl.Limit(h.Login))
	router.POST("/register", rl.Limit(h.Register))
	router.GET("/auth/google", g.Start)
	router.GET("/auth/google/callback", g.Callback)
}

func AddRecipeRoutes(router *httprouter.Router, h *recipes.Handlers, svc *tokens.Service) {
	router.GET("/recipes", middleware.Authenticate(svc, h.Search))
}

func AddStatsRoutes(router *httprouter.Router, h *stats.Handlers, svc *tokens.Service) {
	router.GET("/stats", middleware.Authenticate(svc, h.Get))
}
