package api

import (
	"sort"

	"adminconsole/internal/guard"
	"adminconsole/internal/metrics"
	"adminconsole/internal/middleware"
	"adminconsole/internal/service"
	"adminconsole/pkg/constraints"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

type Handlers struct {
	Auth        *AuthHandler
	Pages       *PageHandler
	Stream      *StreamHandler
	Collections map[string]service.Collection
}

type RouterOptions struct {
	Guard         *guard.Guard
	AdminRole     string
	SecureCookies bool
	Redis         *redis.Client // nil keeps sign-in rate limiting in memory
	SignInRPS     int
	CorsOrigins   []string
}

func RegisterRoutes(h Handlers, opts RouterOptions) *gin.Engine {
	r := gin.New()

	r.Use(
		middleware.CorsMiddleware(opts.CorsOrigins),
		middleware.RequestID(),
		middleware.TraceMiddleware(),
		middleware.GinZapLogger(),
		middleware.GinZapRecovery(),
		middleware.HttpMiddleware(),
	)
	r.SetTrustedProxies(nil)

	// Infrastructure, outside the guard.
	r.GET(constraints.PathHealth, h.Pages.HealthCheck)
	r.GET(constraints.PathMetrics, gin.WrapH(metrics.Handler()))
	r.GET(constraints.PathSession, h.Auth.Session)
	r.GET(constraints.PathSessionEvents, h.Stream.SessionEvents)
	r.POST(constraints.PathLogout, h.Auth.Logout)

	pages := r.Group("/")
	pages.Use(middleware.GuardMiddleware(opts.Guard, opts.AdminRole, opts.SecureCookies))
	{
		pages.GET(constraints.PathSignIn, h.Auth.SignInPage)
		pages.POST(constraints.PathSignIn, middleware.RateLimitMiddleware(opts.Redis, "signin", opts.SignInRPS), h.Auth.SignIn)
		pages.GET(constraints.PathTerms, h.Pages.Terms)
		pages.GET(constraints.PathPrivacy, h.Pages.Privacy)

		pages.GET(constraints.PathHome, h.Pages.Dashboard)
		pages.GET(constraints.PathSettings, h.Pages.GetSettings)
		pages.PUT(constraints.PathSettings, h.Pages.UpdateSettings)

		paths := make([]string, 0, len(h.Collections))
		for path := range h.Collections {
			paths = append(paths, path)
		}
		sort.Strings(paths)
		for _, path := range paths {
			col := h.Collections[path]
			rh := NewResourceHandler(col)
			pages.GET(path, rh.List)
			pages.GET(path+"/all", rh.All)
			pages.GET(path+"/:id", rh.Get)
			if !col.ReadOnly() {
				pages.PUT(path+"/:id", rh.Update)
				pages.DELETE(path+"/:id", rh.Delete)
			}
		}
	}
	return r
}
