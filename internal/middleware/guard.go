package middleware

import (
	"net/http"

	"adminconsole/internal/guard"
	"adminconsole/internal/service"
	"adminconsole/internal/session"
	"adminconsole/pkg/constraints"
	"adminconsole/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NoticeHeader carries the message a redirected page should show.
const NoticeHeader = "X-Console-Notice"

// GuardMiddleware runs the session guard before every console page.
// Navigations (GET, HEAD) that are turned away get a 303 to the target
// page. Other methods get the equivalent status as JSON, since there is no
// page to land on.
func GuardMiddleware(g *guard.Guard, adminRole string, secureCookies bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		d := g.Check(c.Request.Context(), c.Request.URL.Path)

		if d.State == guard.StateExpired {
			http.SetCookie(c.Writer, session.ClearedCookie(secureCookies))
		}

		if d.Allow {
			if op := service.OperatorFromClaims(d.Claims, adminRole); op != nil {
				c.Request = c.Request.WithContext(service.WithOperator(c.Request.Context(), op))
			}
			c.Next()
			return
		}

		if d.Redirect == "" {
			// The caller went away while the guard was checking.
			logger.Debug("navigation aborted", zap.String("path", c.Request.URL.Path))
			c.Abort()
			return
		}

		if d.Notice != "" {
			c.Header(NoticeHeader, d.Notice)
		}
		// A signed-in operator posting to /signin is simply sent home.
		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodHead || d.State == guard.StateValid {
			c.Redirect(http.StatusSeeOther, d.Redirect)
			c.Abort()
			return
		}

		status, msg := http.StatusUnauthorized, constraints.ReasonSessionExpired
		switch d.State {
		case guard.StateUnauthorized:
			status, msg = http.StatusForbidden, constraints.NoticeAccessDenied
		case guard.StateNoToken:
			msg = "Not signed in."
		}
		c.AbortWithStatusJSON(status, gin.H{"error": msg, "redirect": d.Redirect})
	}
}
