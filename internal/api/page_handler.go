package api

import (
	"context"
	"net/http"
	"sort"
	"time"

	"adminconsole/internal/dto/req"
	"adminconsole/internal/dto/resp"
	"adminconsole/internal/model"
	"adminconsole/internal/service"

	"github.com/gin-gonic/gin"
)

type PageHandler struct {
	auth      *service.AuthService
	settings  *service.SettingsStore
	resources []string
	health    func(ctx context.Context) error
}

// NewPageHandler serves the dashboard and the static pages. health may be
// nil when the console has no dependency to check.
func NewPageHandler(auth *service.AuthService, settings *service.SettingsStore, resources []string, health func(ctx context.Context) error) *PageHandler {
	sorted := append([]string(nil), resources...)
	sort.Strings(sorted)
	return &PageHandler{
		auth:      auth,
		settings:  settings,
		resources: sorted,
		health:    health,
	}
}

func (h *PageHandler) Dashboard(c *gin.Context) {
	principal, err := h.auth.Me(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp.DashboardResp{
		Page:      "dashboard",
		Principal: principal,
		Settings:  h.settings.Get(),
		Resources: h.resources,
	})
}

func (h *PageHandler) Terms(c *gin.Context) {
	c.JSON(http.StatusOK, resp.PageResp{Page: "terms"})
}

func (h *PageHandler) Privacy(c *gin.Context) {
	c.JSON(http.StatusOK, resp.PageResp{Page: "privacy"})
}

func (h *PageHandler) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, h.settings.Get())
}

func (h *PageHandler) UpdateSettings(c *gin.Context) {
	var body req.NotificationSettingsReq
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lowStockThreshold must be a number >= 0"})
		return
	}
	n := model.NotificationSettings{LowStockThreshold: *body.LowStockThreshold}
	if err := h.settings.Update(n); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

func (h *PageHandler) HealthCheck(c *gin.Context) {
	if h.health != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.health(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
