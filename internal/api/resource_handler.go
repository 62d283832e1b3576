package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"adminconsole/internal/dto/req"
	"adminconsole/internal/service"
	"adminconsole/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// ResourceHandler serves one backend collection as console pages.
type ResourceHandler struct {
	collection service.Collection
}

func NewResourceHandler(collection service.Collection) *ResourceHandler {
	return &ResourceHandler{collection: collection}
}

func (h *ResourceHandler) List(c *gin.Context) {
	q, ok := bindListQuery(c)
	if !ok {
		return
	}
	page, err := h.collection.List(c.Request.Context(), q)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// All serves the unpaged listing used to fill pickers.
func (h *ResourceHandler) All(c *gin.Context) {
	items, err := h.collection.All(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (h *ResourceHandler) Get(c *gin.Context) {
	var uri req.ItemURI
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	item, err := h.collection.Find(c.Request.Context(), uri.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *ResourceHandler) Update(c *gin.Context) {
	var uri req.ItemURI
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil || !json.Valid(body) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "JSON format error"})
		return
	}
	if err := h.collection.Update(c.Request.Context(), uri.ID, body); err != nil {
		writeError(c, err)
		return
	}
	logger.Info("record updated",
		zap.String("resource", h.collection.Path()),
		zap.String("id", uri.ID),
		zap.String("operator", service.GetOperator(c.Request.Context())))
	c.JSON(http.StatusOK, gin.H{"message": "updated"})
}

// Delete removes the record and answers with the refetched page the
// operator was looking at.
func (h *ResourceHandler) Delete(c *gin.Context) {
	var uri req.ItemURI
	if err := c.ShouldBindUri(&uri); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}
	q, ok := bindListQuery(c)
	if !ok {
		return
	}
	page, err := h.collection.Delete(c.Request.Context(), uri.ID, q)
	if err != nil {
		writeError(c, err)
		return
	}
	logger.Info("record deleted",
		zap.String("resource", h.collection.Path()),
		zap.String("id", uri.ID),
		zap.String("operator", service.GetOperator(c.Request.Context())))
	c.JSON(http.StatusOK, page)
}

func bindListQuery(c *gin.Context) (service.PageQuery, bool) {
	var lq req.ListQuery
	if err := c.ShouldBindQuery(&lq); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid params"})
		return service.PageQuery{}, false
	}
	q := service.PageQuery{
		PageNumber: lq.PageNumber,
		PageSize:   lq.PageSize,
		Search:     lq.Search,
		Status:     lq.Status,
	}
	var err error
	if q.StartDate, err = parseDate("startDate", lq.StartDate); err == nil {
		q.EndDate, err = parseDate("endDate", lq.EndDate)
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return service.PageQuery{}, false
	}
	return q, true
}

func parseDate(name, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s must be YYYY-MM-DD", name)
	}
	return t, nil
}
