package admin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vyrodovalexey/petcache/internal/monitoring"
)

// RegionStats is the JSON form of one region's statistics.
type RegionStats struct {
	HitCount      int64   `json:"hitCount"`
	MissCount     int64   `json:"missCount"`
	HitRate       float64 `json:"hitRate"`
	EvictionCount int64   `json:"evictionCount"`
	EstimatedSize int64   `json:"estimatedSize"`
}

// SizeResponse is the body of GET /size/:name.
type SizeResponse struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

type handlers struct {
	service *monitoring.Service
}

func (h *handlers) stats(c *gin.Context) {
	stats := h.service.Statistics()

	body := make(map[string]RegionStats, len(stats))
	for name, s := range stats {
		body[name] = RegionStats{
			HitCount:      s.Hits,
			MissCount:     s.Misses,
			HitRate:       s.HitRate(),
			EvictionCount: s.Evictions,
			EstimatedSize: s.Size,
		}
	}
	c.JSON(http.StatusOK, body)
}

func (h *handlers) size(c *gin.Context) {
	name := c.Param("name")

	size, ok := h.service.CacheSize(name)
	if !ok {
		c.JSON(http.StatusNotFound, errorResponse{Error: "cache not found: " + name})
		return
	}
	c.JSON(http.StatusOK, SizeResponse{Name: name, Size: size})
}

func (h *handlers) clearAll(c *gin.Context) {
	if err := h.service.ClearAll(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, messageResponse{Message: "all caches cleared"})
}

func (h *handlers) clear(c *gin.Context) {
	name := c.Param("name")

	if err := h.service.ClearCache(c.Request.Context(), name); err != nil {
		c.JSON(http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	c.JSON(http.StatusOK, messageResponse{Message: "cache cleared: " + name})
}
