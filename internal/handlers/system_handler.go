package handlers

import (
	"net/http"
	"strconv"
	"time"

	"devopsquiz/internal/catalog"
	"devopsquiz/internal/services"
	contextutils "devopsquiz/internal/utils"
	"devopsquiz/internal/version"

	"github.com/gin-gonic/gin"
)

// SystemHandler serves the health probe and the read-only JSON routes
type SystemHandler struct {
	catalog   *catalog.Catalog
	aiService services.AIServiceInterface
	usage     services.UsageStatsServiceInterface
}

// NewSystemHandler creates a new SystemHandler. usage may be nil.
func NewSystemHandler(cat *catalog.Catalog, aiService services.AIServiceInterface, usage services.UsageStatsServiceInterface) *SystemHandler {
	return &SystemHandler{catalog: cat, aiService: aiService, usage: usage}
}

// Health reports liveness, the build and the AI concurrency counters
func (h *SystemHandler) Health(c *gin.Context) {
	stats := h.aiService.GetConcurrencyStats()
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "devops-quiz",
		"version": version.Version,
		"ai": gin.H{
			"active_requests": stats.ActiveRequests,
			"max_concurrent":  stats.MaxConcurrent,
			"total_requests":  stats.TotalRequests,
		},
		"usage_stats": h.usage != nil && h.usage.Enabled(),
	})
}

// Version returns the build information
func (h *SystemHandler) Version(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service":   "devops-quiz",
		"version":   version.Version,
		"commit":    version.Commit,
		"buildTime": version.BuildTime,
	})
}

// Topics returns the whole category, subject and keyword table
func (h *SystemHandler) Topics(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalog)
}

const (
	defaultUsageDays = 7
	maxUsageDays     = 366
)

// Usage returns the AI usage counters of the last ?days=N days (default 7)
func (h *SystemHandler) Usage(c *gin.Context) {
	days := defaultUsageDays
	if raw := c.Query("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxUsageDays {
			HandleAppErrorJSON(c, contextutils.WrapErrorf(contextutils.ErrInvalidInput, "days must be between 1 and %d", maxUsageDays))
			return
		}
		days = n
	}

	if h.usage == nil || !h.usage.Enabled() {
		c.JSON(http.StatusOK, gin.H{"enabled": false, "days": days, "stats": []*services.UsageStats{}})
		return
	}

	since := time.Now().UTC().AddDate(0, 0, -(days - 1))
	stats, err := h.usage.Summary(c.Request.Context(), since)
	if err != nil {
		HandleAppErrorJSON(c, err)
		return
	}
	if stats == nil {
		stats = []*services.UsageStats{}
	}
	c.JSON(http.StatusOK, gin.H{"enabled": true, "days": days, "stats": stats})
}
