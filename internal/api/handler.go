package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/askhatb/go-fire-alerts/internal/repository"
)

// Handler serves the read-only monitoring surface. All writes to the
// store happen in the background loops, never through HTTP.
type Handler struct {
	fires   repository.FireRepository
	reports repository.CrowdReportRepository
}

func NewHandler(fires repository.FireRepository, reports repository.CrowdReportRepository) *Handler {
	return &Handler{
		fires:   fires,
		reports: reports,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/api/fires", h.getFires)
	r.GET("/api/reports", h.getReports)
	r.GET("/health", h.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

func (h *Handler) getFires(c *gin.Context) {
	filter := repository.FireFilter{
		Limit: 20, // Default if limit param not supplied
	}

	if s := c.Query("since"); s != "" {
		if t, err := time.Parse("2006-01-02", s); err == nil {
			filter.Since = &t
		}
	}
	if l := c.Query("limit"); l != "" {
		if lim, err := strconv.Atoi(l); err == nil && lim > 0 && lim <= 500 {
			filter.Limit = lim
		}
	}

	fires, err := h.fires.ListFires(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to fetch fires",
		})
		return
	}

	fc := firesToGeoJSON(fires)
	c.Header("Content-Type", "application/geo+json")
	c.JSON(http.StatusOK, fc)
}

func (h *Handler) getReports(c *gin.Context) {
	limit := 20
	if l := c.Query("limit"); l != "" {
		if lim, err := strconv.Atoi(l); err == nil && lim > 0 && lim <= 500 {
			limit = lim
		}
	}

	reports, err := h.reports.ListReports(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to fetch reports",
		})
		return
	}

	fc := reportsToGeoJSON(reports)
	c.Header("Content-Type", "application/geo+json")
	c.JSON(http.StatusOK, fc)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
