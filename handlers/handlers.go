package handlers

import (
	"net/http"
	"strconv"

	"report-triage-pipeline/models"
	"report-triage-pipeline/pipeline"
	"report-triage-pipeline/store"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Handlers holds all HTTP handlers
type Handlers struct {
	service *pipeline.Service
	store   store.Store
}

// NewHandlers creates a new handlers instance
func NewHandlers(service *pipeline.Service, s store.Store) *Handlers {
	return &Handlers{
		service: service,
		store:   s,
	}
}

// HealthCheck reports service liveness
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "report-triage-pipeline",
	})
}

// SubmitReport triages a single report submission and returns the decision.
// A missing description is a client error; every other rejection is a
// regular decision returned with 200.
func (h *Handlers) SubmitReport(c *gin.Context) {
	var report models.Report
	if err := c.ShouldBindJSON(&report); err != nil {
		log.Errorf("Invalid request body: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Invalid request body",
			"error":   err.Error(),
		})
		return
	}

	if report.ReportID == "" {
		report.ReportID = uuid.New().String()
	}

	decision, err := h.service.ClassifyReport(c.Request.Context(), &report)
	if err != nil {
		log.Errorf("Failed to record decision for report %s: %v", report.ReportID, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to record triage decision",
			"error":   err.Error(),
		})
		return
	}

	if decision.Reason == pipeline.ReasonDescriptionMissing {
		c.JSON(http.StatusBadRequest, decision)
		return
	}

	c.JSON(http.StatusOK, decision)
}

// GetRecentDecisions returns the newest decided submissions, newest first.
// The limit query parameter defaults to 20 and is capped at 100.
func (h *Handlers) GetRecentDecisions(c *gin.Context) {
	limit := 20
	if v := c.Query("limit"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"message": "Limit must be a positive integer",
			})
			return
		}
		limit = parsed
	}
	if limit > 100 {
		limit = 100
	}

	records, err := h.store.LoadRecent(c.Request.Context(), limit)
	if err != nil {
		log.Errorf("Failed to load recent decisions: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to load recent decisions",
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    records,
	})
}

// GetStats returns aggregate counts over the decision store
func (h *Handlers) GetStats(c *gin.Context) {
	stats, err := h.store.Stats(c.Request.Context())
	if err != nil {
		log.Errorf("Failed to compute decision stats: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to compute decision stats",
			"error":   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    stats,
	})
}
