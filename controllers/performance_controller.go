package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/vendor-performance-api/logger"
	"github.com/kendall-kelly/vendor-performance-api/models"
	"github.com/kendall-kelly/vendor-performance-api/performance"
	"github.com/kendall-kelly/vendor-performance-api/services"
	"go.uber.org/zap"
)

// VendorPerformance is the current metric set of a vendor
type VendorPerformance struct {
	VendorID            uint    `json:"vendor_id"`
	Name                string  `json:"name"`
	OnTimeDeliveryRate  float64 `json:"on_time_delivery_rate"`
	QualityRatingAvg    float64 `json:"quality_rating_avg"`
	AverageResponseTime float64 `json:"average_response_time"`
	FulfillmentRate     float64 `json:"fulfillment_rate"`
}

// PerformanceTrend is a vendor's snapshot history ordered by date
type PerformanceTrend struct {
	VendorID uint                    `json:"vendor_id"`
	Name     string                  `json:"name"`
	Logs     []models.PerformanceLog `json:"logs"`
}

// PerformanceController serves the vendor performance endpoints
type PerformanceController struct {
	vendors *services.VendorService
	reports *services.ReportService
	engine  *performance.Engine
}

// NewPerformanceController creates a PerformanceController
func NewPerformanceController(vendors *services.VendorService, reports *services.ReportService, engine *performance.Engine) *PerformanceController {
	return &PerformanceController{vendors: vendors, reports: reports, engine: engine}
}

func performanceOf(v *models.Vendor) VendorPerformance {
	return VendorPerformance{
		VendorID:            v.ID,
		Name:                v.Name,
		OnTimeDeliveryRate:  v.OnTimeDeliveryRate,
		QualityRatingAvg:    v.QualityRatingAvg,
		AverageResponseTime: v.AverageResponseTime,
		FulfillmentRate:     v.FulfillmentRate,
	}
}

// GetPerformance handles GET /api/v1/vendors/:id/performance
func (pc *PerformanceController) GetPerformance(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	vendor, err := pc.vendors.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve vendor performance")
		return
	}

	respondSuccess(c, http.StatusOK, performanceOf(vendor))
}

// GetPerformanceLogs handles GET /api/v1/vendors/:id/performance/logs
func (pc *PerformanceController) GetPerformanceLogs(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	vendor, logs, err := pc.vendors.PerformanceLogs(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve performance logs")
		return
	}

	respondSuccess(c, http.StatusOK, PerformanceTrend{VendorID: vendor.ID, Name: vendor.Name, Logs: logs})
}

// ExportPerformanceLogs handles POST /api/v1/vendors/:id/performance/logs/export -
// uploads the trend as CSV and returns a download link
func (pc *PerformanceController) ExportPerformanceLogs(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	export, err := pc.reports.ExportTrend(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "Failed to export performance logs")
		return
	}

	respondSuccess(c, http.StatusCreated, export)
}

// RecomputeVendor handles POST /api/v1/vendors/:id/performance/recompute -
// recomputes all four metrics from the order history
func (pc *PerformanceController) RecomputeVendor(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	res, err := pc.engine.Resync(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "Failed to recompute vendor performance")
		return
	}

	respondSuccess(c, http.StatusOK, performanceOf(&res.Vendor))
}

// RecomputeAll handles POST /api/v1/performance/recompute - resyncs every vendor
func (pc *PerformanceController) RecomputeAll(c *gin.Context) {
	started := time.Now()

	count, err := pc.engine.RecomputeAll(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "Failed to recompute vendor performance")
		return
	}

	logger.FromGin(c).Info("Recomputed all vendor metrics",
		zap.Int("vendors", count),
		zap.Duration("elapsed", time.Since(started)),
	)
	respondSuccess(c, http.StatusOK, gin.H{"vendors": count})
}
