package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/vendor-performance-api/logger"
	"github.com/kendall-kelly/vendor-performance-api/performance"
	"github.com/kendall-kelly/vendor-performance-api/services"
	"go.uber.org/zap"
)

func respondSuccess(c *gin.Context, status int, data interface{}) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

func respondError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

func respondValidationError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "VALIDATION_ERROR",
			"message": "Invalid request data",
			"details": err.Error(),
		},
	})
}

// respondServiceError maps service errors to the API error envelope. Anything
// unrecognised is logged and reported as a database error with fallback as
// the message.
func respondServiceError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, services.ErrVendorNotFound), errors.Is(err, performance.ErrVendorNotFound):
		respondError(c, http.StatusNotFound, "VENDOR_NOT_FOUND", "Vendor not found")
	case errors.Is(err, services.ErrPurchaseOrderNotFound):
		respondError(c, http.StatusNotFound, "PURCHASE_ORDER_NOT_FOUND", "Purchase order not found")
	case errors.Is(err, services.ErrVendorInUse):
		respondError(c, http.StatusConflict, "VENDOR_IN_USE", "Vendor has purchase orders and cannot be deleted")
	case errors.Is(err, services.ErrAlreadyAcknowledged):
		respondError(c, http.StatusConflict, "ALREADY_ACKNOWLEDGED", "Purchase order has already been acknowledged")
	case errors.Is(err, services.ErrIdentifierConflict):
		respondError(c, http.StatusConflict, "IDENTIFIER_CONFLICT", "Could not allocate a unique identifier, please retry")
	case errors.Is(err, services.ErrReportsUnavailable):
		respondError(c, http.StatusServiceUnavailable, "REPORTS_UNAVAILABLE", "Report storage is not configured")
	case errors.Is(err, services.ErrEmptyVendorName),
		errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrAcknowledgedTooEarly):
		respondValidationError(c, err)
	default:
		logger.FromGin(c).Error(fallback, zap.Error(err))
		respondError(c, http.StatusInternalServerError, "DATABASE_ERROR", fallback)
	}
}

// parseID reads a positive numeric path parameter
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "Invalid "+name+" parameter")
		return 0, false
	}
	return uint(id), true
}
