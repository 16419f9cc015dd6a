package controllers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/vendor-performance-api/logger"
	"github.com/kendall-kelly/vendor-performance-api/models"
	"github.com/kendall-kelly/vendor-performance-api/services"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// CreatePurchaseOrderRequest represents the request body for creating a purchase order.
// Delivery date, status, quality rating and acknowledgment date are not accepted.
type CreatePurchaseOrderRequest struct {
	VendorID  uint            `json:"vendor_id" binding:"required"`
	OrderDate time.Time       `json:"order_date" binding:"required"`
	Items     json.RawMessage `json:"items" binding:"required"`
	Quantity  int             `json:"quantity" binding:"required,gt=0"`
}

// UpdatePurchaseOrderRequest represents the mutable purchase order fields
type UpdatePurchaseOrderRequest struct {
	DeliveryDate  *time.Time      `json:"delivery_date"`
	Items         json.RawMessage `json:"items"`
	Quantity      *int            `json:"quantity" binding:"omitempty,gt=0"`
	Status        *string         `json:"status" binding:"omitempty,oneof=pending completed cancelled"`
	QualityRating *float64        `json:"quality_rating" binding:"omitempty,gte=0,lte=5"`
}

// AcknowledgePurchaseOrderRequest optionally carries the acknowledgment time
type AcknowledgePurchaseOrderRequest struct {
	AcknowledgmentDate *time.Time `json:"acknowledgment_date"`
}

// PurchaseOrderController serves the purchase order endpoints
type PurchaseOrderController struct {
	orders *services.PurchaseOrderService
}

// NewPurchaseOrderController creates a PurchaseOrderController
func NewPurchaseOrderController(orders *services.PurchaseOrderService) *PurchaseOrderController {
	return &PurchaseOrderController{orders: orders}
}

// CreatePurchaseOrder handles POST /api/v1/purchase_orders - creates a pending order
func (pc *PurchaseOrderController) CreatePurchaseOrder(c *gin.Context) {
	var req CreatePurchaseOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}
	if !json.Valid(req.Items) {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "items must be valid JSON")
		return
	}

	po, err := pc.orders.Create(c.Request.Context(), services.CreatePurchaseOrderInput{
		VendorID:  req.VendorID,
		OrderDate: req.OrderDate,
		Items:     datatypes.JSON(req.Items),
		Quantity:  req.Quantity,
	})
	if err != nil {
		respondServiceError(c, err, "Failed to create purchase order")
		return
	}

	respondSuccess(c, http.StatusCreated, po)
}

// ListPurchaseOrders handles GET /api/v1/purchase_orders - optional vendor_id filter
func (pc *PurchaseOrderController) ListPurchaseOrders(c *gin.Context) {
	page, limit, err := parsePagination(c)
	if err != nil {
		respondValidationError(c, err)
		return
	}

	var vendorID *uint
	if raw := c.Query("vendor_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "vendor_id must be a positive integer")
			return
		}
		v := uint(id)
		vendorID = &v
	}

	orders, total, err := pc.orders.List(c.Request.Context(), vendorID, page, limit)
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve purchase orders")
		return
	}

	respondPage(c, orders, newPagination(page, limit, total))
}

// GetPurchaseOrder handles GET /api/v1/purchase_orders/:id
func (pc *PurchaseOrderController) GetPurchaseOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	po, err := pc.orders.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve purchase order")
		return
	}

	respondSuccess(c, http.StatusOK, po)
}

// UpdatePurchaseOrder handles PUT/PATCH /api/v1/purchase_orders/:id - updates the
// mutable fields and recomputes the vendor's metrics
func (pc *PurchaseOrderController) UpdatePurchaseOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req UpdatePurchaseOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err)
		return
	}
	if len(req.Items) > 0 && !json.Valid(req.Items) {
		respondError(c, http.StatusBadRequest, "VALIDATION_ERROR", "items must be valid JSON")
		return
	}

	po, _, err := pc.orders.Update(c.Request.Context(), id, services.UpdatePurchaseOrderInput{
		DeliveryDate:  req.DeliveryDate,
		Items:         datatypes.JSON(req.Items),
		Quantity:      req.Quantity,
		Status:        req.Status,
		QualityRating: req.QualityRating,
	})
	if err != nil {
		if po != nil {
			respondRecomputeFailed(c, po, err)
			return
		}
		respondServiceError(c, err, "Failed to update purchase order")
		return
	}

	respondSuccess(c, http.StatusOK, po)
}

// AcknowledgePurchaseOrder handles POST /api/v1/purchase_orders/:id/acknowledge -
// records the vendor's acknowledgment once
func (pc *PurchaseOrderController) AcknowledgePurchaseOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req AcknowledgePurchaseOrderRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondValidationError(c, err)
			return
		}
	}

	po, _, err := pc.orders.Acknowledge(c.Request.Context(), id, req.AcknowledgmentDate)
	if err != nil {
		if po != nil {
			respondRecomputeFailed(c, po, err)
			return
		}
		respondServiceError(c, err, "Failed to acknowledge purchase order")
		return
	}

	respondSuccess(c, http.StatusOK, po)
}

// DeletePurchaseOrder handles DELETE /api/v1/purchase_orders/:id
func (pc *PurchaseOrderController) DeletePurchaseOrder(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := pc.orders.Delete(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, "Failed to delete purchase order")
		return
	}

	c.Status(http.StatusNoContent)
}

// respondRecomputeFailed reports an order change that was saved while the
// vendor's metrics could not be recomputed. An admin resync repairs them.
func respondRecomputeFailed(c *gin.Context, po *models.PurchaseOrder, err error) {
	logger.FromGin(c).Error("Vendor metrics recomputation failed after purchase order update",
		zap.Uint("purchase_order_id", po.ID),
		zap.Uint("vendor_id", po.VendorID),
		zap.Error(err),
	)
	c.JSON(http.StatusInternalServerError, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "RECOMPUTE_FAILED",
			"message": "Purchase order was saved but vendor metrics could not be recomputed",
		},
	})
}
