package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/kendall-kelly/vendor-performance-api/services"
)

// readOnlyVendorFields are maintained by the performance engine or generated
// on creation and cannot be written through the API.
var readOnlyVendorFields = []string{
	"vendor_code",
	"on_time_delivery_rate",
	"quality_rating_avg",
	"average_response_time",
	"fulfillment_rate",
	"fullfilment_rate",
}

// CreateVendorRequest represents the request body for creating a vendor
type CreateVendorRequest struct {
	Name           string `json:"name" binding:"required,max=64"`
	ContactDetails string `json:"contact_details"`
	Address        string `json:"address"`
}

// UpdateVendorRequest represents the request body for updating a vendor profile
type UpdateVendorRequest struct {
	Name           *string `json:"name" binding:"omitempty,max=64"`
	ContactDetails *string `json:"contact_details"`
	Address        *string `json:"address"`
}

// VendorController serves the vendor endpoints
type VendorController struct {
	vendors *services.VendorService
}

// NewVendorController creates a VendorController
func NewVendorController(vendors *services.VendorService) *VendorController {
	return &VendorController{vendors: vendors}
}

// CreateVendor handles POST /api/v1/vendors - creates a vendor with a generated code
func (vc *VendorController) CreateVendor(c *gin.Context) {
	var req CreateVendorRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		respondValidationError(c, err)
		return
	}
	if rejectReadOnlyFields(c) {
		return
	}

	vendor, err := vc.vendors.Create(c.Request.Context(), services.CreateVendorInput{
		Name:           req.Name,
		ContactDetails: req.ContactDetails,
		Address:        req.Address,
	})
	if err != nil {
		respondServiceError(c, err, "Failed to create vendor")
		return
	}

	respondSuccess(c, http.StatusCreated, vendor)
}

// ListVendors handles GET /api/v1/vendors - lists vendors page by page
func (vc *VendorController) ListVendors(c *gin.Context) {
	page, limit, err := parsePagination(c)
	if err != nil {
		respondValidationError(c, err)
		return
	}

	vendors, total, err := vc.vendors.List(c.Request.Context(), page, limit)
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve vendors")
		return
	}

	respondPage(c, vendors, newPagination(page, limit, total))
}

// GetVendor handles GET /api/v1/vendors/:id
func (vc *VendorController) GetVendor(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	vendor, err := vc.vendors.Get(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "Failed to retrieve vendor")
		return
	}

	respondSuccess(c, http.StatusOK, vendor)
}

// UpdateVendor handles PUT/PATCH /api/v1/vendors/:id - updates profile fields only
func (vc *VendorController) UpdateVendor(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req UpdateVendorRequest
	if err := c.ShouldBindBodyWith(&req, binding.JSON); err != nil {
		respondValidationError(c, err)
		return
	}
	if rejectReadOnlyFields(c) {
		return
	}

	vendor, err := vc.vendors.Update(c.Request.Context(), id, services.UpdateVendorInput{
		Name:           req.Name,
		ContactDetails: req.ContactDetails,
		Address:        req.Address,
	})
	if err != nil {
		respondServiceError(c, err, "Failed to update vendor")
		return
	}

	respondSuccess(c, http.StatusOK, vendor)
}

// DeleteVendor handles DELETE /api/v1/vendors/:id
func (vc *VendorController) DeleteVendor(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := vc.vendors.Delete(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, "Failed to delete vendor")
		return
	}

	c.Status(http.StatusNoContent)
}

// rejectReadOnlyFields writes a 400 response and returns true when the
// already bound request body names a read-only vendor field.
func rejectReadOnlyFields(c *gin.Context) bool {
	var raw map[string]json.RawMessage
	if err := c.ShouldBindBodyWith(&raw, binding.JSON); err != nil {
		respondValidationError(c, err)
		return true
	}

	for _, field := range readOnlyVendorFields {
		if _, present := raw[field]; present {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "METRICS_READ_ONLY",
					"message": "Performance metrics and vendor code are maintained by the system",
					"details": field + " cannot be set",
				},
			})
			return true
		}
	}
	return false
}
