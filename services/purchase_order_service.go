package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kendall-kelly/vendor-performance-api/models"
	"github.com/kendall-kelly/vendor-performance-api/performance"
	"github.com/kendall-kelly/vendor-performance-api/telemetry"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PurchaseOrderService manages purchase orders and hands every successful
// update to the performance engine.
type PurchaseOrderService struct {
	db     *gorm.DB
	engine *performance.Engine
	clock  performance.Clock
}

// NewPurchaseOrderService creates a PurchaseOrderService. A nil clock uses the
// system clock.
func NewPurchaseOrderService(db *gorm.DB, engine *performance.Engine, clock performance.Clock) *PurchaseOrderService {
	if clock == nil {
		clock = performance.SystemClock
	}
	return &PurchaseOrderService{db: db, engine: engine, clock: clock}
}

// CreatePurchaseOrderInput holds the fields a caller may set on creation.
// Delivery date, status, quality rating and acknowledgment are not accepted.
type CreatePurchaseOrderInput struct {
	VendorID  uint
	OrderDate time.Time
	Items     datatypes.JSON
	Quantity  int
}

// UpdatePurchaseOrderInput holds optional changes to the mutable fields
type UpdatePurchaseOrderInput struct {
	DeliveryDate  *time.Time
	Items         datatypes.JSON
	Quantity      *int
	Status        *string
	QualityRating *float64
}

// Create stores a pending purchase order with a generated PO number and the
// issue date set to now.
func (s *PurchaseOrderService) Create(ctx context.Context, in CreatePurchaseOrderInput) (*models.PurchaseOrder, error) {
	db := s.db.WithContext(ctx)

	var vendors int64
	if err := db.Model(&models.Vendor{}).Where("id = ?", in.VendorID).Count(&vendors).Error; err != nil {
		return nil, fmt.Errorf("failed to load vendor: %w", err)
	}
	if vendors == 0 {
		return nil, ErrVendorNotFound
	}

	items := in.Items
	if len(items) == 0 {
		items = datatypes.JSON("[]")
	}

	for attempt := 1; ; attempt++ {
		latest, err := latestID(db, &models.PurchaseOrder{})
		if err != nil {
			return nil, fmt.Errorf("failed to read latest purchase order: %w", err)
		}
		now := s.clock.Now()

		po := models.PurchaseOrder{
			PONumber:  PONumber(latest, now.Year()),
			VendorID:  in.VendorID,
			OrderDate: in.OrderDate,
			Items:     items,
			Quantity:  in.Quantity,
			Status:    models.StatusPending,
			IssueDate: now,
		}
		err = db.Create(&po).Error
		if err == nil {
			return &po, nil
		}
		if !isDuplicateKeyError(err) {
			return nil, fmt.Errorf("failed to create purchase order: %w", err)
		}
		if attempt == MaxCreateAttempts {
			return nil, fmt.Errorf("po number %s: %w", po.PONumber, ErrIdentifierConflict)
		}
		telemetry.IdentifierRetries.WithLabelValues("po_number").Inc()
	}
}

// Get loads a purchase order by id.
func (s *PurchaseOrderService) Get(ctx context.Context, id uint) (*models.PurchaseOrder, error) {
	var po models.PurchaseOrder
	if err := s.db.WithContext(ctx).First(&po, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPurchaseOrderNotFound
		}
		return nil, fmt.Errorf("failed to load purchase order: %w", err)
	}
	return &po, nil
}

// List returns one page of purchase orders, optionally for a single vendor.
func (s *PurchaseOrderService) List(ctx context.Context, vendorID *uint, page, limit int) ([]models.PurchaseOrder, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.PurchaseOrder{})
	if vendorID != nil {
		query = query.Where("vendor_id = ?", *vendorID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count purchase orders: %w", err)
	}

	orders := []models.PurchaseOrder{}
	offset := (page - 1) * limit
	if err := query.Order("id ASC").Limit(limit).Offset(offset).Find(&orders).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list purchase orders: %w", err)
	}
	return orders, total, nil
}

// Update saves changes to the mutable fields and then recomputes the vendor's
// metrics. The returned error is non-nil if either step fails; when only the
// recomputation fails the saved order is still returned.
func (s *PurchaseOrderService) Update(ctx context.Context, id uint, in UpdatePurchaseOrderInput) (*models.PurchaseOrder, *performance.Result, error) {
	if in.Status != nil && !models.IsValidStatus(*in.Status) {
		return nil, nil, ErrInvalidStatus
	}

	po, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	if in.DeliveryDate != nil {
		po.DeliveryDate = in.DeliveryDate
	}
	if len(in.Items) > 0 {
		po.Items = in.Items
	}
	if in.Quantity != nil {
		po.Quantity = *in.Quantity
	}
	if in.Status != nil {
		po.Status = *in.Status
	}
	if in.QualityRating != nil {
		po.QualityRating = in.QualityRating
	}

	err = s.db.WithContext(ctx).Model(po).
		Select("delivery_date", "items", "quantity", "status", "quality_rating", "updated_at").
		Updates(po).Error
	if err != nil {
		return nil, nil, fmt.Errorf("failed to update purchase order: %w", err)
	}

	res, err := s.engine.RecomputeVendorMetrics(ctx, po.VendorID, performance.ChangeFromOrder(po))
	if err != nil {
		return po, nil, err
	}
	return po, res, nil
}

// Acknowledge records the vendor's acknowledgment once and recomputes the
// vendor's metrics. A nil at uses the current time.
func (s *PurchaseOrderService) Acknowledge(ctx context.Context, id uint, at *time.Time) (*models.PurchaseOrder, *performance.Result, error) {
	po, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if po.AcknowledgmentDate != nil {
		return nil, nil, ErrAlreadyAcknowledged
	}

	ack := s.clock.Now()
	if at != nil {
		ack = *at
	}
	if ack.Before(po.IssueDate) {
		return nil, nil, ErrAcknowledgedTooEarly
	}

	// The IS NULL guard keeps a concurrent acknowledgment from overwriting this one.
	result := s.db.WithContext(ctx).Model(&models.PurchaseOrder{}).
		Where("id = ? AND acknowledgment_date IS NULL", po.ID).
		Update("acknowledgment_date", ack)
	if result.Error != nil {
		return nil, nil, fmt.Errorf("failed to acknowledge purchase order: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, nil, ErrAlreadyAcknowledged
	}
	po.AcknowledgmentDate = &ack

	res, err := s.engine.RecomputeVendorMetrics(ctx, po.VendorID, performance.ChangeFromOrder(po))
	if err != nil {
		return po, nil, err
	}
	return po, res, nil
}

// Delete removes a purchase order and resyncs the vendor's metrics so they
// match the remaining history.
func (s *PurchaseOrderService) Delete(ctx context.Context, id uint) error {
	po, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Delete(&models.PurchaseOrder{}, po.ID).Error; err != nil {
		return fmt.Errorf("failed to delete purchase order: %w", err)
	}
	if _, err := s.engine.Resync(ctx, po.VendorID); err != nil {
		return err
	}
	return nil
}
