package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kendall-kelly/vendor-performance-api/models"
	"github.com/kendall-kelly/vendor-performance-api/performance"
	"github.com/kendall-kelly/vendor-performance-api/telemetry"
	"gorm.io/gorm"
)

// VendorService manages vendor profiles. Performance metrics are never written
// here; they belong to the performance engine.
type VendorService struct {
	db    *gorm.DB
	clock performance.Clock
}

// NewVendorService creates a VendorService. A nil clock uses the system clock.
func NewVendorService(db *gorm.DB, clock performance.Clock) *VendorService {
	if clock == nil {
		clock = performance.SystemClock
	}
	return &VendorService{db: db, clock: clock}
}

// CreateVendorInput holds the caller-editable vendor fields
type CreateVendorInput struct {
	Name           string
	ContactDetails string
	Address        string
}

// UpdateVendorInput holds optional profile changes; nil fields are left as is
type UpdateVendorInput struct {
	Name           *string
	ContactDetails *string
	Address        *string
}

// Create stores a new vendor with a generated vendor code and zeroed metrics.
func (s *VendorService) Create(ctx context.Context, in CreateVendorInput) (*models.Vendor, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrEmptyVendorName
	}

	db := s.db.WithContext(ctx)
	for attempt := 1; ; attempt++ {
		latest, err := latestID(db, &models.Vendor{})
		if err != nil {
			return nil, fmt.Errorf("failed to read latest vendor: %w", err)
		}
		code, err := VendorCode(name, latest, s.clock.Now().Year())
		if err != nil {
			return nil, err
		}

		vendor := models.Vendor{
			Name:           name,
			ContactDetails: in.ContactDetails,
			Address:        in.Address,
			VendorCode:     code,
		}
		err = db.Create(&vendor).Error
		if err == nil {
			return &vendor, nil
		}
		if !isDuplicateKeyError(err) {
			return nil, fmt.Errorf("failed to create vendor: %w", err)
		}
		if attempt == MaxCreateAttempts {
			return nil, fmt.Errorf("vendor code %s: %w", code, ErrIdentifierConflict)
		}
		telemetry.IdentifierRetries.WithLabelValues("vendor_code").Inc()
	}
}

// Get loads a vendor by id.
func (s *VendorService) Get(ctx context.Context, id uint) (*models.Vendor, error) {
	var vendor models.Vendor
	if err := s.db.WithContext(ctx).First(&vendor, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrVendorNotFound
		}
		return nil, fmt.Errorf("failed to load vendor: %w", err)
	}
	return &vendor, nil
}

// List returns one page of vendors ordered by id, with the total count.
func (s *VendorService) List(ctx context.Context, page, limit int) ([]models.Vendor, int64, error) {
	db := s.db.WithContext(ctx)

	var total int64
	if err := db.Model(&models.Vendor{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count vendors: %w", err)
	}

	vendors := []models.Vendor{}
	offset := (page - 1) * limit
	if err := db.Order("id ASC").Limit(limit).Offset(offset).Find(&vendors).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list vendors: %w", err)
	}
	return vendors, total, nil
}

// Update changes profile fields. The vendor code and metrics are untouched.
func (s *VendorService) Update(ctx context.Context, id uint, in UpdateVendorInput) (*models.Vendor, error) {
	changes := map[string]interface{}{}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, ErrEmptyVendorName
		}
		changes["name"] = name
	}
	if in.ContactDetails != nil {
		changes["contact_details"] = *in.ContactDetails
	}
	if in.Address != nil {
		changes["address"] = *in.Address
	}

	vendor, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(changes) == 0 {
		return vendor, nil
	}
	if err := s.db.WithContext(ctx).Model(vendor).Updates(changes).Error; err != nil {
		return nil, fmt.Errorf("failed to update vendor: %w", err)
	}
	return s.Get(ctx, id)
}

// Delete removes a vendor and its performance history. Vendors that still
// have purchase orders cannot be deleted.
func (s *VendorService) Delete(ctx context.Context, id uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var orders int64
		if err := tx.Model(&models.PurchaseOrder{}).Where("vendor_id = ?", id).Count(&orders).Error; err != nil {
			return fmt.Errorf("failed to count purchase orders: %w", err)
		}
		if orders > 0 {
			return ErrVendorInUse
		}
		if err := tx.Where("vendor_id = ?", id).Delete(&models.PerformanceLog{}).Error; err != nil {
			return fmt.Errorf("failed to delete performance logs: %w", err)
		}
		result := tx.Delete(&models.Vendor{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrVendorNotFound
		}
		return nil
	})
	if isForeignKeyError(err) {
		return ErrVendorInUse
	}
	return err
}

// PerformanceLogs returns the vendor and its snapshots ordered by date.
func (s *VendorService) PerformanceLogs(ctx context.Context, id uint) (*models.Vendor, []models.PerformanceLog, error) {
	vendor, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	logs := []models.PerformanceLog{}
	err = s.db.WithContext(ctx).
		Where("vendor_id = ?", id).
		Order("date ASC").Order("id ASC").
		Find(&logs).Error
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load performance logs: %w", err)
	}
	return vendor, logs, nil
}

// latestID returns the highest primary key of model's table, or 0 when empty.
func latestID(db *gorm.DB, model interface{}) (uint, error) {
	var id uint
	err := db.Model(model).Select("COALESCE(MAX(id), 0)").Scan(&id).Error
	return id, err
}
