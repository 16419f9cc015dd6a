package models

import (
	"time"

	"gorm.io/datatypes"
)

// Purchase order lifecycle statuses
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// IsValidStatus reports whether status is one of the known purchase order statuses
func IsValidStatus(status string) bool {
	switch status {
	case StatusPending, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// PurchaseOrder represents an order placed with a vendor
type PurchaseOrder struct {
	ID                 uint           `gorm:"primaryKey" json:"id"`
	PONumber           string         `gorm:"column:po_number;size:32;uniqueIndex;not null" json:"po_number"`
	VendorID           uint           `gorm:"not null;index" json:"vendor_id"`
	Vendor             *Vendor        `gorm:"foreignKey:VendorID" json:"-"`
	OrderDate          time.Time      `gorm:"not null" json:"order_date"`
	DeliveryDate       *time.Time     `json:"delivery_date"` // nullable until fulfilled
	Items              datatypes.JSON `gorm:"not null" json:"items"`
	Quantity           int            `gorm:"not null;check:quantity > 0" json:"quantity"`
	Status             string         `gorm:"size:16;not null;default:'pending';index" json:"status"`
	QualityRating      *float64       `json:"quality_rating"`             // nullable, set on completion
	IssueDate          time.Time      `gorm:"not null" json:"issue_date"` // set once at creation
	AcknowledgmentDate *time.Time     `json:"acknowledgment_date"`        // nullable, set once by the vendor
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

// TableName specifies the table name for the PurchaseOrder model
func (PurchaseOrder) TableName() string {
	return "purchase_orders"
}

// IsCompleted reports whether the order reached the completed status
func (po *PurchaseOrder) IsCompleted() bool {
	return po.Status == StatusCompleted
}
