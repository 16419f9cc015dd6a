package models

import "time"

// Vendor represents a supplier and its engine-maintained performance metrics
type Vendor struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	Name           string `gorm:"size:64;not null" json:"name"`
	ContactDetails string `gorm:"type:text" json:"contact_details"`
	Address        string `gorm:"type:text" json:"address"`
	VendorCode     string `gorm:"size:32;uniqueIndex;not null" json:"vendor_code"`

	// Metrics are written only by the performance engine
	OnTimeDeliveryRate  float64 `gorm:"not null;default:0" json:"on_time_delivery_rate"`
	QualityRatingAvg    float64 `gorm:"not null;default:0" json:"quality_rating_avg"`
	AverageResponseTime float64 `gorm:"not null;default:0" json:"average_response_time"` // seconds
	FulfillmentRate     float64 `gorm:"not null;default:0" json:"fullfilment_rate"`

	PurchaseOrders []PurchaseOrder `gorm:"foreignKey:VendorID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"-"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// TableName specifies the table name for the Vendor model
func (Vendor) TableName() string {
	return "vendors"
}
