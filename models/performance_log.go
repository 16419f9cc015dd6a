package models

import "time"

// PerformanceLog is an append-only snapshot of a vendor's metrics,
// recorded every time one of its purchase orders is completed.
type PerformanceLog struct {
	ID                  uint      `gorm:"primaryKey" json:"id"`
	VendorID            uint      `gorm:"not null;index:idx_performance_logs_vendor_date,priority:1" json:"vendor_id"`
	Vendor              *Vendor   `gorm:"foreignKey:VendorID;constraint:OnDelete:CASCADE" json:"-"`
	Date                time.Time `gorm:"not null;index:idx_performance_logs_vendor_date,priority:2" json:"date"`
	OnTimeDeliveryRate  float64   `gorm:"not null" json:"on_time_delivery_rate"`
	QualityRatingAvg    float64   `gorm:"not null" json:"quality_rating_avg"`
	AverageResponseTime float64   `gorm:"not null" json:"average_response_time"`
	FulfillmentRate     float64   `gorm:"not null" json:"fulfillment_rate"`
}

// TableName specifies the table name for the PerformanceLog model
func (PerformanceLog) TableName() string {
	return "performance_logs"
}

// All returns every model managed by the service, in migration order
func All() []interface{} {
	return []interface{}{&Vendor{}, &PurchaseOrder{}, &PerformanceLog{}}
}
