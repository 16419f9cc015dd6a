// Package performance derives vendor performance metrics from purchase order
// history and records a snapshot every time an order is completed.
package performance

import (
	"time"

	"github.com/kendall-kelly/vendor-performance-api/models"
)

// OrderFacts is the subset of a purchase order the aggregations read.
type OrderFacts struct {
	ID                 uint
	Status             string
	DeliveryDate       *time.Time
	QualityRating      *float64
	IssueDate          *time.Time
	AcknowledgmentDate *time.Time
}

// IsCompleted reports whether the order is in the completed status.
func (o OrderFacts) IsCompleted() bool {
	return o.Status == models.StatusCompleted
}

// History is the full purchase order history of a single vendor.
type History []OrderFacts

// Completed returns only the completed orders.
func (h History) Completed() History {
	out := make(History, 0, len(h))
	for _, o := range h {
		if o.IsCompleted() {
			out = append(out, o)
		}
	}
	return out
}

// MetricField names one of the four engine-owned vendor metrics.
// The value is the vendor table column.
type MetricField string

const (
	FieldOnTimeDeliveryRate  MetricField = "on_time_delivery_rate"
	FieldQualityRatingAvg    MetricField = "quality_rating_avg"
	FieldAverageResponseTime MetricField = "average_response_time"
	FieldFulfillmentRate     MetricField = "fulfillment_rate"
)

// AllFields lists every metric in a stable order.
var AllFields = []MetricField{
	FieldOnTimeDeliveryRate,
	FieldQualityRatingAvg,
	FieldAverageResponseTime,
	FieldFulfillmentRate,
}

// Metrics holds one value for each derived metric.
type Metrics struct {
	OnTimeDeliveryRate  float64 `json:"on_time_delivery_rate"`
	QualityRatingAvg    float64 `json:"quality_rating_avg"`
	AverageResponseTime float64 `json:"average_response_time"`
	FulfillmentRate     float64 `json:"fulfillment_rate"`
}

// MetricsOf reads the current metric values off a vendor.
func MetricsOf(v *models.Vendor) Metrics {
	return Metrics{
		OnTimeDeliveryRate:  v.OnTimeDeliveryRate,
		QualityRatingAvg:    v.QualityRatingAvg,
		AverageResponseTime: v.AverageResponseTime,
		FulfillmentRate:     v.FulfillmentRate,
	}
}

// ApplyTo copies the selected fields onto the vendor, leaving the rest untouched.
func (m Metrics) ApplyTo(v *models.Vendor, fields []MetricField) {
	for _, f := range fields {
		switch f {
		case FieldOnTimeDeliveryRate:
			v.OnTimeDeliveryRate = m.OnTimeDeliveryRate
		case FieldQualityRatingAvg:
			v.QualityRatingAvg = m.QualityRatingAvg
		case FieldAverageResponseTime:
			v.AverageResponseTime = m.AverageResponseTime
		case FieldFulfillmentRate:
			v.FulfillmentRate = m.FulfillmentRate
		}
	}
}

// Columns returns the update map for the vendor table.
func (m Metrics) Columns() map[string]interface{} {
	return map[string]interface{}{
		string(FieldOnTimeDeliveryRate):  m.OnTimeDeliveryRate,
		string(FieldQualityRatingAvg):    m.QualityRatingAvg,
		string(FieldAverageResponseTime): m.AverageResponseTime,
		string(FieldFulfillmentRate):     m.FulfillmentRate,
	}
}

// Snapshot builds the performance log row for a vendor at the given instant.
func Snapshot(v *models.Vendor, at time.Time) *models.PerformanceLog {
	return &models.PerformanceLog{
		VendorID:            v.ID,
		Date:                at,
		OnTimeDeliveryRate:  v.OnTimeDeliveryRate,
		QualityRatingAvg:    v.QualityRatingAvg,
		AverageResponseTime: v.AverageResponseTime,
		FulfillmentRate:     v.FulfillmentRate,
	}
}
