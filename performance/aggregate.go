package performance

import (
	"time"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// OnTimeDeliveryRate returns the percentage of completed orders counted as on time.
// An order is on time when it has a delivery date that is not before evaluatedAt.
// Returns 0 when the vendor has no completed orders.
func OnTimeDeliveryRate(h History, evaluatedAt time.Time) float64 {
	var total, onTime int64
	for _, o := range h {
		if !o.IsCompleted() {
			continue
		}
		total++
		if o.DeliveryDate != nil && !o.DeliveryDate.Before(evaluatedAt) {
			onTime++
		}
	}
	if total == 0 {
		return 0
	}
	return decimal.NewFromInt(onTime).Mul(hundred).Div(decimal.NewFromInt(total)).InexactFloat64()
}

// QualityRatingAvg returns the mean quality rating of completed orders.
// Unrated orders are excluded from both the sum and the count.
func QualityRatingAvg(h History) float64 {
	sum := decimal.Zero
	var rated int64
	for _, o := range h {
		if !o.IsCompleted() || o.QualityRating == nil {
			continue
		}
		sum = sum.Add(decimal.NewFromFloat(*o.QualityRating))
		rated++
	}
	if rated == 0 {
		return 0
	}
	return sum.Div(decimal.NewFromInt(rated)).InexactFloat64()
}

// AverageResponseTime returns the mean time in seconds between issue and
// acknowledgment over completed orders carrying both dates.
func AverageResponseTime(h History) float64 {
	sum := decimal.Zero
	var n int64
	for _, o := range h {
		if !o.IsCompleted() || o.IssueDate == nil || o.AcknowledgmentDate == nil {
			continue
		}
		sum = sum.Add(decimal.NewFromInt(o.AcknowledgmentDate.Sub(*o.IssueDate).Nanoseconds()))
		n++
	}
	if n == 0 {
		return 0
	}
	return sum.Div(decimal.NewFromInt(n)).Shift(-9).InexactFloat64()
}

// FulfillmentRate returns completed orders over all orders of the vendor, as a
// fraction between 0 and 1. Cancelled and pending orders count in the total.
func FulfillmentRate(h History) float64 {
	if len(h) == 0 {
		return 0
	}
	var completed int64
	for _, o := range h {
		if o.IsCompleted() {
			completed++
		}
	}
	return decimal.NewFromInt(completed).Div(decimal.NewFromInt(int64(len(h)))).InexactFloat64()
}

// Compute evaluates all four metrics over h.
func Compute(h History, evaluatedAt time.Time) Metrics {
	return Metrics{
		OnTimeDeliveryRate:  OnTimeDeliveryRate(h, evaluatedAt),
		QualityRatingAvg:    QualityRatingAvg(h),
		AverageResponseTime: AverageResponseTime(h),
		FulfillmentRate:     FulfillmentRate(h),
	}
}
