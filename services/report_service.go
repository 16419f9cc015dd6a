package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"path"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/kendall-kelly/vendor-performance-api/logger"
	"github.com/kendall-kelly/vendor-performance-api/models"
	"github.com/kendall-kelly/vendor-performance-api/performance"
	"go.uber.org/zap"
)

// ReportContentType is the content type of exported trend reports
const ReportContentType = "text/csv"

var reportHeader = []string{
	"date",
	string(performance.FieldOnTimeDeliveryRate),
	string(performance.FieldQualityRatingAvg),
	string(performance.FieldAverageResponseTime),
	string(performance.FieldFulfillmentRate),
}

// ReportExport describes an uploaded trend report
type ReportExport struct {
	VendorID    uint      `json:"vendor_id"`
	Key         string    `json:"key"`
	URL         string    `json:"url"`
	Rows        int       `json:"rows"`
	GeneratedAt time.Time `json:"generated_at"`
}

// ReportService exports vendor performance trends to report storage
type ReportService struct {
	vendors *VendorService
	storage ReportStorage
	prefix  string
	clock   performance.Clock
}

// NewReportService creates a ReportService. storage may be nil, in which case
// exports fail with ErrReportsUnavailable.
func NewReportService(vendors *VendorService, storage ReportStorage, prefix string, clock performance.Clock) *ReportService {
	if clock == nil {
		clock = performance.SystemClock
	}
	return &ReportService{vendors: vendors, storage: storage, prefix: prefix, clock: clock}
}

// ExportTrend renders the vendor's performance logs as CSV, uploads the file
// and returns a presigned download URL.
func (s *ReportService) ExportTrend(ctx context.Context, vendorID uint) (*ReportExport, error) {
	if s.storage == nil {
		return nil, ErrReportsUnavailable
	}

	_, logs, err := s.vendors.PerformanceLogs(ctx, vendorID)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := WritePerformanceCSV(&buf, logs); err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}

	now := s.clock.Now().UTC()
	key := reportKey(s.prefix, vendorID, now)
	if err := s.storage.UploadReport(ctx, key, buf.Bytes(), ReportContentType); err != nil {
		return nil, err
	}

	url, err := s.storage.GetPresignedURL(ctx, key)
	if err != nil {
		// An unreachable report is useless; remove it
		if delErr := s.storage.DeleteReport(ctx, key); delErr != nil {
			logger.FromContext(ctx).Warn("Failed to delete orphaned report", zap.String("key", key), zap.Error(delErr))
		}
		return nil, err
	}

	return &ReportExport{
		VendorID:    vendorID,
		Key:         key,
		URL:         url,
		Rows:        len(logs),
		GeneratedAt: now,
	}, nil
}

// WritePerformanceCSV writes one header row and one row per log
func WritePerformanceCSV(w io.Writer, logs []models.PerformanceLog) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(reportHeader); err != nil {
		return err
	}
	for _, l := range logs {
		row := []string{
			l.Date.UTC().Format(time.RFC3339),
			formatMetric(l.OnTimeDeliveryRate),
			formatMetric(l.QualityRatingAvg),
			formatMetric(l.AverageResponseTime),
			formatMetric(l.FulfillmentRate),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatMetric(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func reportKey(prefix string, vendorID uint, at time.Time) string {
	name := fmt.Sprintf("performance_%s_%s.csv", at.Format("20060102T150405Z"), uuid.NewString())
	return path.Join(prefix, "vendors", strconv.FormatUint(uint64(vendorID), 10), name)
}
