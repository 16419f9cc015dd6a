package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/vendor-performance-api/middleware"
	"github.com/kendall-kelly/vendor-performance-api/models"
	"github.com/kendall-kelly/vendor-performance-api/routes"
	"github.com/kendall-kelly/vendor-performance-api/services"
	"github.com/kendall-kelly/vendor-performance-api/tests/testutil"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

var issuedAt = time.Date(2026, time.March, 2, 9, 0, 0, 0, time.UTC)

// PurchaseOrderIntegrationTestSuite drives the purchase order lifecycle
// through the HTTP API and checks the vendor metrics it produces
type PurchaseOrderIntegrationTestSuite struct {
	suite.Suite
	router  *gin.Engine
	db      *gorm.DB
	storage *services.MockReportStorage
}

// SetupSuite runs once before all tests
func (suite *PurchaseOrderIntegrationTestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	testutil.RequireTestEnvironment(suite.T())
}

// SetupTest gives each test a fresh database and router
func (suite *PurchaseOrderIntegrationTestSuite) SetupTest() {
	suite.db = testutil.NewTestDB(suite.T())
	suite.storage = services.NewMockReportStorage()

	router, err := routes.New(testutil.TestConfig(), routes.Dependencies{
		DB:            suite.db,
		Reports:       suite.storage,
		Clock:         testutil.FixedClock(issuedAt),
		Authenticator: testutil.MockAuthenticator("auth0|buyer", middleware.ScopeWriteVendors, middleware.ScopeWritePurchaseOrders),
	})
	suite.Require().NoError(err)
	suite.router = router
}

func (suite *PurchaseOrderIntegrationTestSuite) request(method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		suite.Require().NoError(err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	suite.router.ServeHTTP(w, req)

	var response map[string]interface{}
	if w.Body.Len() > 0 {
		suite.Require().NoError(json.Unmarshal(w.Body.Bytes(), &response))
	}
	return w, response
}

func (suite *PurchaseOrderIntegrationTestSuite) createVendor(name string) uint {
	w, response := suite.request(http.MethodPost, "/api/v1/vendors", map[string]interface{}{
		"name":            name,
		"contact_details": "orders@example.com",
		"address":         "1 Supply Road",
	})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	data := response["data"].(map[string]interface{})
	return uint(data["id"].(float64))
}

func (suite *PurchaseOrderIntegrationTestSuite) createOrder(vendorID uint) uint {
	w, response := suite.request(http.MethodPost, "/api/v1/purchase_orders", map[string]interface{}{
		"vendor_id":  vendorID,
		"order_date": issuedAt.Add(-24 * time.Hour),
		"items":      []map[string]interface{}{{"sku": "B-1", "name": "bolts"}},
		"quantity":   10,
	})
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	data := response["data"].(map[string]interface{})
	return uint(data["id"].(float64))
}

func (suite *PurchaseOrderIntegrationTestSuite) performance(vendorID uint) map[string]interface{} {
	w, response := suite.request(http.MethodGet, fmt.Sprintf("/api/v1/vendors/%d/performance", vendorID), nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	return response["data"].(map[string]interface{})
}

// TestCreatePurchaseOrderIgnoresReadOnlyFields checks the generated number,
// issue date and defaults on creation
func (suite *PurchaseOrderIntegrationTestSuite) TestCreatePurchaseOrderIgnoresReadOnlyFields() {
	vendorID := suite.createVendor("Acme")

	w, response := suite.request(http.MethodPost, "/api/v1/purchase_orders", map[string]interface{}{
		"vendor_id":           vendorID,
		"order_date":          issuedAt,
		"items":               []string{"nuts"},
		"quantity":            3,
		"status":              "completed",
		"quality_rating":      5,
		"delivery_date":       issuedAt,
		"acknowledgment_date": issuedAt,
	})
	suite.Require().Equal(http.StatusCreated, w.Code)

	data := response["data"].(map[string]interface{})
	suite.Equal("PO-2026-000001", data["po_number"])
	suite.Equal(models.StatusPending, data["status"])
	suite.Nil(data["quality_rating"])
	suite.Nil(data["delivery_date"])
	suite.Nil(data["acknowledgment_date"])
	suite.Equal("2026-03-02T09:00:00Z", data["issue_date"])

	perf := suite.performance(vendorID)
	suite.Equal(float64(0), perf["fulfillment_rate"])
}

// TestCreatePurchaseOrderValidation covers rejected create requests
func (suite *PurchaseOrderIntegrationTestSuite) TestCreatePurchaseOrderValidation() {
	vendorID := suite.createVendor("Acme")

	tests := []struct {
		name           string
		body           map[string]interface{}
		expectedStatus int
		expectedError  string
	}{
		{
			name:           "zero quantity",
			body:           map[string]interface{}{"vendor_id": vendorID, "order_date": issuedAt, "items": []string{}, "quantity": 0},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "VALIDATION_ERROR",
		},
		{
			name:           "missing items",
			body:           map[string]interface{}{"vendor_id": vendorID, "order_date": issuedAt, "quantity": 1},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "VALIDATION_ERROR",
		},
		{
			name:           "unknown vendor",
			body:           map[string]interface{}{"vendor_id": 999, "order_date": issuedAt, "items": []string{}, "quantity": 1},
			expectedStatus: http.StatusNotFound,
			expectedError:  "VENDOR_NOT_FOUND",
		},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			w, response := suite.request(http.MethodPost, "/api/v1/purchase_orders", tt.body)
			suite.Equal(tt.expectedStatus, w.Code)
			suite.Equal(tt.expectedError, response["error"].(map[string]interface{})["code"])
		})
	}
}

// TestCompletionRecomputesMetricsAndLogsSnapshot follows an order from
// creation to completion
func (suite *PurchaseOrderIntegrationTestSuite) TestCompletionRecomputesMetricsAndLogsSnapshot() {
	vendorID := suite.createVendor("Acme")
	orderID := suite.createOrder(vendorID)
	suite.createOrder(vendorID)

	w, _ := suite.request(http.MethodPost, fmt.Sprintf("/api/v1/purchase_orders/%d/acknowledge", orderID), map[string]interface{}{
		"acknowledgment_date": issuedAt.Add(time.Hour),
	})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	// Response time only counts completed orders
	perf := suite.performance(vendorID)
	suite.Equal(float64(0), perf["average_response_time"])
	suite.Equal(float64(0), perf["on_time_delivery_rate"])

	w, response := suite.request(http.MethodPatch, fmt.Sprintf("/api/v1/purchase_orders/%d", orderID), map[string]interface{}{
		"status":         "completed",
		"delivery_date":  issuedAt.Add(48 * time.Hour),
		"quality_rating": 4.5,
	})
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	suite.Equal("completed", response["data"].(map[string]interface{})["status"])

	perf = suite.performance(vendorID)
	suite.Equal("Acme", perf["name"])
	suite.Equal(float64(100), perf["on_time_delivery_rate"])
	suite.Equal(4.5, perf["quality_rating_avg"])
	suite.Equal(float64(3600), perf["average_response_time"])
	suite.Equal(0.5, perf["fulfillment_rate"])

	w, response = suite.request(http.MethodGet, fmt.Sprintf("/api/v1/vendors/%d/performance/logs", vendorID), nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	trend := response["data"].(map[string]interface{})
	logs := trend["logs"].([]interface{})
	suite.Require().Len(logs, 1)
	snapshot := logs[0].(map[string]interface{})
	suite.Equal(float64(100), snapshot["on_time_delivery_rate"])
	suite.Equal(4.5, snapshot["quality_rating_avg"])
	suite.Equal(0.5, snapshot["fulfillment_rate"])
}

// TestAcknowledgeOnce checks that the acknowledgment date is set once
func (suite *PurchaseOrderIntegrationTestSuite) TestAcknowledgeOnce() {
	vendorID := suite.createVendor("Acme")
	orderID := suite.createOrder(vendorID)
	path := fmt.Sprintf("/api/v1/purchase_orders/%d/acknowledge", orderID)

	w, response := suite.request(http.MethodPost, path, nil)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	suite.Equal("2026-03-02T09:00:00Z", response["data"].(map[string]interface{})["acknowledgment_date"])

	w, response = suite.request(http.MethodPost, path, nil)
	suite.Equal(http.StatusConflict, w.Code)
	suite.Equal("ALREADY_ACKNOWLEDGED", response["error"].(map[string]interface{})["code"])
}

// TestUpdateRejectsInvalidStatus checks status validation on update
func (suite *PurchaseOrderIntegrationTestSuite) TestUpdateRejectsInvalidStatus() {
	vendorID := suite.createVendor("Acme")
	orderID := suite.createOrder(vendorID)

	w, response := suite.request(http.MethodPut, fmt.Sprintf("/api/v1/purchase_orders/%d", orderID), map[string]interface{}{
		"status": "shipped",
	})
	suite.Equal(http.StatusBadRequest, w.Code)
	suite.Equal("VALIDATION_ERROR", response["error"].(map[string]interface{})["code"])

	w, _ = suite.request(http.MethodPut, "/api/v1/purchase_orders/999", map[string]interface{}{"quantity": 2})
	suite.Equal(http.StatusNotFound, w.Code)
}

// TestListPurchaseOrdersFiltersByVendor checks the vendor_id filter and pagination
func (suite *PurchaseOrderIntegrationTestSuite) TestListPurchaseOrdersFiltersByVendor() {
	acme := suite.createVendor("Acme")
	bolt := suite.createVendor("Bolt")
	suite.createOrder(acme)
	suite.createOrder(bolt)
	suite.createOrder(acme)

	w, response := suite.request(http.MethodGet, fmt.Sprintf("/api/v1/purchase_orders?vendor_id=%d&limit=1", acme), nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Len(response["data"].([]interface{}), 1)

	pagination := response["pagination"].(map[string]interface{})
	suite.Equal(float64(2), pagination["total"])
	suite.Equal(float64(2), pagination["total_pages"])

	w, _ = suite.request(http.MethodGet, "/api/v1/purchase_orders?limit=500", nil)
	suite.Equal(http.StatusBadRequest, w.Code)
}

// TestDeletePurchaseOrderResyncsVendor checks that deleting an order keeps
// the vendor's metrics consistent with the remaining history
func (suite *PurchaseOrderIntegrationTestSuite) TestDeletePurchaseOrderResyncsVendor() {
	vendorID := suite.createVendor("Acme")
	done := suite.createOrder(vendorID)
	open := suite.createOrder(vendorID)

	w, _ := suite.request(http.MethodPatch, fmt.Sprintf("/api/v1/purchase_orders/%d", done), map[string]interface{}{
		"status":        "completed",
		"delivery_date": issuedAt.Add(time.Hour),
	})
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Equal(0.5, suite.performance(vendorID)["fulfillment_rate"])

	w, _ = suite.request(http.MethodDelete, fmt.Sprintf("/api/v1/purchase_orders/%d", open), nil)
	suite.Require().Equal(http.StatusNoContent, w.Code)
	suite.Equal(float64(1), suite.performance(vendorID)["fulfillment_rate"])
}

// TestRecomputeRepairsDrift checks the admin recompute endpoints
func (suite *PurchaseOrderIntegrationTestSuite) TestRecomputeRepairsDrift() {
	vendorID := suite.createVendor("Acme")
	orderID := suite.createOrder(vendorID)

	// Simulate an update whose recomputation never ran
	suite.Require().NoError(suite.db.Model(&models.PurchaseOrder{}).Where("id = ?", orderID).
		Updates(map[string]interface{}{"status": models.StatusCompleted, "quality_rating": 3.0}).Error)
	suite.Equal(float64(0), suite.performance(vendorID)["quality_rating_avg"])

	w, response := suite.request(http.MethodPost, fmt.Sprintf("/api/v1/vendors/%d/performance/recompute", vendorID), nil)
	suite.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	data := response["data"].(map[string]interface{})
	suite.Equal(3.0, data["quality_rating_avg"])
	suite.Equal(float64(1), data["fulfillment_rate"])

	w, response = suite.request(http.MethodPost, "/api/v1/performance/recompute", nil)
	suite.Require().Equal(http.StatusOK, w.Code)
	suite.Equal(float64(1), response["data"].(map[string]interface{})["vendors"])

	w, _ = suite.request(http.MethodPost, "/api/v1/vendors/999/performance/recompute", nil)
	suite.Equal(http.StatusNotFound, w.Code)
}

// TestExportPerformanceLogs checks the CSV export to report storage
func (suite *PurchaseOrderIntegrationTestSuite) TestExportPerformanceLogs() {
	vendorID := suite.createVendor("Acme")
	orderID := suite.createOrder(vendorID)

	w, _ := suite.request(http.MethodPatch, fmt.Sprintf("/api/v1/purchase_orders/%d", orderID), map[string]interface{}{
		"status":        "completed",
		"delivery_date": issuedAt.Add(time.Hour),
	})
	suite.Require().Equal(http.StatusOK, w.Code)

	w, response := suite.request(http.MethodPost, fmt.Sprintf("/api/v1/vendors/%d/performance/logs/export", vendorID), nil)
	suite.Require().Equal(http.StatusCreated, w.Code, w.Body.String())

	data := response["data"].(map[string]interface{})
	suite.Equal(float64(1), data["rows"])
	key := data["key"].(string)
	suite.Contains(data["url"], key)

	body, ok := suite.storage.Report(key)
	suite.Require().True(ok)
	suite.Contains(string(body), "date,on_time_delivery_rate,quality_rating_avg,average_response_time,fulfillment_rate")
}

// TestWriteRequiresScope checks scope enforcement on write endpoints
func (suite *PurchaseOrderIntegrationTestSuite) TestWriteRequiresScope() {
	router, err := routes.New(testutil.TestConfig(), routes.Dependencies{
		DB:            suite.db,
		Clock:         testutil.FixedClock(issuedAt),
		Authenticator: testutil.MockAuthenticator("auth0|viewer"),
	})
	suite.Require().NoError(err)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/vendors", bytes.NewReader([]byte(`{"name":"Acme"}`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	suite.Equal(http.StatusForbidden, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/vendors", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	suite.Equal(http.StatusOK, w.Code)
}

func TestPurchaseOrderIntegrationTestSuite(t *testing.T) {
	suite.Run(t, new(PurchaseOrderIntegrationTestSuite))
}
