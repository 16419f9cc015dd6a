package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrVendorNotFound        = errors.New("vendor not found")
	ErrPurchaseOrderNotFound = errors.New("purchase order not found")
	ErrVendorInUse           = errors.New("vendor has purchase orders")
	ErrEmptyVendorName       = errors.New("vendor name is required")
	ErrInvalidStatus         = errors.New("invalid purchase order status")
	ErrAlreadyAcknowledged   = errors.New("purchase order already acknowledged")
	ErrAcknowledgedTooEarly  = errors.New("acknowledgment date is before the issue date")
	ErrIdentifierConflict    = errors.New("could not allocate a unique identifier")
	ErrReportsUnavailable    = errors.New("report storage is not configured")
)

// isDuplicateKeyError detects unique constraint violations. TranslateError
// covers PostgreSQL; the message check covers connections opened without it.
func isDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") || strings.Contains(msg, "unique constraint")
}

func isForeignKeyError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "foreign key constraint")
}
