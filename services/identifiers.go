package services

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// MaxCreateAttempts bounds how often a create retries after the generated
// identifier collided with a concurrent insert.
const MaxCreateAttempts = 3

// VendorCode builds a code of the form VE-<year>-<initial>-<sequence>, where
// the sequence is latestVendorID+1 padded to five digits.
func VendorCode(name string, latestVendorID uint, year int) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrEmptyVendorName
	}
	first, _ := utf8.DecodeRuneInString(name)
	return fmt.Sprintf("VE-%d-%c-%05d", year, unicode.ToUpper(first), latestVendorID+1), nil
}

// PONumber builds a number of the form PO-<year>-<sequence>, where the
// sequence is latestPOID+1 padded to six digits.
func PONumber(latestPOID uint, year int) string {
	return fmt.Sprintf("PO-%d-%06d", year, latestPOID+1)
}
