package domain

import "fmt"

// Category identifies one transparency-report export.
type Category string

const (
	CategoryDevices                    Category = "devices"
	CategoryFinancialIDs               Category = "financial_ids"
	CategoryAccountPreservation        Category = "account_preservation"
	CategoryAccountRequests            Category = "account_requests"
	CategoryAccountRestrictionDeletion Category = "account_restriction_deletion"
)

// Categories lists every category in report order.
var Categories = []Category{
	CategoryDevices,
	CategoryFinancialIDs,
	CategoryAccountPreservation,
	CategoryAccountRequests,
	CategoryAccountRestrictionDeletion,
}

var categoryNames = map[Category]string{
	CategoryDevices:                    "Device Requests",
	CategoryFinancialIDs:               "Financial ID Requests",
	CategoryAccountPreservation:        "Account Preservation Requests",
	CategoryAccountRequests:            "Account Requests",
	CategoryAccountRestrictionDeletion: "Account Restriction/Deletion Requests",
}

var categoryFiles = map[Category]string{
	CategoryDevices:                    "device_requests.csv",
	CategoryFinancialIDs:               "financial_identifier_requests.csv",
	CategoryAccountPreservation:        "account_preservation_requests.csv",
	CategoryAccountRequests:            "account_requests.csv",
	CategoryAccountRestrictionDeletion: "account_restriction_deletion_requests.csv",
}

// ParseCategory resolves a category slug.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if _, ok := categoryNames[c]; !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
	}
	return c, nil
}

func (c Category) Valid() bool {
	_, ok := categoryNames[c]
	return ok
}

// Name is the human readable report title, e.g. "Device Requests".
func (c Category) Name() string {
	return categoryNames[c]
}

// FileName is the default export file name for the category.
func (c Category) FileName() string {
	return categoryFiles[c]
}

func (c Category) String() string {
	return string(c)
}
