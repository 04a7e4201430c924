package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	if strings.ToUpper(strings.TrimSpace(orderDir)) == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// CommonSortFields contains fields common to every table
var CommonSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
}

// LeadSortFields contains allowed sort fields for leads
var LeadSortFields = withCommon("first_name", "last_name", "email", "company", "status", "priority", "source", "score")

// ClientSortFields contains allowed sort fields for clients
var ClientSortFields = withCommon("name", "email", "company", "status", "lifetime_value")

// CampaignSortFields contains allowed sort fields for campaigns
var CampaignSortFields = withCommon("name", "status", "budget", "start_date", "end_date")

// ProductSortFields contains allowed sort fields for products
var ProductSortFields = withCommon("name", "sku", "price")

func withCommon(fields ...string) map[string]bool {
	m := make(map[string]bool, len(CommonSortFields)+len(fields))
	for f := range CommonSortFields {
		m[f] = true
	}
	for _, f := range fields {
		m[f] = true
	}
	return m
}
