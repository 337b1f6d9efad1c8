package domain

import "strings"

// DeriveRegionCode extracts the short region code from a full directory
// region key: the trailing hyphen-delimited segment ("NA-US-West" -> "West").
// Keys without a hyphen pass through unchanged.
func DeriveRegionCode(regionKey string) string {
	parts := strings.Split(regionKey, "-")
	return parts[len(parts)-1]
}
