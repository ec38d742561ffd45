package cin7

import (
	"strings"
	"time"
)

// salesOrder is the wire shape of one Cin7 Omni sales order, limited to the
// fields the board requests. Cin7 responses mix PascalCase and camelCase
// keys between endpoints; encoding/json matches field names
// case-insensitively, so one tag covers both.
type salesOrder struct {
	ID                    int64  `json:"id"`
	Reference             string `json:"reference"`
	ProjectName           string `json:"projectName"`
	Company               string `json:"company"`
	CreatedDate           string `json:"createdDate"`
	Stage                 string `json:"stage"`
	EstimatedDeliveryDate string `json:"estimatedDeliveryDate"`
	DistributionBranch    string `json:"distributionBranch"`
	IsVoid                bool   `json:"isVoid"`
}

// orderEnvelope covers the wrapped response format some Cin7 deployments
// return instead of a bare array.
type orderEnvelope struct {
	Data []salesOrder `json:"data"`
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
	"02/01/2006",
}

// parseDate tolerates the date formats Cin7 has been observed to emit.
// Unparseable values come back nil, the same as an absent date.
func parseDate(value string) *time.Time {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	trimmed := strings.TrimSuffix(value, "Z")
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return &t
		}
		if t, err := time.Parse(layout, trimmed); err == nil {
			return &t
		}
	}
	return nil
}
