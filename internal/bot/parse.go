package bot

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseReference classifies a /track argument as a SKU or a product URL.
// A string of digits is a SKU; anything else is treated as a URL and left
// for the canonicalizer to validate.
func ParseReference(args string) (sku, url string, err error) {
	s := strings.TrimSpace(args)
	if s == "" {
		return "", "", fmt.Errorf("product URL or SKU is required")
	}
	if fields := strings.Fields(s); len(fields) > 1 {
		return "", "", fmt.Errorf("expected a single URL or SKU")
	}

	if _, err := strconv.Atoi(s); err == nil {
		return s, "", nil
	}
	return "", s, nil
}

// ParseIDArg extracts a numeric product ID from a command argument string.
func ParseIDArg(args string) (int64, error) {
	s := strings.TrimSpace(args)
	if s == "" {
		return 0, fmt.Errorf("product ID is required")
	}
	id, err := strconv.ParseInt(strings.Fields(s)[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid product ID %q", s)
	}
	return id, nil
}

// ParseThresholdArgs extracts a product ID and a threshold price. The
// threshold is returned in canonical decimal form.
func ParseThresholdArgs(args string) (int64, string, error) {
	parts := strings.Fields(args)
	if len(parts) < 2 {
		return 0, "", fmt.Errorf("usage: /threshold <id> <price>")
	}
	id, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return 0, "", fmt.Errorf("invalid product ID %q", parts[0])
	}
	v, err := strconv.ParseFloat(parts[1], 64)
	if err != nil || v <= 0 {
		return 0, "", fmt.Errorf("threshold must be a positive number")
	}
	return id, strconv.FormatFloat(v, 'f', -1, 64), nil
}
