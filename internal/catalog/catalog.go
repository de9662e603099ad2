// Package catalog normalizes product references into a stable identity.
//
// A reference is either a raw catalog URL or a bare SKU; canonicalization
// turns it into the single normalized (URL, SKU) pair used as the product's
// identity. All functions here are pure: no network access, identical input
// always yields identical output.
package catalog

import (
	"errors"
	"strconv"
	"strings"
)

// Host is the fixed catalog host accepted by the canonicalizer.
const Host = "www.ozon.ru"

// productKeyword is the fixed product-path segment of a catalog URL.
const productKeyword = "product"

// ErrInvalidReference means the caller supplied both or neither of sku/url,
// or a URL that does not match the catalog grammar.
var ErrInvalidReference = errors.New("invalid product reference")

// Reference is a canonicalized product identity.
type Reference struct {
	URL string
	SKU string
}

// Canonicalize resolves exactly one of sku/url into a canonical reference.
// Passing both or neither is a caller-contract violation and returns
// ErrInvalidReference, as does a URL failing the catalog grammar.
func Canonicalize(sku, url string) (Reference, error) {
	if sku != "" && url != "" {
		return Reference{}, ErrInvalidReference
	}
	if sku == "" && url == "" {
		return Reference{}, ErrInvalidReference
	}

	if url == "" {
		url = URLForSKU(sku)
	}

	canonical, ok := CanonicalURL(url)
	if !ok {
		return Reference{}, ErrInvalidReference
	}

	if sku == "" {
		sku = SKUFromURL(canonical)
	}

	return Reference{URL: canonical, SKU: sku}, nil
}

// URLForSKU synthesizes the catalog URL for a bare SKU.
func URLForSKU(sku string) string {
	return "https://" + Host + "/" + productKeyword + "/" + sku
}

// CanonicalURL validates a raw product URL and reduces it to its canonical
// form. Returns false for a foreign host, a missing product segment, or an
// empty slug.
func CanonicalURL(raw string) (string, bool) {
	parts := strings.Split(raw, "/")

	if parts[0] == "https:" || parts[0] == "http:" {
		if len(parts) < 2 || parts[1] != "" {
			return "", false
		}
		parts = parts[2:]
	}

	if len(parts) < 3 {
		return "", false
	}
	if parts[0] != Host {
		return "", false
	}
	if parts[1] != productKeyword {
		return "", false
	}
	if parts[2] == "" {
		return "", false
	}

	return "https://" + parts[0] + "/" + parts[1] + "/" + parts[2], true
}

// SKUFromURL extracts the numeric SKU embedded in a canonical URL's slug.
// Slugs end in "-<digits>"; a slug without a trailing numeric token yields
// an empty SKU rather than an error, since some catalog slugs carry no
// embedded identifier.
func SKUFromURL(canonical string) string {
	parts := strings.Split(canonical, "/")
	slug := parts[len(parts)-1]

	tokens := strings.Split(slug, "-")
	last := tokens[len(tokens)-1]
	if _, err := strconv.Atoi(last); err != nil {
		return ""
	}
	return last
}
