package catalog

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCanonicalURL(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		want   string
		wantOK bool
	}{
		{
			name:   "full https url",
			raw:    "https://www.ozon.ru/product/widget-9001",
			want:   "https://www.ozon.ru/product/widget-9001",
			wantOK: true,
		},
		{
			name:   "http scheme accepted",
			raw:    "http://www.ozon.ru/product/widget-9001",
			want:   "https://www.ozon.ru/product/widget-9001",
			wantOK: true,
		},
		{
			name:   "no scheme",
			raw:    "www.ozon.ru/product/widget-9001",
			want:   "https://www.ozon.ru/product/widget-9001",
			wantOK: true,
		},
		{
			name:   "trailing path segments stripped",
			raw:    "https://www.ozon.ru/product/widget-9001/reviews?page=2",
			want:   "https://www.ozon.ru/product/widget-9001",
			wantOK: true,
		},
		{
			name: "foreign host",
			raw:  "https://www.example.com/product/widget-9001",
		},
		{
			name: "missing product keyword",
			raw:  "https://www.ozon.ru/category/widget-9001",
		},
		{
			name: "empty slug",
			raw:  "https://www.ozon.ru/product/",
		},
		{
			name: "too few segments",
			raw:  "https://www.ozon.ru",
		},
		{
			name: "malformed scheme",
			raw:  "https:/www.ozon.ru/product/widget-9001",
		},
		{
			name: "empty input",
			raw:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := CanonicalURL(tt.raw)
			if ok != tt.wantOK {
				t.Fatalf("CanonicalURL(%q) ok = %v, want %v", tt.raw, ok, tt.wantOK)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("CanonicalURL(%q) mismatch (-want +got):\n%s", tt.raw, diff)
			}
		})
	}
}

func TestCanonicalURLIdempotent(t *testing.T) {
	inputs := []string{
		"https://www.ozon.ru/product/widget-9001",
		"www.ozon.ru/product/widget-9001/extra",
		"http://www.ozon.ru/product/plain-slug",
	}
	for _, raw := range inputs {
		once, ok := CanonicalURL(raw)
		if !ok {
			t.Fatalf("CanonicalURL(%q) rejected valid input", raw)
		}
		twice, ok := CanonicalURL(once)
		if !ok {
			t.Fatalf("CanonicalURL(%q) rejected its own output", once)
		}
		if diff := cmp.Diff(once, twice); diff != "" {
			t.Errorf("not idempotent for %q (-once +twice):\n%s", raw, diff)
		}
	}
}

func TestSKUFromURL(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.ozon.ru/product/widget-9001", "9001"},
		{"https://www.ozon.ru/product/widget", ""},
		{"https://www.ozon.ru/product/9001", "9001"},
		{"https://www.ozon.ru/product/multi-part-slug-42", "42"},
		{"https://www.ozon.ru/product/widget-9001a", ""},
	}
	for _, tt := range tests {
		if got := SKUFromURL(tt.url); got != tt.want {
			t.Errorf("SKUFromURL(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name    string
		sku     string
		url     string
		want    Reference
		wantErr bool
	}{
		{
			name: "by url",
			url:  "https://www.ozon.ru/product/widget-9001",
			want: Reference{URL: "https://www.ozon.ru/product/widget-9001", SKU: "9001"},
		},
		{
			name: "by sku",
			sku:  "9001",
			want: Reference{URL: "https://www.ozon.ru/product/9001", SKU: "9001"},
		},
		{
			name: "url without embedded sku",
			url:  "www.ozon.ru/product/widget",
			want: Reference{URL: "https://www.ozon.ru/product/widget", SKU: ""},
		},
		{
			name:    "both supplied",
			sku:     "9001",
			url:     "https://www.ozon.ru/product/widget-9001",
			wantErr: true,
		},
		{
			name:    "neither supplied",
			wantErr: true,
		},
		{
			name:    "foreign host",
			url:     "https://shop.example.com/product/widget-9001",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Canonicalize(tt.sku, tt.url)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidReference) {
					t.Fatalf("expected ErrInvalidReference, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Canonicalize: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Canonicalize mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
