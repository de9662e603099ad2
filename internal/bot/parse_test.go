package bot

import "testing"

func TestParseReference(t *testing.T) {
	tests := []struct {
		name    string
		args    string
		wantSKU string
		wantURL string
		wantErr bool
	}{
		{name: "empty", args: "", wantErr: true},
		{name: "whitespace only", args: "   ", wantErr: true},
		{name: "multiple tokens", args: "9001 9002", wantErr: true},
		{name: "digits are a sku", args: "9001", wantSKU: "9001"},
		{name: "url", args: "https://www.ozon.ru/product/widget-9001", wantURL: "https://www.ozon.ru/product/widget-9001"},
		{name: "trimmed", args: "  9001  ", wantSKU: "9001"},
		{name: "mixed token is a url", args: "widget-9001", wantURL: "widget-9001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sku, url, err := ParseReference(tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseReference(%q) error = %v, wantErr %v", tt.args, err, tt.wantErr)
			}
			if sku != tt.wantSKU || url != tt.wantURL {
				t.Errorf("ParseReference(%q) = (%q, %q), want (%q, %q)", tt.args, sku, url, tt.wantSKU, tt.wantURL)
			}
		})
	}
}

func TestParseIDArg(t *testing.T) {
	tests := []struct {
		name    string
		args    string
		want    int64
		wantErr bool
	}{
		{name: "empty", args: "", wantErr: true},
		{name: "not a number", args: "abc", wantErr: true},
		{name: "valid", args: "42", want: 42},
		{name: "trailing tokens ignored", args: "42 extra", want: 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseIDArg(tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseIDArg(%q) error = %v, wantErr %v", tt.args, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseIDArg(%q) = %d, want %d", tt.args, got, tt.want)
			}
		})
	}
}

func TestParseThresholdArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    string
		wantID  int64
		wantVal string
		wantErr bool
	}{
		{name: "empty", args: "", wantErr: true},
		{name: "missing price", args: "1", wantErr: true},
		{name: "bad id", args: "abc 100", wantErr: true},
		{name: "bad price", args: "1 cheap", wantErr: true},
		{name: "zero price", args: "1 0", wantErr: true},
		{name: "negative price", args: "1 -5", wantErr: true},
		{name: "integer", args: "1 1200", wantID: 1, wantVal: "1200"},
		{name: "decimal", args: "7 999.9", wantID: 7, wantVal: "999.9"},
		{name: "canonicalized", args: "7 0100.50", wantID: 7, wantVal: "100.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, val, err := ParseThresholdArgs(tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseThresholdArgs(%q) error = %v, wantErr %v", tt.args, err, tt.wantErr)
			}
			if id != tt.wantID || val != tt.wantVal {
				t.Errorf("ParseThresholdArgs(%q) = (%d, %q), want (%d, %q)", tt.args, id, val, tt.wantID, tt.wantVal)
			}
		})
	}
}
