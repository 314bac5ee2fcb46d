package currency

import "testing"

func TestConvert(t *testing.T) {
	tests := []struct {
		usd, rate, want float64
	}{
		{100, 0.92, 92},
		{-250.5, 1.5, -375.75},
		{100, 0, 100},
		{100, -1, 100},
		{10, 0.333, 3.33},
	}
	for _, tt := range tests {
		if got := Convert(tt.usd, tt.rate); got != tt.want {
			t.Errorf("Convert(%v, %v) = %v, want %v", tt.usd, tt.rate, got, tt.want)
		}
	}
}

func TestFormat(t *testing.T) {
	tests := []struct {
		amount float64
		code   string
		locale string
		want   string
	}{
		{4, "USD", "en", "$ 4.00"},
		{1234.5, "USD", "en", "$ 1,234.50"},
		{-50, "USD", "en", "-$ 50.00"},
		{9, "EUR", "en", "€ 9.00"},
		{6.2, "AUD", "en", "A$ 6.20"},
		{8.2, "USD", "en-GB", "US$ 8.20"},
		{3, "", "", "$ 3.00"},
	}
	for _, tt := range tests {
		got, err := Format(tt.amount, tt.code, tt.locale)
		if err != nil {
			t.Fatalf("Format(%v, %q, %q): %v", tt.amount, tt.code, tt.locale, err)
		}
		if got != tt.want {
			t.Errorf("Format(%v, %q, %q) = %q, want %q", tt.amount, tt.code, tt.locale, got, tt.want)
		}
	}
}

func TestFormatterDisplay(t *testing.T) {
	f, err := NewFormatter("EUR", "en", 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if f.Code() != "EUR" {
		t.Errorf("Code = %s", f.Code())
	}
	if got := f.Display(18); got != "€ 9.00" {
		t.Errorf("Display(18) = %q", got)
	}
}

func TestFormatInvalid(t *testing.T) {
	if _, err := Format(1, "NOPE", "en"); err == nil {
		t.Error("expected error for bad currency code")
	}
	if _, err := NewFormatter("USD", "!!", 1); err == nil {
		t.Error("expected error for bad locale")
	}
}
