package catalogpix

import (
	"image/color"
	"testing"
)

func TestHasStockSignature(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		credit *EmbeddedCredit
		want   bool
	}{
		{"nil credit", nil, false},
		{"empty credit", &EmbeddedCredit{}, false},
		{"photographer", &EmbeddedCredit{Artist: "Jane Smith"}, false},
		{"shutterstock copyright", &EmbeddedCredit{Copyright: "© Shutterstock, Inc."}, true},
		{"getty in credit", &EmbeddedCredit{Credit: "Getty Images / Handout"}, true},
		{"istock artist", &EmbeddedCredit{Artist: "via iStockphoto"}, true},
		{"alamy source", &EmbeddedCredit{Source: "ALAMY LIVE NEWS"}, true},
		{"freepik usage terms", &EmbeddedCredit{UsageTerms: "licensed from freepik.com"}, true},
		{"plain manufacturer", &EmbeddedCredit{Copyright: "Harris Products Group 2024"}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := hasStockSignature(tc.credit); got != tc.want {
				t.Errorf("hasStockSignature = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCreditLine(t *testing.T) {
	t.Parallel()

	var nilCredit *EmbeddedCredit
	if got := nilCredit.CreditLine(); got != "" {
		t.Errorf("nil CreditLine = %q, want empty", got)
	}

	c := &EmbeddedCredit{Artist: "Jane", Credit: "Agency"}
	if got := c.CreditLine(); got != "Agency" {
		t.Errorf("CreditLine = %q, want Agency (credit outranks artist)", got)
	}

	c = &EmbeddedCredit{Copyright: "© ACME"}
	if got := c.CreditLine(); got != "© ACME" {
		t.Errorf("CreditLine = %q, want copyright", got)
	}
}

func TestExtractEmbeddedCreditGracefulDegradation(t *testing.T) {
	t.Parallel()

	if got := extractEmbeddedCredit(nil); got != nil {
		t.Errorf("extractEmbeddedCredit(nil) = %+v, want nil", got)
	}
	if got := extractEmbeddedCredit([]byte{}); got != nil {
		t.Errorf("extractEmbeddedCredit(empty) = %+v, want nil", got)
	}
	if got := extractEmbeddedCredit([]byte("definitely not an image")); got != nil {
		t.Errorf("extractEmbeddedCredit(garbage) = %+v, want nil", got)
	}
	// A bare synthetic PNG carries no credit metadata.
	if got := extractEmbeddedCredit(pngBytes(t, flatImage(8, 8, color.White))); got != nil {
		t.Errorf("extractEmbeddedCredit(plain png) = %+v, want nil", got)
	}
}

func TestTagValueString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   any
		want string
	}{
		{"string", "hello", "hello"},
		{"string slice", []string{"first", "second"}, "first"},
		{"empty slice", []string{}, ""},
		{"any slice", []any{"x", 2}, "x"},
		{"any slice non-string", []any{42}, ""},
		{"int", 42, ""},
		{"nil", nil, ""},
	}
	for _, tc := range tests {
		if got := tagValueString(tc.in); got != tc.want {
			t.Errorf("tagValueString(%s) = %q, want %q", tc.name, got, tc.want)
		}
	}
}
