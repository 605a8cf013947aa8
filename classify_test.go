package catalogpix

import "testing"

func TestClassify(t *testing.T) {
	t.Parallel()

	const threshold = 0.70
	tests := []struct {
		name string
		kept int
		avg  float64
		want Classification
	}{
		{"no images", 0, 0, NoImageFound},
		{"no images despite confidence", 0, 0.99, NoImageFound},
		{"confident", 3, 0.85, Found},
		{"exactly at threshold", 1, 0.70, Found},
		{"opaque unbranded average", 2, 0.75, Found},
		{"just below threshold", 2, 0.69, NotSure},
		{"weak matches", 4, 0.30, NotSure},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Classify(tc.kept, tc.avg, threshold); got != tc.want {
				t.Errorf("Classify(%d, %v) = %v, want %v", tc.kept, tc.avg, got, tc.want)
			}
		})
	}
}

func TestClassificationString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		c    Classification
		want string
	}{
		{Pending, "pending"},
		{Found, "found"},
		{NotSure, "not_sure"},
		{NoImageFound, "no_image_found"},
	}
	for _, tc := range tests {
		if got := tc.c.String(); got != tc.want {
			t.Errorf("String() = %q, want %q", got, tc.want)
		}
	}
}

func TestFolderName(t *testing.T) {
	t.Parallel()

	cfg := &Config{}
	cfg.defaults()
	item := &CatalogItem{ID: "HARRIS-2NX", Name: "Acetylene Cutting Tip 2NX"}

	tests := []struct {
		c    Classification
		want string
	}{
		{Found, "HARRIS-2NX"},
		{Pending, "HARRIS-2NX"},
		{NotSure, "HARRIS-2NX_NOT_SURE"},
		{NoImageFound, "HARRIS-2NX_NO_IMAGE"},
	}
	for _, tc := range tests {
		if got := cfg.folderName(item, tc.c); got != tc.want {
			t.Errorf("folderName(%v) = %q, want %q", tc.c, got, tc.want)
		}
	}

	// Hostile ids are sanitized before the suffix is appended.
	hostile := &CatalogItem{ID: `A/B\C:D?E`}
	if got := cfg.folderName(hostile, NotSure); got != "A_B_C_D_E_NOT_SURE" {
		t.Errorf("folderName(hostile) = %q", got)
	}
}
