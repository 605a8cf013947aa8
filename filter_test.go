package catalogpix

import "testing"

func TestKeepURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		url  string
		want bool
	}{
		// Allowed extensions.
		{name: "plain jpg", url: "https://cdn.example.com/products/item.jpg", want: true},
		{name: "plain jpeg", url: "https://cdn.example.com/products/item.jpeg", want: true},
		{name: "plain png", url: "https://cdn.example.com/products/item.png", want: true},
		{name: "uppercase extension", url: "https://cdn.example.com/products/ITEM.JPG", want: true},
		{name: "no extension", url: "https://cdn.example.com/image/4821", want: true},
		{name: "query string ignored", url: "https://cdn.example.com/item.jpg?v=2&fmt=webp", want: true},

		// Disallowed extensions dropped before any network call.
		{name: "gif dropped", url: "https://cdn.example.com/products/item.gif", want: false},
		{name: "webp dropped", url: "https://cdn.example.com/products/item.webp", want: false},
		{name: "svg dropped", url: "https://cdn.example.com/products/item.svg", want: false},
		{name: "html dropped", url: "https://example.com/product.html", want: false},

		// Malformed / non-absolute.
		{name: "relative path", url: "/images/item.jpg", want: false},
		{name: "missing scheme", url: "cdn.example.com/item.jpg", want: false},
		{name: "garbage", url: "ht!tp://%%%", want: false},
		{name: "ftp scheme", url: "ftp://example.com/item.jpg", want: false},
		{name: "empty", url: "", want: false},

		// Non-product indicators.
		{name: "logo", url: "https://example.com/assets/logo.png", want: false},
		{name: "banner", url: "https://example.com/promo-banner.jpg", want: false},
		{name: "thumbnail", url: "https://example.com/item-thumbnail.jpg", want: false},
		{name: "thumb", url: "https://example.com/thumbs/item.jpg", want: false},
		{name: "avatar", url: "https://example.com/user-avatar.png", want: false},
		{name: "watermark", url: "https://example.com/watermarked/item.jpg", want: false},
		{name: "placeholder", url: "https://example.com/placeholder.png", want: false},
		{name: "category page image", url: "https://example.com/category/item.jpg", want: false},
		{name: "social share", url: "https://example.com/social/item.jpg", want: false},

		// Small-size indicators.
		{name: "tiny 50x50", url: "https://example.com/item_50x50.jpg", want: false},
		{name: "tiny 64x64", url: "https://example.com/item-64x64.png", want: false},
		{name: "mini variant", url: "https://example.com/item_mini.jpg", want: false},
		{name: "full size 800x800 kept", url: "https://example.com/products/item_800x800.jpg", want: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := KeepURL(tc.url); got != tc.want {
				t.Errorf("KeepURL(%q) = %v, want %v", tc.url, got, tc.want)
			}
		})
	}
}

func TestFilterCandidates(t *testing.T) {
	t.Parallel()

	in := []CandidateURL{
		{URL: "https://cdn.example.com/a.jpg", SourceTag: "search"},
		{URL: "https://cdn.example.com/b.gif", SourceTag: "search"},
		{URL: "https://cdn.example.com/logo.png", SourceTag: "brand"},
		{URL: "https://cdn.example.com/c.png", SourceTag: "marketplace"},
	}

	kept, dropped := filterCandidates(in)
	if len(kept) != 2 || dropped != 2 {
		t.Fatalf("filterCandidates: kept %d dropped %d, want 2/2", len(kept), dropped)
	}
	if kept[0].URL != in[0].URL || kept[1].URL != in[3].URL {
		t.Errorf("filterCandidates changed order: %v", kept)
	}
}
