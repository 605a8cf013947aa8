package catalogpix

import (
	"bytes"
	"strings"

	"github.com/bep/imagemeta"
)

// EmbeddedCredit holds the rights/credit fields extracted from EXIF, IPTC
// and XMP metadata. Used as a watermark signal (stock agencies fingerprint
// their previews in metadata) and surfaced in the sidecar.
type EmbeddedCredit struct {
	Copyright  string
	Artist     string
	Credit     string
	Source     string
	UsageTerms string
}

// CreditLine returns the first non-empty field for reporting.
func (c *EmbeddedCredit) CreditLine() string {
	if c == nil {
		return ""
	}
	for _, f := range []string{c.Copyright, c.Credit, c.Artist, c.Source, c.UsageTerms} {
		if f != "" {
			return f
		}
	}
	return ""
}

// stockAgencyKeywords are substrings that identify a stock-photo agency
// when found (case-insensitive) in any credit field. Agency previews are
// watermarked by definition.
var stockAgencyKeywords = []string{
	"shutterstock",
	"gettyimages",
	"getty images",
	"istockphoto",
	"istock",
	"alamy",
	"depositphotos",
	"dreamstime",
	"123rf",
	"adobestock",
	"adobe stock",
	"bigstockphoto",
	"stocksy",
	"pond5",
	"masterfile",
	"superstock",
	"agefotostock",
	"colourbox",
	"vectorstock",
	"freepik",
	"canstockphoto",
}

// hasStockSignature reports whether any credit field carries a known stock
// agency fingerprint.
func hasStockSignature(c *EmbeddedCredit) bool {
	if c == nil {
		return false
	}
	for _, f := range []string{c.Copyright, c.Artist, c.Credit, c.Source, c.UsageTerms} {
		if f == "" {
			continue
		}
		lower := strings.ToLower(f)
		for _, kw := range stockAgencyKeywords {
			if strings.Contains(lower, kw) {
				return true
			}
		}
	}
	return false
}

// wantedTags maps (source, tag-name) → true for every tag we care about.
var wantedTags = map[imagemeta.Source]map[string]bool{
	imagemeta.EXIF: {
		"Copyright": true,
		"Artist":    true,
	},
	imagemeta.IPTC: {
		"CopyrightNotice": true,
		"Credit":          true,
		"Source":          true,
	},
	imagemeta.XMP: {
		"Rights":     true,
		"UsageTerms": true,
		"Creator":    true,
	},
}

// extractEmbeddedCredit parses EXIF/IPTC/XMP credit fields from raw image
// bytes. Returns nil when nothing relevant is present or the data cannot
// be parsed; never returns an error.
func extractEmbeddedCredit(data []byte) *EmbeddedCredit {
	if len(data) == 0 {
		return nil
	}

	credit := &EmbeddedCredit{}
	found := false

	_, err := imagemeta.Decode(imagemeta.Options{
		R:       bytes.NewReader(data),
		Sources: imagemeta.EXIF | imagemeta.IPTC | imagemeta.XMP,
		ShouldHandleTag: func(ti imagemeta.TagInfo) bool {
			if tags, ok := wantedTags[ti.Source]; ok {
				return tags[ti.Tag]
			}
			return false
		},
		HandleTag: func(ti imagemeta.TagInfo) error {
			s := tagValueString(ti.Value)
			if s == "" {
				return nil
			}
			switch ti.Tag {
			case "Copyright", "CopyrightNotice", "Rights":
				credit.Copyright = s
			case "Artist", "Creator":
				credit.Artist = s
			case "Credit":
				credit.Credit = s
			case "Source":
				credit.Source = s
			case "UsageTerms":
				credit.UsageTerms = s
			default:
				return nil
			}
			found = true
			return nil
		},
	})

	if err != nil || !found {
		return nil
	}
	return credit
}

// tagValueString extracts a string from a tag value. XMP values may be
// string or []string (from altList/seqList).
func tagValueString(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case []string:
		if len(val) > 0 {
			return val[0]
		}
	case []any:
		if len(val) > 0 {
			if s, ok := val[0].(string); ok {
				return s
			}
		}
	}
	return ""
}
