package catalogpix

import (
	"regexp"
	"strings"
)

// MatchMode is how a candidate's relevance was estimated.
type MatchMode int

const (
	// ModeDescriptive scores lexical overlap between the filename and the
	// item's brand/name/attributes.
	ModeDescriptive MatchMode = iota
	// ModeOpaque applies when the filename is an opaque identifier (hash,
	// vendor SKU): confidence comes from how the candidate was sourced,
	// not from the filename.
	ModeOpaque
)

func (m MatchMode) String() string {
	if m == ModeOpaque {
		return "opaque"
	}
	return "descriptive"
}

// MatchResult is the estimator's output for one kept image.
type MatchResult struct {
	Confidence float64 // in [0,1]
	Mode       MatchMode
	BrandScore float64 // descriptive mode only
	NameScore  float64 // descriptive mode only
}

// Descriptive-mode weights. Brand dominates when present; unbranded items
// reweight toward name and attribute similarity.
const (
	brandWeight     = 0.40
	nameWeight      = 0.30
	attributeWeight = 0.20
	strongBonus     = 0.10

	unbrandedNameWeight      = 0.65
	unbrandedAttributeWeight = 0.35
)

// Opaque-mode source-trust baselines. A brand/product-targeted search query
// already filters candidates, so opaque e-commerce filenames inherit
// confidence from the query rather than from lexical signal.
const (
	opaqueBrandedRich = 0.95 // brand present, descriptive product name
	opaqueBranded     = 0.85 // brand present
	opaqueUnbranded   = 0.75

	sourceTrustDelta = 0.05
)

// opaqueMinHexLen is the minimum length of a separator-stripped hex stem
// that counts as opaque. Tunable heuristic: short hex words ("deed",
// "cafe") must not trigger it.
const opaqueMinHexLen = 12

var hexStemRe = regexp.MustCompile(`^[0-9a-f]+$`)

// MatchConfidence estimates how plausibly the image at cand depicts the
// item, inspecting the originating filename to pick the scoring mode.
func (cfg *Config) MatchConfidence(item *CatalogItem, cand CandidateURL) MatchResult {
	stem := filenameStem(cand.URL)
	tokens := splitTokens(stem)

	if isOpaqueStem(stem, tokens) {
		return MatchResult{
			Confidence: cfg.sourceTrust(item, cand.SourceTag),
			Mode:       ModeOpaque,
		}
	}
	return descriptiveMatch(item, stem, tokens)
}

// IsMatch reports whether a confidence clears the match threshold.
func (cfg *Config) IsMatch(confidence float64) bool { return confidence >= cfg.MatchThreshold }

// IsPerfectMatch reports whether a confidence clears the perfect threshold.
func (cfg *Config) IsPerfectMatch(confidence float64) bool {
	return confidence >= cfg.PerfectThreshold
}

// isOpaqueStem decides whether a filename stem carries lexical signal.
// Approximate by design: three cheap tests, any hit means opaque. A
// misclassification only routes scoring down the other path.
func isOpaqueStem(stem string, tokens []string) bool {
	compact := stripSeparators(stem)
	if compact == "" {
		return true
	}
	if len(compact) >= opaqueMinHexLen && hexStemRe.MatchString(compact) {
		return true
	}
	if digitRatio(compact) >= 0.5 {
		return true
	}
	for _, t := range tokens {
		if len(t) >= 3 && strings.ContainsAny(t, "aeiouy") {
			return false
		}
	}
	return true
}

// sourceTrust derives opaque-mode confidence from how the candidate was
// sourced, then nudges it by the sourceTag trust tier.
func (cfg *Config) sourceTrust(item *CatalogItem, sourceTag string) float64 {
	conf := opaqueUnbranded
	if item.HasBrand() {
		conf = opaqueBranded
		if len(meaningfulTokens(item.Name)) >= 3 {
			conf = opaqueBrandedRich
		}
	}

	tag := strings.ToLower(sourceTag)
	for _, s := range cfg.TrustedSources {
		if strings.EqualFold(s, tag) {
			return clamp01(conf + sourceTrustDelta)
		}
	}
	for _, s := range cfg.LowTrustSources {
		if strings.EqualFold(s, tag) {
			return clamp01(conf - sourceTrustDelta)
		}
	}
	return clamp01(conf)
}

// descriptiveMatch scores lexical overlap between the filename stem and the
// item's brand, name and attributes.
func descriptiveMatch(item *CatalogItem, stem string, stemTokens []string) MatchResult {
	nameTokens := meaningfulTokens(item.Name)
	nameScore := tokenRecall(nameTokens, stemTokens)

	attrs := extractAttributes(nameTokens)
	attrScore := tokenRecall(attrs, stemTokens)

	var conf, brandScore float64
	if item.HasBrand() {
		brandScore = scoreBrand(item.Brand, stem, stemTokens)
		wName, wAttr := nameWeight, attributeWeight
		if len(attrs) == 0 {
			// No attributes to find — fold the weight into the name term.
			wName += wAttr
			wAttr = 0
		}
		conf = brandWeight*brandScore + wName*nameScore + wAttr*attrScore
		if brandScore >= 0.9 && nameScore >= 0.5 {
			conf += strongBonus
		}
	} else {
		wName, wAttr := unbrandedNameWeight, unbrandedAttributeWeight
		if len(attrs) == 0 {
			wName = 1.0
			wAttr = 0
		}
		conf = wName*nameScore + wAttr*attrScore
	}

	return MatchResult{
		Confidence: clamp01(conf),
		Mode:       ModeDescriptive,
		BrandScore: brandScore,
		NameScore:  nameScore,
	}
}

// scoreBrand grades brand presence in the filename: exact match highest,
// partial token overlap lower, initials lower still, absence zero.
func scoreBrand(brand, stem string, stemTokens []string) float64 {
	norm := foldText(strings.ToLower(brand))
	brandTokens := splitTokens(norm)
	if len(brandTokens) == 0 {
		return 0
	}

	if strings.Contains(stripSeparators(stem), stripSeparators(norm)) {
		return 1.0
	}

	matched := 0
	for _, bt := range brandTokens {
		for _, st := range stemTokens {
			if bt == st {
				matched++
				break
			}
		}
	}
	if matched*2 >= len(brandTokens) {
		return 0.5
	}

	if len(brandTokens) >= 2 {
		var initials strings.Builder
		for _, bt := range brandTokens {
			initials.WriteByte(bt[0])
		}
		for _, st := range stemTokens {
			if st == initials.String() {
				return 0.3
			}
		}
	}
	return 0
}

// tokenRecall is the fraction of want tokens found in have. A token counts
// as found on exact match or a shared prefix of at least three characters
// covering the shorter token.
func tokenRecall(want, have []string) float64 {
	if len(want) == 0 {
		return 0
	}
	matched := 0
	for _, w := range want {
		for _, h := range have {
			if tokensAlike(w, h) {
				matched++
				break
			}
		}
	}
	return float64(matched) / float64(len(want))
}

func tokensAlike(a, b string) bool {
	if a == b {
		return true
	}
	short, long := a, b
	if len(short) > len(long) {
		short, long = long, short
	}
	return len(short) >= 3 && strings.HasPrefix(long, short)
}

// attributeColors and attributeMaterials are the cheap attribute
// vocabularies checked for overlap between product name and filename.
var attributeColors = []string{
	"black", "white", "red", "blue", "green", "yellow", "orange",
	"purple", "pink", "grey", "gray", "brown", "silver", "gold", "beige",
}

var attributeMaterials = []string{
	"steel", "brass", "copper", "aluminum", "aluminium", "plastic",
	"rubber", "leather", "cotton", "wool", "nylon", "ceramic", "glass",
	"wood", "wooden", "chrome", "titanium",
}

// extractAttributes pulls size/color/material tokens out of the product
// name tokens. Sizes are tokens carrying a digit ("2nx", "10mm", "xl" is
// left to the color/material lists' absence).
func extractAttributes(nameTokens []string) []string {
	var attrs []string
	for _, t := range nameTokens {
		if strings.ContainsAny(t, "0123456789") {
			attrs = append(attrs, t)
			continue
		}
		for _, c := range attributeColors {
			if t == c {
				attrs = append(attrs, t)
				break
			}
		}
		for _, m := range attributeMaterials {
			if t == m {
				attrs = append(attrs, t)
				break
			}
		}
	}
	return attrs
}

func digitRatio(s string) float64 {
	if s == "" {
		return 0
	}
	digits := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return float64(digits) / float64(len(s))
}
