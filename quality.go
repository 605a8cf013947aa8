package catalogpix

import (
	"fmt"
	"image"

	xdraw "golang.org/x/image/draw"
)

// QualityProfile is a named bundle of scoring thresholds.
type QualityProfile int

const (
	// ProfileRelaxed accepts anything roughly square in a broad resolution
	// band. The default.
	ProfileRelaxed QualityProfile = iota
	// ProfileStrict narrows the geometry bands and demands a cleaner
	// background.
	ProfileStrict
	// ProfileSpeed skips the per-pixel background and watermark heuristics
	// entirely; only geometry and sharpness are computed.
	ProfileSpeed
)

func (p QualityProfile) String() string {
	switch p {
	case ProfileStrict:
		return "strict"
	case ProfileSpeed:
		return "speed"
	default:
		return "relaxed"
	}
}

// QualityWeights are the composite-score weights. They must sum to 1.
type QualityWeights struct {
	Geometry   float64
	Background float64
	Watermark  float64 // weight of the no-watermark bonus
	Sharpness  float64
}

// QualityThresholds controls the Quality Scorer. Zero value means "derive
// from Config.Profile".
type QualityThresholds struct {
	MinDimension int // both axes
	MaxDimension int
	MinAspect    float64 // width/height band
	MaxAspect    float64

	BackgroundCheck      bool
	BackgroundWhiteLevel uint8   // channel value counting as near-white
	BackgroundPlainRatio float64 // fraction of near-white border samples

	WatermarkCheck         bool
	WatermarkContrastRatio float64 // fraction of high-contrast grid points

	SharpnessFloor float64

	Weights QualityWeights
}

func (th QualityThresholds) isZero() bool {
	return th.MinDimension == 0 && th.MaxDimension == 0 && th.Weights == QualityWeights{}
}

// Thresholds returns the threshold bundle for a profile.
func (p QualityProfile) Thresholds() QualityThresholds {
	switch p {
	case ProfileStrict:
		return QualityThresholds{
			MinDimension:           800,
			MaxDimension:           1200,
			MinAspect:              0.95,
			MaxAspect:              1.05,
			BackgroundCheck:        true,
			BackgroundWhiteLevel:   235,
			BackgroundPlainRatio:   0.90,
			WatermarkCheck:         true,
			WatermarkContrastRatio: 0.05,
			SharpnessFloor:         0.02,
			Weights:                QualityWeights{Geometry: 0.55, Background: 0.25, Watermark: 0.10, Sharpness: 0.10},
		}
	case ProfileSpeed:
		return QualityThresholds{
			MinDimension:         600,
			MaxDimension:         1200,
			MinAspect:            0.8,
			MaxAspect:            1.25,
			BackgroundCheck:      false,
			BackgroundWhiteLevel: 230,
			BackgroundPlainRatio: 0.75,
			WatermarkCheck:       false,
			SharpnessFloor:       0,
			Weights:              QualityWeights{Geometry: 0.55, Background: 0.30, Watermark: 0.10, Sharpness: 0.05},
		}
	default:
		return QualityThresholds{
			MinDimension:           600,
			MaxDimension:           1200,
			MinAspect:              0.8,
			MaxAspect:              1.25,
			BackgroundCheck:        true,
			BackgroundWhiteLevel:   230,
			BackgroundPlainRatio:   0.75,
			WatermarkCheck:         true,
			WatermarkContrastRatio: 0.15,
			SharpnessFloor:         0.02,
			Weights:                QualityWeights{Geometry: 0.45, Background: 0.30, Watermark: 0.10, Sharpness: 0.15},
		}
	}
}

// QualityAssessment is the scorer's verdict plus the evidence behind it.
type QualityAssessment struct {
	Score                float64 // composite, in [0,1]
	Valid                bool
	Reasons              []string // gating failures, empty when Valid
	BackgroundConfidence float64  // fraction of near-white border samples
	Watermarked          bool
	Sharpness            float64
	Width, Height        int
}

const (
	// sampleEdge is the side length images are downsampled to before
	// per-pixel heuristics. Fixed filter, fill fit, no aspect
	// preservation — reproducible across runs.
	sampleEdge = 128

	borderSamplesPerEdge = 32
	watermarkGridSize    = 16
	// highContrastLevel is the local gradient magnitude (8-bit luma scale)
	// above which a grid point counts as high-contrast.
	highContrastLevel = 60.0
)

// assessQuality computes the composite quality verdict for a fetched image.
// credit may be nil; when present, an embedded stock-agency signature
// counts as a watermark signal on top of the gradient heuristic.
func assessQuality(f *FetchedImage, credit *EmbeddedCredit, th QualityThresholds) QualityAssessment {
	a := QualityAssessment{Width: f.Width, Height: f.Height}

	aspect := float64(f.Width) / float64(f.Height)
	aspectOK := aspect >= th.MinAspect && aspect <= th.MaxAspect
	if !aspectOK {
		a.Reasons = append(a.Reasons, fmt.Sprintf("not square: %dx%d", f.Width, f.Height))
	}
	sizeOK := f.Width >= th.MinDimension && f.Width <= th.MaxDimension &&
		f.Height >= th.MinDimension && f.Height <= th.MaxDimension
	if !sizeOK {
		a.Reasons = append(a.Reasons, fmt.Sprintf("size out of range: %dx%d", f.Width, f.Height))
	}

	sample := downsample(f.Image, sampleEdge)

	a.BackgroundConfidence = 1.0
	plain := true
	if th.BackgroundCheck {
		a.BackgroundConfidence = borderWhiteRatio(sample, th.BackgroundWhiteLevel)
		plain = a.BackgroundConfidence >= th.BackgroundPlainRatio
		if !plain {
			a.Reasons = append(a.Reasons, fmt.Sprintf("background not plain: %.2f white ratio", a.BackgroundConfidence))
		}
	}

	if th.WatermarkCheck {
		ratio := highContrastRatio(sample)
		a.Watermarked = ratio > th.WatermarkContrastRatio
		if !a.Watermarked && hasStockSignature(credit) {
			a.Watermarked = true
		}
		if a.Watermarked {
			a.Reasons = append(a.Reasons, "watermark suspected")
		}
	}

	a.Sharpness = centralSharpness(sample)
	if a.Sharpness < th.SharpnessFloor {
		a.Reasons = append(a.Reasons, fmt.Sprintf("too blurry: sharpness %.3f", a.Sharpness))
	}

	geomScore := 0.0
	if aspectOK {
		geomScore += 0.5
	}
	if sizeOK {
		geomScore += 0.5
	}
	watermarkBonus := 1.0
	if a.Watermarked {
		watermarkBonus = 0
	}
	w := th.Weights
	a.Score = clamp01(w.Geometry*geomScore + w.Background*a.BackgroundConfidence +
		w.Watermark*watermarkBonus + w.Sharpness*a.Sharpness)

	a.Valid = len(a.Reasons) == 0
	return a
}

// downsample scales img onto a fixed max×max grid (fill fit) with a fixed
// bilinear filter so heuristic results are reproducible. Small images pass
// through untouched.
func downsample(img image.Image, max int) image.Image {
	b := img.Bounds()
	if b.Dx() <= max && b.Dy() <= max {
		return img
	}
	dst := image.NewRGBA(image.Rect(0, 0, max, max))
	xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}

// luma8 returns the 8-bit grayscale value of the pixel at (x, y).
func luma8(img image.Image, x, y int) float64 {
	r, g, b, _ := img.At(x, y).RGBA()
	// Rec. 601 luma on 16-bit channels, scaled to 8-bit.
	return (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)) / 257.0
}

// borderWhiteRatio samples pixels along the four edges plus corners and
// returns the fraction whose channels are all at or above whiteLevel.
func borderWhiteRatio(img image.Image, whiteLevel uint8) float64 {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == 0 || h == 0 {
		return 0
	}
	level := uint32(whiteLevel) * 257

	var total, white int
	check := func(x, y int) {
		total++
		r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
		if r >= level && g >= level && bl >= level {
			white++
		}
	}

	n := borderSamplesPerEdge
	for i := 0; i < n; i++ {
		x := i * (w - 1) / (n - 1)
		y := i * (h - 1) / (n - 1)
		check(x, 0)
		check(x, h-1)
		check(0, y)
		check(w-1, y)
	}
	return float64(white) / float64(total)
}

// highContrastRatio measures local gradient magnitude over an evenly spaced
// interior grid and returns the fraction of high-contrast points. Dense
// high-contrast coverage across the whole frame is the signature of a tiled
// watermark overlay.
func highContrastRatio(img image.Image) float64 {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < 3 || h < 3 {
		return 0
	}

	var total, high int
	n := watermarkGridSize
	for gy := 1; gy <= n; gy++ {
		for gx := 1; gx <= n; gx++ {
			x := b.Min.X + gx*(w-2)/(n+1)
			y := b.Min.Y + gy*(h-2)/(n+1)
			g := gradientAt(img, x, y)
			total++
			if g > highContrastLevel {
				high++
			}
		}
	}
	return float64(high) / float64(total)
}

// centralSharpness averages gradient magnitude over the central half of the
// frame, normalized to [0,1].
func centralSharpness(img image.Image) float64 {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < 4 || h < 4 {
		return 0
	}

	x0, x1 := b.Min.X+w/4, b.Min.X+3*w/4
	y0, y1 := b.Min.Y+h/4, b.Min.Y+3*h/4

	var sum float64
	var count int
	// Stride keeps the central scan near-constant cost regardless of size.
	stride := (x1 - x0) / 24
	if stride < 1 {
		stride = 1
	}
	for y := y0; y < y1-1; y += stride {
		for x := x0; x < x1-1; x += stride {
			sum += gradientAt(img, x, y)
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return clamp01(sum / float64(count) / 255.0)
}

// gradientAt is the L1 gradient magnitude at (x, y): |∂x luma| + |∂y luma|
// on the 8-bit scale.
func gradientAt(img image.Image, x, y int) float64 {
	c := luma8(img, x, y)
	dx := luma8(img, x+1, y) - c
	dy := luma8(img, x, y+1) - c
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	return dx + dy
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
