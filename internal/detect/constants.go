package detect

// Detection tuning constants
const (
	// Pixels added around the cached region for the fast-path search
	DefaultCacheMargin = 50

	// Sampling stride inside the expanded cached region
	FastPathStride = 10

	// Full-search stride is the search area's smaller dimension divided by
	// this, clamped below by MinStride
	StrideDivisor = 48
	MinStride     = 4

	// Non-matching pixels tolerated while tracing a border run
	TraceGapTolerance = 3

	// Per-channel tolerance for the fallback palette
	DefaultPaletteTolerance = 24

	// Fraction of sampled perimeter points that must match the border color
	BorderCoverageMin = 0.50

	// Interior must be mostly fill and at most this much background
	InteriorFillMin   = 0.50
	BackgroundMaxFrac = 0.20

	// Candidates overlapping an accepted one by more than this fraction of
	// the smaller area are dropped
	OverlapMax = 0.70

	// Corner alignment tolerance as a fraction of frame width/height
	CornerAlignFrac = 0.02

	// Samples taken along each perimeter edge and across the interior grid
	PerimeterSamplesPerEdge = 16
	InteriorGridSamples     = 8
)
