package ocr

// Tesseract invocation
const (
	tesseractBinary = "tesseract"
	DefaultLang     = "eng"
	DefaultPSM      = "6" // single uniform text block
)

// Region preprocessing. Crops shorter than minLegibleHeight are
// upscaled before recognition so thin bitmap fonts stay legible.
const (
	minLegibleHeight = 64
	upscaleFactor    = 2
)
