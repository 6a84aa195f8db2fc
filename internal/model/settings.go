package model

// Fidelity trades speed for text ordering and OCR fallback.
type Fidelity string

const (
	FidelityFast     Fidelity = "fast"
	FidelityBalanced Fidelity = "balanced"
	FidelityBest     Fidelity = "best"
)

// PDFForms controls interactive form handling.
type PDFForms string

const (
	PDFFormsKeep    PDFForms = "keep"
	PDFFormsFlatten PDFForms = "flatten"
)

// DocxChanges controls how tracked changes in DOCX sources are read.
type DocxChanges string

const (
	DocxChangesAccept DocxChanges = "accept"
	DocxChangesReject DocxChanges = "reject"
	DocxChangesKeep   DocxChanges = "keep"
)

// Comments controls whether reviewer comments survive conversion.
type Comments string

const (
	CommentsKeep   Comments = "keep"
	CommentsRemove Comments = "remove"
)

// ImageHandling picks the re-encode quality for image outputs.
type ImageHandling string

const (
	ImageAuto     ImageHandling = "auto"
	ImageLossless ImageHandling = "lossless"
	ImageLossy    ImageHandling = "lossy"
)

const defaultImageQuality = 85

// PreservationSettings is handed down the conversion call chain by value and
// is never modified while a conversion runs.
type PreservationSettings struct {
	Fidelity      Fidelity      `json:"fidelity" yaml:"fidelity" mapstructure:"fidelity"`
	PDFForms      PDFForms      `json:"pdfForms" yaml:"pdfForms" mapstructure:"pdf_forms"`
	DocxChanges   DocxChanges   `json:"docxChanges" yaml:"docxChanges" mapstructure:"docx_changes"`
	Comments      Comments      `json:"comments" yaml:"comments" mapstructure:"comments"`
	ImageHandling ImageHandling `json:"imageHandling" yaml:"imageHandling" mapstructure:"image_handling"`
	ImageQuality  int           `json:"imageQuality" yaml:"imageQuality" mapstructure:"image_quality"`
}

// DefaultSettings returns balanced fidelity, keep for every preservation
// toggle and automatic image handling.
func DefaultSettings() PreservationSettings {
	return PreservationSettings{
		Fidelity:      FidelityBalanced,
		PDFForms:      PDFFormsKeep,
		DocxChanges:   DocxChangesKeep,
		Comments:      CommentsKeep,
		ImageHandling: ImageAuto,
		ImageQuality:  defaultImageQuality,
	}
}

// Normalize replaces unknown or empty values with defaults and clamps the
// quality into 0..100. The receiver is a copy so the caller's value is left
// alone.
func (s PreservationSettings) Normalize() PreservationSettings {
	def := DefaultSettings()
	switch s.Fidelity {
	case FidelityFast, FidelityBalanced, FidelityBest:
	default:
		s.Fidelity = def.Fidelity
	}
	switch s.PDFForms {
	case PDFFormsKeep, PDFFormsFlatten:
	default:
		s.PDFForms = def.PDFForms
	}
	switch s.DocxChanges {
	case DocxChangesAccept, DocxChangesReject, DocxChangesKeep:
	default:
		s.DocxChanges = def.DocxChanges
	}
	switch s.Comments {
	case CommentsKeep, CommentsRemove:
	default:
		s.Comments = def.Comments
	}
	switch s.ImageHandling {
	case ImageAuto, ImageLossless, ImageLossy:
	default:
		s.ImageHandling = def.ImageHandling
	}
	if s.ImageQuality < 0 {
		s.ImageQuality = 0
	}
	if s.ImageQuality > 100 {
		s.ImageQuality = 100
	}
	return s
}

// ResolveSettings turns an optional settings pointer into a usable value.
func ResolveSettings(s *PreservationSettings) PreservationSettings {
	if s == nil {
		return DefaultSettings()
	}
	return s.Normalize()
}
