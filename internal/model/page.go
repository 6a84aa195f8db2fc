package model

// PageKind tells the assembler how to treat a page unit.
type PageKind string

const (
	PageKindPDF   PageKind = "pdf"
	PageKindImage PageKind = "image"
)

// Rotation is a clockwise quarter-turn angle in degrees.
type Rotation int

// Valid reports whether r is one of 0, 90, 180 or 270.
func (r Rotation) Valid() bool {
	switch r {
	case 0, 90, 180, 270:
		return true
	default:
		return false
	}
}

// Add turns r by delta degrees and normalises the result. delta should be a
// multiple of 90; anything else is snapped down to the nearest quarter turn.
func (r Rotation) Add(delta int) Rotation {
	v := (int(r) + delta) % 360
	if v < 0 {
		v += 360
	}
	return Rotation(v - v%90)
}

// Swaps reports whether the rotation exchanges width and height.
func (r Rotation) Swaps() bool {
	return r == 90 || r == 270
}

// PageData is one entry of the merge/split working list. PageNumber is
// 1-based; zero means the entry stands for the whole source document, which
// then has TotalPages pages.
type PageData struct {
	ID         string   `json:"id" yaml:"id"`
	Thumbnail  []byte   `json:"-" yaml:"-"`
	Filename   string   `json:"filename" yaml:"filename"`
	Kind       PageKind `json:"type" yaml:"type"`
	Source     FileRef  `json:"-" yaml:"-"`
	PageNumber int      `json:"pageNumber,omitempty" yaml:"pageNumber,omitempty"`
	TotalPages int      `json:"totalPages,omitempty" yaml:"totalPages,omitempty"`
	Rotation   Rotation `json:"rotation" yaml:"rotation"`
	Width      float64  `json:"width" yaml:"width"`
	Height     float64  `json:"height" yaml:"height"`
}

// WholeDocument reports whether the entry represents every page of its source.
func (p PageData) WholeDocument() bool {
	return p.Kind == PageKindPDF && p.PageNumber == 0
}

// PageCount is the number of output pages this entry contributes.
func (p PageData) PageCount() int {
	if p.WholeDocument() && p.TotalPages > 0 {
		return p.TotalPages
	}
	return 1
}
