package classify

import (
	"bytes"

	"github.com/dharsanguruparan/DocShift/internal/model"
)

// Kind identifies a container recognised from its leading bytes.
type Kind int

const (
	KindUnknown Kind = iota
	KindPDF
	KindPNG
	KindJPEG
	KindGIF
	KindTIFF
	KindBMP
	KindWEBP
	KindRTF
	KindDOCX
	KindXLSX
	KindPPTX
)

func (k Kind) String() string {
	switch k {
	case KindPDF:
		return "pdf"
	case KindPNG:
		return "png"
	case KindJPEG:
		return "jpg"
	case KindGIF:
		return "gif"
	case KindTIFF:
		return "tiff"
	case KindBMP:
		return "bmp"
	case KindWEBP:
		return "webp"
	case KindRTF:
		return "rtf"
	case KindDOCX:
		return "docx"
	case KindXLSX:
		return "xlsx"
	case KindPPTX:
		return "pptx"
	default:
		return "unknown"
	}
}

// Category maps a sniffed kind onto the classifier's categories.
func (k Kind) Category() model.Category {
	switch k {
	case KindPDF:
		return model.CategoryPDF
	case KindPNG, KindJPEG, KindGIF, KindTIFF, KindBMP, KindWEBP:
		return model.CategoryImage
	case KindRTF, KindDOCX:
		return model.CategoryDocument
	case KindXLSX:
		return model.CategorySpreadsheet
	case KindPPTX:
		return model.CategoryPresentation
	default:
		return model.CategoryUnknown
	}
}

// MIMEType returns the canonical content type for the kind.
func (k Kind) MIMEType() string {
	switch k {
	case KindPDF:
		return model.MIMEPDF
	case KindPNG:
		return model.MIMEPNG
	case KindJPEG:
		return model.MIMEJPEG
	case KindGIF:
		return "image/gif"
	case KindTIFF:
		return "image/tiff"
	case KindBMP:
		return "image/bmp"
	case KindWEBP:
		return "image/webp"
	case KindRTF:
		return "application/rtf"
	case KindDOCX:
		return model.MIMEDOCX
	case KindXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case KindPPTX:
		return "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	default:
		return "application/octet-stream"
	}
}

var (
	pdfSig    = []byte("%PDF-")
	pngSig    = []byte{0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a}
	jpegSig   = []byte{0xff, 0xd8, 0xff}
	gifSig    = []byte("GIF8")
	tiffSigLE = []byte{0x49, 0x49, 0x2a, 0x00}
	tiffSigBE = []byte{0x4d, 0x4d, 0x00, 0x2a}
	bmpSig    = []byte("BM")
	riffSig   = []byte("RIFF")
	webpSig   = []byte("WEBP")
	rtfSig    = []byte(`{\rtf`)
	zipSig    = []byte{0x50, 0x4b, 0x03, 0x04}
)

// Sniff inspects the leading bytes of data. Office Open XML packages are
// told apart by the part names stored in the zip headers.
func Sniff(data []byte) Kind {
	switch {
	case bytes.HasPrefix(data, pdfSig):
		return KindPDF
	case bytes.HasPrefix(data, pngSig):
		return KindPNG
	case bytes.HasPrefix(data, jpegSig):
		return KindJPEG
	case bytes.HasPrefix(data, gifSig):
		return KindGIF
	case bytes.HasPrefix(data, tiffSigLE), bytes.HasPrefix(data, tiffSigBE):
		return KindTIFF
	case bytes.HasPrefix(data, riffSig) && len(data) >= 12 && bytes.Equal(data[8:12], webpSig):
		return KindWEBP
	case bytes.HasPrefix(data, rtfSig):
		return KindRTF
	case bytes.HasPrefix(data, zipSig):
		return sniffPackage(data)
	case bytes.HasPrefix(data, bmpSig) && len(data) >= 26:
		return KindBMP
	default:
		return KindUnknown
	}
}

func sniffPackage(data []byte) Kind {
	switch {
	case bytes.Contains(data, []byte("word/")):
		return KindDOCX
	case bytes.Contains(data, []byte("xl/")):
		return KindXLSX
	case bytes.Contains(data, []byte("ppt/")):
		return KindPPTX
	default:
		return KindUnknown
	}
}
