package cv

import (
	"bytes"
	"io"
	"log"
	"path/filepath"
	"strings"

	"code.sajari.com/docconv"
	"github.com/ledongthuc/pdf"
	"github.com/otiai10/gosseract/v2"
)

// UnreadableContent is returned when every extraction strategy failed. The
// exact string is part of the persisted contract; downstream consumers match
// on it.
const UnreadableContent = "Contenido no legible."

// MinUsefulTextLen is the threshold under which structured extraction is
// considered useless (a scanned PDF with no text layer yields a handful of
// whitespace runes) and OCR is attempted instead.
const MinUsefulTextLen = 50

// ocrEngine recognizes text in an image or scanned document.
type ocrEngine interface {
	Recognize(data []byte) (string, error)
}

// gosseractEngine runs tesseract through gosseract. One client per call;
// gosseract clients are not safe for concurrent reuse.
type gosseractEngine struct {
	language string
}

func (e *gosseractEngine) Recognize(data []byte) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(e.language); err != nil {
		return "", err
	}
	if err := client.SetImageFromBytes(data); err != nil {
		return "", err
	}
	return client.Text()
}

// Parser turns an uploaded binary file into best-effort plain text. It never
// returns an error past its own boundary: total failure yields the sentinel.
type Parser struct {
	ocr ocrEngine
}

func NewParser(ocrLanguage string) *Parser {
	if ocrLanguage == "" {
		ocrLanguage = "spa"
	}
	return &Parser{ocr: &gosseractEngine{language: ocrLanguage}}
}

// ExtractText runs the fallback chain: PDF text layer, then document
// conversion, then OCR when the result is still below the usefulness
// threshold.
func (p *Parser) ExtractText(filename string, data []byte) string {
	ext := strings.ToLower(filepath.Ext(filename))

	var text string
	switch ext {
	case ".pdf":
		text = pdfTextLayer(data)
		if usable(text) {
			return strings.TrimSpace(text)
		}
		text = p.convert(filename, data)
	case ".png", ".jpg", ".jpeg", ".tif", ".tiff", ".bmp":
		// Images have no text layer; OCR is the only strategy.
		text = ""
	default:
		text = p.convert(filename, data)
	}

	if usable(text) {
		return strings.TrimSpace(text)
	}

	ocrText := p.runOCR(data)
	if strings.TrimSpace(ocrText) != "" {
		return strings.TrimSpace(ocrText)
	}

	// OCR produced nothing; a short structured result still beats the
	// sentinel.
	if strings.TrimSpace(text) != "" {
		return strings.TrimSpace(text)
	}
	return UnreadableContent
}

func (p *Parser) convert(filename string, data []byte) string {
	mime := docconv.MimeTypeByExtension(filename)
	res, err := docconv.Convert(bytes.NewReader(data), mime, true)
	if err != nil {
		log.Printf("[Parser] docconv failed for %s: %v", filename, err)
		return ""
	}
	return res.Body
}

func (p *Parser) runOCR(data []byte) string {
	text, err := p.ocr.Recognize(data)
	if err != nil {
		log.Printf("[Parser] OCR failed: %v", err)
		return ""
	}
	return text
}

// pdfTextLayer reads the structured text layer page by page. Errors collapse
// to empty so the caller falls through to the next strategy.
func pdfTextLayer(data []byte) (text string) {
	defer func() {
		// The pdf package panics on some malformed files.
		if recover() != nil {
			text = ""
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return ""
	}
	reader, err := r.GetPlainText()
	if err != nil {
		return ""
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, reader); err != nil {
		return ""
	}
	return buf.String()
}

func usable(text string) bool {
	return len(strings.TrimSpace(text)) >= MinUsefulTextLen
}
