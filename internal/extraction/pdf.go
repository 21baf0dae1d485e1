package extraction

import (
	"bytes"
	"fmt"
	"image/jpeg"

	"github.com/gen2brain/go-fitz"
)

// maxPDFPages caps how many PDF pages are sent to the vision model
const maxPDFPages = 2

// pdfPagesAsJPEG rasterizes the leading pages of a PDF to JPEG images so
// they can be attached to the vision request
func pdfPagesAsJPEG(data []byte) ([][]byte, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	pages := doc.NumPage()
	if pages > maxPDFPages {
		pages = maxPDFPages
	}

	var images [][]byte
	for page := 0; page < pages; page++ {
		img, err := doc.Image(page)
		if err != nil {
			return nil, fmt.Errorf("failed to render page %d: %w", page, err)
		}

		var buf bytes.Buffer
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
			return nil, fmt.Errorf("failed to encode page %d: %w", page, err)
		}
		images = append(images, buf.Bytes())
	}

	if len(images) == 0 {
		return nil, fmt.Errorf("no pages extracted from PDF")
	}

	return images, nil
}
