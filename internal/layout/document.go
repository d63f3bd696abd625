package layout

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/go-pdf/fpdf"
)

// Placement records where a card was drawn
type Placement struct {
	Index       int // Position in the input
	Page        int // Zero based
	Row         int
	Col         int
	X           float64 // Card origin on the page in mm
	Y           float64
	Image       string // Resolution key of the drawn image, empty when text only
	ImageSource string
	FontSize    float64 // Body font size actually used
	Clipped     bool    // Body text was cut at the floor size
}

// Document is a rendered card sheet
type Document struct {
	pdf        *fpdf.Fpdf
	pages      int
	placements []Placement
	out        []byte
}

// Pages returns the number of pages drawn
func (d *Document) Pages() int {
	return d.pages
}

// Placements returns one entry per card in input order
func (d *Document) Placements() []Placement {
	return d.placements
}

// Bytes serialises the document. The result is computed once.
func (d *Document) Bytes() ([]byte, error) {
	if d.out != nil {
		return d.out, nil
	}
	// fpdf adds a blank page when closing a document without pages
	if d.pages == 0 {
		d.out = emptyPDF()
		return d.out, nil
	}
	var buf bytes.Buffer
	if err := d.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	d.out = buf.Bytes()
	return d.out, nil
}

// emptyPDF returns a valid document with a page tree of zero pages
func emptyPDF() []byte {
	objects := []string{
		"<</Type /Catalog /Pages 2 0 R>>",
		"<</Type /Pages /Kids [] /Count 0>>",
		"<</Producer (cardforge)>>",
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.3\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n0000000000 65535 f \n", len(objects)+1)
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<</Size %d /Root 1 0 R /Info 3 0 R>>\n", len(objects)+1)
	fmt.Fprintf(&buf, "startxref\n%d\n%%%%EOF\n", xref)
	return buf.Bytes()
}

// WriteTo writes the PDF to w
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	data, err := d.Bytes()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	return int64(n), err
}

// Save writes the PDF to path. The file is written next to its target and
// renamed into place, so a failed save leaves no partial file behind.
func (d *Document) Save(path string) error {
	data, err := d.Bytes()
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".cardforge-*.pdf")
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
