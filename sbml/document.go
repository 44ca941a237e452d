package sbml

import (
	"fmt"
	"io"
	"os"

	"github.com/beevik/etree"
	"go.uber.org/zap"
	"golang.org/x/net/html/charset"
)

// File level read/write of SBML documents.

// ReadFrom reads and parses an SBML document. Reading is permissive about
// encodings and input quirks since documents come from foreign tools.
func ReadFrom(r io.Reader, log *zap.Logger) (*Document, error) {
	doc := etree.NewDocument()
	doc.ReadSettings = etree.ReadSettings{
		CharsetReader: charset.NewReaderLabel,
		ValidateInput: false,
		Permissive:    true,
	}
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("unable to read SBML: %w", err)
	}
	return ParseDocument(doc, log)
}

// ReadFile reads and parses the SBML file at the given path.
func ReadFile(path string, log *zap.Logger) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("unable to open SBML file: %w", err)
	}
	defer f.Close()
	return ReadFrom(f, log)
}

// WriteTo renders the document model and writes it out.
func (d *Document) WriteTo(w io.Writer, log *zap.Logger) error {
	doc, err := d.BuildXML(log)
	if err != nil {
		return err
	}
	if _, err := doc.WriteTo(w); err != nil {
		return fmt.Errorf("unable to write SBML: %w", err)
	}
	return nil
}

// WriteFile renders the document model into the file at the given path.
func (d *Document) WriteFile(path string, log *zap.Logger) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to create SBML file: %w", err)
	}
	defer f.Close()
	return d.WriteTo(f, log)
}

// String renders the document for debugging. Errors collapse to an empty
// string; use WriteTo when failures matter.
func (d *Document) String() string {
	doc, err := d.BuildXML(zap.NewNop())
	if err != nil {
		return ""
	}
	out, err := doc.WriteToString()
	if err != nil {
		return ""
	}
	return out
}
