package certificate

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/go-pdf/fpdf"
	"github.com/pkg/errors"
)

// A4 landscape, in mm.
const (
	pageWidth  = 297
	pageHeight = 210
)

// DocumentSink receives exported certificate documents, eg. a downloads folder or an HTTP response.
type DocumentSink interface {
	SaveDocument(filename string, content []byte) error
}

// BuildDocument lays png over a single A4 landscape page, stretched edge to edge.
// The document has no text layer.
func BuildDocument(png []byte, title string) ([]byte, error) {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(title, true)
	pdf.SetCreator("Masomo", true)
	pdf.AddPage()

	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("certificate", opts, bytes.NewReader(png))
	pdf.ImageOptions("certificate", 0, 0, pageWidth, pageHeight, false, opts, 0, "")

	var buff bytes.Buffer
	if err := pdf.Output(&buff); err != nil {
		return nil, errors.Wrap(err, "writing PDF")
	}
	return buff.Bytes(), nil
}

// DirSink saves documents as files in a directory, like a browser download.
type DirSink struct {
	Dir string
}

var _ DocumentSink = DirSink{}

func (s DirSink) SaveDocument(filename string, content []byte) error {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return errors.Wrap(err, "creating export directory")
	}
	path := filepath.Join(s.Dir, filepath.Base(filename))
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return errors.Wrapf(err, "writing %s", path)
	}
	return nil
}
