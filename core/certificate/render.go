package certificate

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"github.com/pkg/errors"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/trezcool/masomo-certs/core"
)

// Renderer draws a certificate and returns it PNG encoded.
type Renderer interface {
	Render(ctx context.Context, f Fields) ([]byte, error)
}

// FontSet holds the regular & bold faces certificates are drawn with.
type FontSet struct {
	Regular *truetype.Font
	Bold    *truetype.Font
}

// LoadFontSet parses the TrueType fonts at the given paths.
// An empty path falls back to the matching Go font (which has no Arabic glyphs).
func LoadFontSet(regularPath, boldPath string) (*FontSet, error) {
	regular, err := loadFont(regularPath, goregular.TTF)
	if err != nil {
		return nil, errors.Wrap(err, "loading regular font")
	}
	bold, err := loadFont(boldPath, gobold.TTF)
	if err != nil {
		return nil, errors.Wrap(err, "loading bold font")
	}
	return &FontSet{Regular: regular, Bold: bold}, nil
}

func loadFont(path string, fallback []byte) (*truetype.Font, error) {
	ttf := fallback
	if path != "" {
		var err error
		if ttf, err = os.ReadFile(path); err != nil {
			return nil, err
		}
	}
	return truetype.Parse(ttf)
}

func (fs *FontSet) face(size float64, bold bool) font.Face {
	f := fs.Regular
	if bold {
		f = fs.Bold
	}
	return truetype.NewFace(f, &truetype.Options{Size: size, DPI: 72, Hinting: font.HintingFull})
}

// CanvasRenderer draws a Layout on a raster canvas.
type CanvasRenderer struct {
	layout Layout
	fonts  *FontSet
	logo   LogoSource // optional
	logger core.Logger
}

var _ Renderer = (*CanvasRenderer)(nil)

func NewCanvasRenderer(layout Layout, fonts *FontSet, logo LogoSource, logger core.Logger) *CanvasRenderer {
	return &CanvasRenderer{
		layout: layout,
		fonts:  fonts,
		logo:   logo,
		logger: logger,
	}
}

func (r *CanvasRenderer) Render(ctx context.Context, f Fields) ([]byte, error) {
	texts, err := r.layout.Resolve(f)
	if err != nil {
		return nil, err
	}

	dc := gg.NewContext(r.layout.Width, r.layout.Height)
	r.drawBackground(dc)
	r.drawLogo(ctx, dc, f)
	r.drawTexts(dc, texts)

	var buff bytes.Buffer
	if err := dc.EncodePNG(&buff); err != nil {
		return nil, errors.Wrap(err, "encoding certificate PNG")
	}
	return buff.Bytes(), nil
}

func (r *CanvasRenderer) drawBackground(dc *gg.Context) {
	w, h := float64(r.layout.Width), float64(r.layout.Height)

	grad := gg.NewLinearGradient(0, 0, w, h)
	grad.AddColorStop(0, r.layout.GradientFrom)
	grad.AddColorStop(1, r.layout.GradientTo)
	dc.SetFillStyle(grad)
	dc.DrawRectangle(0, 0, w, h)
	dc.Fill()

	inset := r.layout.BorderInset
	dc.SetColor(r.layout.BorderColor)
	dc.SetLineWidth(r.layout.BorderWidth)
	dc.DrawRectangle(inset, inset, w-2*inset, h-2*inset)
	dc.Stroke()
}

// drawLogo never fails: a missing logo only degrades the certificate.
func (r *CanvasRenderer) drawLogo(ctx context.Context, dc *gg.Context, f Fields) {
	if r.logo == nil {
		return
	}
	logo, err := r.logo.Logo(ctx)
	if err != nil {
		r.logger.Warn(fmt.Sprintf("drawing certificate without logo: %v", err), err, f)
		return
	}

	box := r.layout.Logo
	scaled := image.NewRGBA(image.Rect(0, 0, int(box.W), int(box.H)))
	xdraw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), logo, logo.Bounds(), xdraw.Over, nil)
	dc.DrawImage(scaled, int(box.X), int(box.Y))
}

func (r *CanvasRenderer) drawTexts(dc *gg.Context, texts []ResolvedText) {
	for _, t := range texts {
		dc.SetFontFace(r.fonts.face(t.Size, t.Bold))
		dc.SetColor(t.Color)
		dc.DrawStringAnchored(t.Value, t.X, t.Y, t.Anchor.ax(), 0.5)
	}
}
