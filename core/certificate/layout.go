package certificate

import (
	"bytes"
	"fmt"
	"image/color"
	"strings"
	"text/template"

	"github.com/pkg/errors"
)

// Anchor is the horizontal text anchor of a TextElement, relative to its X coordinate.
type Anchor int

const (
	AnchorCenter Anchor = iota
	AnchorRight
	AnchorLeft
)

func (a Anchor) String() string {
	switch a {
	case AnchorRight:
		return "right"
	case AnchorLeft:
		return "left"
	default:
		return "center"
	}
}

// ax is the gg anchor factor: the text ends at X when right-anchored.
func (a Anchor) ax() float64 {
	switch a {
	case AnchorRight:
		return 1
	case AnchorLeft:
		return 0
	default:
		return 0.5
	}
}

type Rect struct {
	X, Y, W, H float64
}

// TextElement is one line of text drawn on a certificate.
// Text is a text/template executed against Fields; values are not escaped.
// Y is the vertical middle of the line.
type TextElement struct {
	Name   string
	Text   string
	X, Y   float64
	Size   float64 // px
	Bold   bool
	Color  color.NRGBA
	Anchor Anchor
}

// Layout describes a certificate declaratively, independent of the drawing backend.
type Layout struct {
	Width, Height int
	GradientFrom  color.NRGBA // top-left corner
	GradientTo    color.NRGBA // bottom-right corner
	BorderColor   color.NRGBA
	BorderWidth   float64
	BorderInset   float64
	Logo          Rect
	Texts         []TextElement
}

// ResolvedText is a TextElement with its template executed.
type ResolvedText struct {
	TextElement
	Value string
}

func hex(rgb uint32) color.NRGBA {
	return color.NRGBA{R: uint8(rgb >> 16), G: uint8(rgb >> 8), B: uint8(rgb), A: 0xff}
}

// DefaultLayout is the Arab Tech Academy course completion certificate.
func DefaultLayout() Layout {
	return Layout{
		Width:        900,
		Height:       600,
		GradientFrom: hex(0x1e3a8a),
		GradientTo:   hex(0x1d4ed8),
		BorderColor:  hex(0x3b82f6),
		BorderWidth:  3,
		BorderInset:  3,
		Logo:         Rect{X: 740, Y: 20, W: 110, H: 110},
		Texts: []TextElement{
			{Name: "title", Text: "شهادة إتمام", X: 50, Y: 80, Size: 40, Bold: true, Color: hex(0xa5b4fc)},
			{Name: "salutation", Text: "تشهد أكاديمية العرب التقنية بأن", X: 450, Y: 200, Size: 20, Color: hex(0xe0e7ff)},
			{Name: "recipient", Text: "{{.UserName}}", X: 450, Y: 280, Size: 45, Bold: true, Color: hex(0xffffff)},
			{Name: "completion", Text: "قد أتم بنجاح متطلبات", X: 450, Y: 320, Size: 20, Color: hex(0xe0e7ff)},
			{Name: "course", Text: "{{.CourseName}}", X: 450, Y: 360, Size: 26, Bold: true, Color: hex(0xbfdbfe)},
			{Name: "description", Text: "وهي مبادرة تعليمية تهدف إلى تطوير المهارات التقنية في العالم العربي.", X: 450, Y: 400, Size: 18, Color: hex(0xe0e7ff)},
			{Name: "verifyLabel", Text: "رقم التحقق:", X: 50, Y: 480, Size: 16, Color: hex(0x93c5fd), Anchor: AnchorRight},
			{Name: "verifyValue", Text: "{{.IssueDate}}", X: 50, Y: 500, Size: 14, Color: hex(0x93c5fd), Anchor: AnchorRight},
			{Name: "signName", Text: "محمد ال عبية", X: 650, Y: 480, Size: 16, Bold: true, Color: hex(0xffffff)},
			{Name: "signTitle", Text: "مشرف البرنامج", X: 650, Y: 500, Size: 14, Color: hex(0xbfdbfe)},
			{Name: "verifyURL", Text: "للتحقق من صحة هذه الشهادة: {{.ShareLink}}", X: 600, Y: 550, Size: 12, Color: color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 153}},
		},
	}
}

// Resolve executes every text template against f, in drawing order.
func (l Layout) Resolve(f Fields) ([]ResolvedText, error) {
	resolved := make([]ResolvedText, 0, len(l.Texts))
	for _, el := range l.Texts {
		tmpl, err := template.New(el.Name).Option("missingkey=error").Parse(el.Text)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing %q text", el.Name)
		}
		var buff bytes.Buffer
		if err := tmpl.Execute(&buff, f); err != nil {
			return nil, errors.Wrapf(err, "executing %q text", el.Name)
		}
		resolved = append(resolved, ResolvedText{TextElement: el, Value: buff.String()})
	}
	return resolved, nil
}

// Snapshot renders the resolved layout as text, one line per drawing step.
func (l Layout) Snapshot(f Fields) (string, error) {
	texts, err := l.Resolve(f)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "surface %dx%d\n", l.Width, l.Height)
	fmt.Fprintf(&b, "gradient %s -> %s\n", hexString(l.GradientFrom), hexString(l.GradientTo))
	fmt.Fprintf(&b, "border %s width=%g inset=%g\n", hexString(l.BorderColor), l.BorderWidth, l.BorderInset)
	fmt.Fprintf(&b, "logo x=%g y=%g w=%g h=%g\n", l.Logo.X, l.Logo.Y, l.Logo.W, l.Logo.H)
	for i, t := range texts {
		fmt.Fprintf(&b, "%02d %s x=%g y=%g size=%g bold=%t anchor=%s color=%s text=%q\n",
			i+1, t.Name, t.X, t.Y, t.Size, t.Bold, t.Anchor, hexString(t.Color), t.Value)
	}
	return b.String(), nil
}

func hexString(c color.NRGBA) string {
	return fmt.Sprintf("#%02x%02x%02x%02x", c.R, c.G, c.B, c.A)
}
