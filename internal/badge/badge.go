// Package badge renders attendee credentials: a front with the QR code of
// the badge code and a back with emergency data.
package badge

import (
	"archive/zip"
	"bytes"
	"fmt"
	"image"
	"image/color"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/skip2/go-qrcode"

	"github.com/agfi/registro-backend/internal/model"
)

// Card size in pixels.
const (
	Width  = 600
	Height = 900

	qrSize     = 300
	headerSize = 140
	margin     = 20
)

var (
	background = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	brand      = color.NRGBA{R: 14, G: 50, B: 97, A: 255}
	ink        = color.NRGBA{R: 33, G: 33, B: 33, A: 255}
	muted      = color.NRGBA{R: 110, G: 110, B: 110, A: 255}
	alert      = color.NRGBA{R: 178, G: 34, B: 34, A: 255}
)

// Card is the data printed on a credential.
type Card struct {
	AttendeeID uint64
	Code       string
	Name       string
	Role       string
	Company    string
	Program    string
	Cohort     string

	BloodType      string
	Allergies      string
	EmergencyName  string
	EmergencyPhone string
}

// CardFor builds the card of an attendee profile. code is the badge code
// encoded in the QR, e.g. AGFI-42.
func CardFor(p *model.AttendeeProfile, code string) Card {
	c := Card{
		AttendeeID: p.Attendee.ID,
		Code:       code,
		Name:       p.Person.FullName,
		Company:    deref(p.Person.Company),
		Program:    deref(p.Person.Program),
		Cohort:     deref(p.Attendee.Cohort),
	}
	if p.Role != nil {
		c.Role = string(p.Role.Name)
	}
	if m := p.Medical; m != nil {
		c.BloodType = deref(m.BloodType)
		c.Allergies = deref(m.Allergies)
		c.EmergencyName = deref(m.EmergencyContactName)
		c.EmergencyPhone = deref(m.EmergencyContactPhone)
	}
	return c
}

// Renderer draws cards. The zero value draws cards without a logo.
type Renderer struct {
	logo image.Image
}

// NewRenderer loads the optional logo printed in the header. An empty path
// means no logo.
func NewRenderer(logoPath string) (*Renderer, error) {
	r := &Renderer{}
	if logoPath == "" {
		return r, nil
	}
	img, err := imaging.Open(logoPath)
	if err != nil {
		return nil, fmt.Errorf("open badge logo: %w", err)
	}
	r.logo = imaging.Fit(img, Width-2*margin, headerSize-2*margin, imaging.Lanczos)
	return r, nil
}

// FrontName and BackName are the file names used inside the zip.
func FrontName(attendeeID uint64) string { return fmt.Sprintf("credencial_%d_frente.png", attendeeID) }
func BackName(attendeeID uint64) string  { return fmt.Sprintf("credencial_%d_reverso.png", attendeeID) }

// Front renders the front of the card as PNG.
func (r *Renderer) Front(c Card) ([]byte, error) {
	img := r.canvas()

	y := headerSize + 30
	for _, line := range wrap(c.Name, 24) {
		img = drawText(img, line, y, 3, ink)
		y += 3*lineHeight + 6
	}
	if c.Role != "" {
		img = drawText(img, strings.ToUpper(c.Role), y+4, 2, brand)
		y += 2*lineHeight + 12
	}
	var details []string
	if c.Program != "" {
		details = append(details, c.Program)
	}
	if c.Cohort != "" {
		details = append(details, "Generación "+c.Cohort)
	}
	if len(details) > 0 {
		img = drawText(img, strings.Join(details, " · "), y, 2, muted)
	}
	if c.Company != "" {
		img = drawText(img, c.Company, y+2*lineHeight+8, 2, muted)
	}

	q, err := qrcode.New(c.Code, qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("encode qr %q: %w", c.Code, err)
	}
	qrTop := Height - qrSize - 110
	img = imaging.Overlay(img, q.Image(qrSize), image.Pt((Width-qrSize)/2, qrTop), 1.0)
	img = drawText(img, c.Code, qrTop+qrSize+16, 3, ink)

	return encode(img)
}

// Back renders the back of the card: emergency contact and medical notes
// when present.
func (r *Renderer) Back(c Card) ([]byte, error) {
	img := r.canvas()
	y := headerSize + 30
	img = drawText(img, "EN CASO DE EMERGENCIA", y, 3, alert)
	y += 3*lineHeight + 30

	var lines []string
	if c.EmergencyName != "" {
		lines = append(lines, "Contacto: "+c.EmergencyName)
	}
	if c.EmergencyPhone != "" {
		lines = append(lines, "Teléfono: "+c.EmergencyPhone)
	}
	if c.BloodType != "" {
		lines = append(lines, "Tipo de sangre: "+c.BloodType)
	}
	if c.Allergies != "" {
		lines = append(lines, "Alergias: "+c.Allergies)
	}
	if len(lines) == 0 {
		lines = append(lines, "Sin datos de emergencia registrados.")
	}
	for _, l := range lines {
		for _, part := range wrap(l, 38) {
			img = drawText(img, part, y, 2, ink)
			y += 2*lineHeight + 8
		}
		y += 10
	}

	img = drawText(img, c.Name, Height-90, 2, muted)
	img = drawText(img, c.Code, Height-60, 2, muted)
	return encode(img)
}

// Zip renders both sides and packs them into a zip archive.
func (r *Renderer) Zip(c Card) ([]byte, error) {
	front, err := r.Front(c)
	if err != nil {
		return nil, err
	}
	back, err := r.Back(c)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, f := range []struct {
		name string
		data []byte
	}{
		{FrontName(c.AttendeeID), front},
		{BackName(c.AttendeeID), back},
	} {
		w, err := zw.Create(f.name)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write(f.data); err != nil {
			return nil, err
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// canvas returns a blank card with the header band and the logo.
func (r *Renderer) canvas() *image.NRGBA {
	img := imaging.New(Width, Height, background)
	band := imaging.New(Width, headerSize, brand)
	img = imaging.Paste(img, band, image.Pt(0, 0))
	if r.logo != nil {
		b := r.logo.Bounds()
		img = imaging.Overlay(img, r.logo, image.Pt((Width-b.Dx())/2, (headerSize-b.Dy())/2), 1.0)
	} else {
		img = drawText(img, "AGFI", (headerSize-4*lineHeight)/2, 4, background)
	}
	return img
}

func encode(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// wrap splits s into lines of at most width runes, breaking on spaces.
func wrap(s string, width int) []string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return nil
	}
	var (
		lines []string
		cur   string
	)
	for _, w := range words {
		switch {
		case cur == "":
			cur = w
		case len([]rune(cur))+1+len([]rune(w)) <= width:
			cur += " " + w
		default:
			lines = append(lines, cur)
			cur = w
		}
	}
	return append(lines, cur)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
