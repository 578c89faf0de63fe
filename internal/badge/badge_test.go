package badge

import (
	"archive/zip"
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agfi/registro-backend/internal/model"
)

func sampleCard() Card {
	return Card{
		AttendeeID:     42,
		Code:           "AGFI-42",
		Name:           "María Fernanda Álvarez de la Torre",
		Role:           "ingeniero",
		Company:        "Geofísica del Norte",
		Program:        "Ingeniería Geofísica",
		Cohort:         "2012",
		BloodType:      "O+",
		EmergencyName:  "José Álvarez",
		EmergencyPhone: "5512345678",
	}
}

func decode(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img
}

func TestFront(t *testing.T) {
	r, err := NewRenderer("")
	require.NoError(t, err)

	data, err := r.Front(sampleCard())
	require.NoError(t, err)
	img := decode(t, data)
	assert.Equal(t, image.Rect(0, 0, Width, Height), img.Bounds())

	// The QR area holds dark modules.
	dark := 0
	qrTop := Height - qrSize - 110
	for y := qrTop; y < qrTop+qrSize; y += 5 {
		for x := (Width - qrSize) / 2; x < (Width+qrSize)/2; x += 5 {
			if cr, _, _, _ := img.At(x, y).RGBA(); cr < 0x4000 {
				dark++
			}
		}
	}
	assert.Greater(t, dark, 100)
}

func TestBack_WithoutMedicalData(t *testing.T) {
	c := sampleCard()
	c.BloodType, c.EmergencyName, c.EmergencyPhone = "", "", ""

	data, err := (&Renderer{}).Back(c)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, Width, Height), decode(t, data).Bounds())
}

func TestZip(t *testing.T) {
	data, err := (&Renderer{}).Zip(sampleCard())
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)
	assert.Equal(t, "credencial_42_frente.png", zr.File[0].Name)
	assert.Equal(t, "credencial_42_reverso.png", zr.File[1].Name)

	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		body, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		decode(t, body)
	}
}

func TestNewRenderer_Logo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logo.png")
	require.NoError(t, imaging.Save(imaging.New(800, 200, color.NRGBA{R: 255, A: 255}), path))

	r, err := NewRenderer(path)
	require.NoError(t, err)
	require.NotNil(t, r.logo)
	assert.LessOrEqual(t, r.logo.Bounds().Dy(), headerSize-2*margin)

	data, err := r.Front(sampleCard())
	require.NoError(t, err)
	pr, pg, _, _ := decode(t, data).At(Width/2, headerSize/2).RGBA()
	assert.Greater(t, pr, uint32(0xf000))
	assert.Less(t, pg, uint32(0x1000))

	_, err = NewRenderer(filepath.Join(t.TempDir(), "missing.png"))
	assert.Error(t, err)
}

func TestCardFor(t *testing.T) {
	company, cohort, blood := "Pemex", "2015", "AB-"
	prof := &model.AttendeeProfile{
		Person:   model.Person{ID: 7, FullName: "Luis Mora", Company: &company},
		Attendee: model.Attendee{ID: 7, Cohort: &cohort},
		Role:     &model.Role{Name: model.RoleStudent},
		Medical:  &model.Medical{AttendeeID: 7, BloodType: &blood},
	}
	c := CardFor(prof, "AGFI-7")
	assert.Equal(t, uint64(7), c.AttendeeID)
	assert.Equal(t, "AGFI-7", c.Code)
	assert.Equal(t, "estudiante", c.Role)
	assert.Equal(t, "Pemex", c.Company)
	assert.Equal(t, "2015", c.Cohort)
	assert.Equal(t, "AB-", c.BloodType)
	assert.Empty(t, c.Program)
}

func TestWrap(t *testing.T) {
	assert.Equal(t, []string{"uno dos", "tres"}, wrap("uno  dos tres", 8))
	assert.Equal(t, []string{"palabramuylarga"}, wrap("palabramuylarga", 5))
	assert.Nil(t, wrap("   ", 10))
}
