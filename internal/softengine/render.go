package softengine

import (
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	textMarginX = 8
	lineHeight  = 16
)

// rasterize paints the view's document model into a BGRA buffer and
// hands it to the surface.
func rasterize(doc *document, width, height int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(doc.Background), image.Point{}, draw.Src)

	fg := contrastColor(doc.Background)
	drawer := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(fg),
		Face: basicfont.Face7x13,
	}

	y := lineHeight
	lines := doc.Text
	if doc.Title != "" {
		lines = append([]string{doc.Title}, lines...)
	}
	for _, line := range lines {
		if y > height-4 {
			break
		}
		drawer.Dot = fixed.P(textMarginX, y)
		drawer.DrawString(line)
		y += lineHeight
	}

	return rgbaToBGRA(img)
}

// rgbaToBGRA converts an image.RGBA buffer to the BGRA layout the
// surface exposes to callers.
func rgbaToBGRA(img *image.RGBA) []byte {
	out := make([]byte, len(img.Pix))
	for i := 0; i+3 < len(img.Pix); i += 4 {
		out[i+0] = img.Pix[i+2]
		out[i+1] = img.Pix[i+1]
		out[i+2] = img.Pix[i+0]
		out[i+3] = img.Pix[i+3]
	}
	return out
}

// contrastColor picks black or white text depending on background
// luminance.
func contrastColor(bg color.RGBA) color.RGBA {
	lum := 299*int(bg.R) + 587*int(bg.G) + 114*int(bg.B)
	if lum > 128*1000 {
		return color.RGBA{0x00, 0x00, 0x00, 0xff}
	}
	return color.RGBA{0xff, 0xff, 0xff, 0xff}
}
