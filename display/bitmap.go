package display

import (
	"image"
	"image/draw"
	"io"

	"golang.org/x/image/bmp"

	"github.com/ezrec/ucvm/cpu"
)

// Bitmap writes each frame as a BMP image.
type Bitmap struct {
	Width  int
	Height int
	Scale  int // Pixel replication factor; 0 is 1.
	Writer io.Writer
}

var _ Display = (*Bitmap)(nil)

func (b *Bitmap) Render(frame []cpu.Color) (err error) {
	img, err := ToImage(frame, b.Width, b.Height)
	if err != nil {
		return
	}

	var out image.Image = img
	if b.Scale > 1 {
		out = scale(img, b.Scale)
	}

	return bmp.Encode(b.Writer, out)
}

// scale replicates each pixel into a factor x factor block.
func scale(img *image.RGBA, factor int) *image.RGBA {
	bounds := img.Bounds()
	scaled := image.NewRGBA(image.Rect(0, 0, bounds.Dx()*factor, bounds.Dy()*factor))
	for y := range bounds.Dy() {
		for x := range bounds.Dx() {
			block := image.Rect(x*factor, y*factor, (x+1)*factor, (y+1)*factor)
			draw.Draw(scaled, block, image.NewUniform(img.At(x, y)), image.Point{}, draw.Src)
		}
	}
	return scaled
}
