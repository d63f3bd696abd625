package layout

import (
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
)

// Blend crops img to fill w x h pixels and fades it into bg towards the
// edges. Opacity rises linearly from 0 at the border to 1 at feather pixels
// in, so border pixels are exactly bg.
func Blend(img image.Image, bg colorful.Color, w, h, feather int) *image.NRGBA {
	fitted := imaging.Fill(img, w, h, imaging.Center, imaging.Lanczos)
	bg = bg.Clamped()
	br, bgG, bb := bg.RGB255()
	out := imaging.New(w, h, color.NRGBA{R: br, G: bgG, B: bb, A: 255})
	if feather < 1 {
		feather = 1
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			d := min(x, y, w-1-x, h-1-y)
			a := math.Min(1, float64(d)/float64(feather))
			if a == 0 {
				continue
			}

			i := fitted.PixOffset(x, y)
			px := fitted.Pix[i : i+4 : i+4]
			if px[3] == 0 {
				continue
			}
			a *= float64(px[3]) / 255
			src := colorful.Color{
				R: float64(px[0]) / 255,
				G: float64(px[1]) / 255,
				B: float64(px[2]) / 255,
			}
			r, g, b := bg.BlendRgb(src, a).Clamped().RGB255()

			o := out.PixOffset(x, y)
			out.Pix[o+0] = r
			out.Pix[o+1] = g
			out.Pix[o+2] = b
			out.Pix[o+3] = 255
		}
	}
	return out
}

// FeatherFor returns the fade width for a w x h image
func FeatherFor(w, h int) int {
	return int(math.Max(1, math.Round(float64(min(w, h))*0.18)))
}
