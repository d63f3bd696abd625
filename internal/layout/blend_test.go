package layout

import (
	"image/color"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/arcanaland/cardforge/internal/card"
)

func TestBlend_BorderMatchesBackground(t *testing.T) {
	src := imaging.New(50, 40, color.NRGBA{R: 10, G: 200, B: 30, A: 255})
	bg := card.MustHex("#e8eef5")
	br, bgG, bb := bg.RGB255()

	out := Blend(src, bg, 60, 30, 8)
	if b := out.Bounds(); b.Dx() != 60 || b.Dy() != 30 {
		t.Fatalf("bounds = %v, want 60x30", b)
	}

	check := func(x, y int) {
		c := out.NRGBAAt(x, y)
		if c.R != br || c.G != bgG || c.B != bb || c.A != 255 {
			t.Errorf("pixel (%d,%d) = %v, want background %d,%d,%d", x, y, c, br, bgG, bb)
		}
	}
	for x := 0; x < 60; x++ {
		check(x, 0)
		check(x, 29)
	}
	for y := 0; y < 30; y++ {
		check(0, y)
		check(59, y)
	}
}

func TestBlend_CentreKeepsImage(t *testing.T) {
	src := imaging.New(50, 50, color.NRGBA{R: 10, G: 200, B: 30, A: 255})
	out := Blend(src, card.MustHex("#ffffff"), 50, 50, 5)

	c := out.NRGBAAt(25, 25)
	if c.R != 10 || c.G != 200 || c.B != 30 {
		t.Errorf("centre pixel = %v, want the source colour", c)
	}

	// Opacity rises towards the centre
	edge := out.NRGBAAt(1, 25)
	mid := out.NRGBAAt(3, 25)
	if !(edge.G < 255 && edge.R > mid.R) {
		t.Errorf("expected a gradient: edge=%v mid=%v", edge, mid)
	}
}

func TestBlend_TransparentPixelsShowBackground(t *testing.T) {
	src := imaging.New(20, 20, color.NRGBA{})
	bg := card.MustHex("#123456")
	out := Blend(src, bg, 20, 20, 2)
	r, g, b := bg.RGB255()
	if c := out.NRGBAAt(10, 10); c.R != r || c.G != g || c.B != b {
		t.Errorf("pixel = %v, want background", c)
	}
}

func TestFeatherFor(t *testing.T) {
	if got := FeatherFor(600, 100); got != 18 {
		t.Errorf("FeatherFor(600, 100) = %d, want 18", got)
	}
	if got := FeatherFor(2, 2); got != 1 {
		t.Errorf("FeatherFor(2, 2) = %d, want 1", got)
	}
}
