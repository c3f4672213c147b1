// Package render rasterizes datasets and tree node boxes to PNG images for
// visual debugging of a built index.
package render

import (
	"image"
	"image/color"
	"image/png"
	"os"

	"github.com/geotoolbox/geotree/geom"
)

// Common colors.
var (
	White = color.RGBA{0xff, 0xff, 0xff, 0xff}
	Black = color.RGBA{0x00, 0x00, 0x00, 0xff}
	Red   = color.RGBA{0xcc, 0x22, 0x22, 0xff}
	Green = color.RGBA{0x22, 0x99, 0x22, 0xff}
	Blue  = color.RGBA{0x22, 0x44, 0xcc, 0xff}
	Gray  = color.RGBA{0xbb, 0xbb, 0xbb, 0xff}
)

// Image is a fixed-size raster with world-to-pixel mapping.
type Image struct {
	img   *image.RGBA
	world geom.Rect
	scale [2]float64
}

// New creates a white image of the given pixel size mapping the world rect
// onto it. The Y axis points up in world space and down in the raster.
func New(width, height int, world geom.Rect) *Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	m := &Image{img: img, world: world}
	m.scale[0] = float64(width-1) / span(world.Size(0))
	m.scale[1] = float64(height-1) / span(world.Size(1))
	m.Fill(White)
	return m
}

func span(v float64) float64 {
	if v <= 0 {
		return 1
	}
	return v
}

// Fill paints the whole image with one color.
func (m *Image) Fill(c color.RGBA) {
	b := m.img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			m.img.SetRGBA(x, y, c)
		}
	}
}

func (m *Image) pixel(p geom.Point) (int, int) {
	x := int((p[0]-m.world.Min[0])*m.scale[0] + 0.5)
	y := m.img.Bounds().Max.Y - 1 - int((p[1]-m.world.Min[1])*m.scale[1]+0.5)
	return x, y
}

func (m *Image) set(x, y int, c color.RGBA) {
	if image.Pt(x, y).In(m.img.Bounds()) {
		m.img.SetRGBA(x, y, c)
	}
}

// DrawPoint paints the pixel nearest to the world point p.
func (m *Image) DrawPoint(p geom.Point, c color.RGBA) {
	x, y := m.pixel(p)
	m.set(x, y, c)
}

// DrawHorizontal paints a horizontal line at world height y from left to
// right.
func (m *Image) DrawHorizontal(y, left, right float64, c color.RGBA) {
	x0, py := m.pixel(geom.P(left, y))
	x1, _ := m.pixel(geom.P(right, y))
	for x := x0; x <= x1; x++ {
		m.set(x, py, c)
	}
}

// DrawVertical paints a vertical line at world x from bottom to top.
func (m *Image) DrawVertical(x, bottom, top float64, c color.RGBA) {
	px, y0 := m.pixel(geom.P(x, top))
	_, y1 := m.pixel(geom.P(x, bottom))
	for y := y0; y <= y1; y++ {
		m.set(px, y, c)
	}
}

// DrawRect outlines a world rect.
func (m *Image) DrawRect(r geom.Rect, c color.RGBA) {
	if r.IsEmpty() {
		return
	}
	m.DrawHorizontal(r.Min[1], r.Min[0], r.Max[0], c)
	m.DrawHorizontal(r.Max[1], r.Min[0], r.Max[0], c)
	m.DrawVertical(r.Min[0], r.Min[1], r.Max[1], c)
	m.DrawVertical(r.Max[0], r.Min[1], r.Max[1], c)
}

// Boxes outlines a set of world rects, typically node boxes of a built
// tree.
func (m *Image) Boxes(rects []geom.Rect, c color.RGBA) {
	for _, r := range rects {
		m.DrawRect(r, c)
	}
}

// At returns the color at pixel (x, y).
func (m *Image) At(x, y int) color.RGBA {
	return m.img.RGBAAt(x, y)
}

// Encode writes the image as PNG.
func (m *Image) Encode(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, m.img)
}
