package target

import "image"

// Contour is an ordered outline of a detected shape in frame pixel coordinates.
type Contour []image.Point

// BoundingBox is an axis-aligned rectangle in pixel coordinates.
type BoundingBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// BoundingRect returns the smallest box enclosing every point of the contour.
// Width and height count pixels inclusively, so a single point yields a 1x1 box.
// An empty contour yields the zero box.
func BoundingRect(c Contour) BoundingBox {
	if len(c) == 0 {
		return BoundingBox{}
	}

	minX, minY := c[0].X, c[0].Y
	maxX, maxY := c[0].X, c[0].Y
	for _, p := range c[1:] {
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}

	return BoundingBox{
		X:      minX,
		Y:      minY,
		Width:  maxX - minX + 1,
		Height: maxY - minY + 1,
	}
}

// CenterX is the horizontal pixel center, halved with integer division.
func (b BoundingBox) CenterX() int {
	return b.X + b.Width/2
}

// Rectangle converts the box to an image.Rectangle for drawing.
func (b BoundingBox) Rectangle() image.Rectangle {
	return image.Rect(b.X, b.Y, b.X+b.Width, b.Y+b.Height)
}

// RectContour builds the four-corner contour whose bounding box is exactly {x, y, w, h}.
func RectContour(x, y, w, h int) Contour {
	return Contour{
		image.Pt(x, y),
		image.Pt(x+w-1, y),
		image.Pt(x+w-1, y+h-1),
		image.Pt(x, y+h-1),
	}
}
