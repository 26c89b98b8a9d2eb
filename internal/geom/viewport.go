package geom

import "golang.org/x/image/math/f32"

// minTileW keeps tiles pickable when zoomed far out.
const minTileW = 2

// Viewport describes the panel a grid is drawn into and the user's pan/zoom.
type Viewport struct {
	X, Y          float32 // top-left of the panel
	Width, Height float32
	PanX, PanY    float32
	Zoom          float32
}

// Fit returns a layout whose tiles fill the viewport at zoom 1 (tile height
// is half the width) and whose grid is centered in the panel, offset by the pan.
func Fit(vp Viewport, mapW, mapH int) Staggered {
	if mapW < 1 {
		mapW = 1
	}
	if mapH < 1 {
		mapH = 1
	}
	panelW := max32(vp.Width, 1)
	panelH := max32(vp.Height, 1)
	zoom := vp.Zoom
	if zoom <= 0 {
		zoom = 1
	}

	widthFactor := float32(mapW)
	if mapH > 1 {
		widthFactor += 0.5
	}
	heightFactor := (float32(mapH) + 1) * 0.5

	base := max32(min32(panelW/widthFactor, panelH*2/heightFactor), 1)
	tileW := max32(base*zoom, minTileW)

	s := Staggered{Tile: TileSize{W: tileW, H: tileW * 0.5}}
	size := s.MapWorldSize(mapW, mapH)
	s.Origin = f32.Vec2{
		vp.X + panelW*0.5 - size[0]*0.5 + vp.PanX,
		vp.Y + panelH*0.5 - size[1]*0.5 + vp.PanY,
	}
	return s
}

func min32(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func max32(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}
