package analysis

import (
	"fmt"
	"strings"

	"github.com/san-kum/latchsim/internal/dynamo"
	"gonum.org/v1/gonum/floats"
)

// Portrait holds two state components of a recorded trajectory.
type Portrait struct {
	XIndex, YIndex int
	X, Y           []float64
}

// NewPortrait pulls components xIdx and yIdx from every recorded state.
func NewPortrait(r *dynamo.Result, xIdx, yIdx int) (*Portrait, error) {
	if len(r.States) == 0 {
		return nil, fmt.Errorf("analysis: empty trajectory")
	}
	if dim := len(r.States[0]); xIdx < 0 || yIdx < 0 || xIdx >= dim || yIdx >= dim {
		return nil, fmt.Errorf("analysis: axes %d,%d out of range for state dimension %d", xIdx, yIdx, dim)
	}
	return &Portrait{
		XIndex: xIdx,
		YIndex: yIdx,
		X:      r.Series(xIdx),
		Y:      r.Series(yIdx),
	}, nil
}

// ASCII renders the portrait on a width×height character grid, with the
// axes drawn where they cross the visible area.
func (p *Portrait) ASCII(width, height int) string {
	if p == nil || len(p.X) == 0 || width < 2 || height < 2 {
		return ""
	}

	minX, maxX := floats.Min(p.X), floats.Max(p.X)
	minY, maxY := floats.Min(p.Y), floats.Max(p.Y)

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}

	col := func(x float64) int { return int((x - minX) / rangeX * float64(width-1)) }
	row := func(y float64) int { return height - 1 - int((y-minY)/rangeY*float64(height-1)) }

	for i := range p.X {
		r, c := row(p.Y[i]), col(p.X[i])
		if r >= 0 && r < height && c >= 0 && c < width {
			canvas[r][c] = '•'
		}
	}

	if minX <= 0 && maxX >= 0 {
		c := col(0)
		for r := 0; r < height; r++ {
			if canvas[r][c] == ' ' {
				canvas[r][c] = '│'
			}
		}
	}
	if minY <= 0 && maxY >= 0 {
		r := row(0)
		for c := 0; c < width; c++ {
			if canvas[r][c] == ' ' {
				canvas[r][c] = '─'
			}
		}
	}

	var sb strings.Builder
	for _, r := range canvas {
		sb.WriteString(string(r))
		sb.WriteRune('\n')
	}
	return sb.String()
}
