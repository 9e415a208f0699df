package board

import "math"

// Cube coordinates for a hex grid: x + y + z = 0 for every cell.
type cube struct {
	x, y, z int
}

func (c cube) distance(o cube) int {
	return (abs(c.x-o.x) + abs(c.y-o.y) + abs(c.z-o.z)) / 2
}

// linedraw returns the cells on the straight line from a to b inclusive.
func linedraw(a, b cube) []cube {
	n := a.distance(b)
	if n == 0 {
		return []cube{a}
	}
	line := make([]cube, 0, n+1)
	for i := 0; i <= n; i++ {
		t := float64(i) / float64(n)
		line = append(line, roundCube(
			lerp(a.x, b.x, t),
			lerp(a.y, b.y, t),
			lerp(a.z, b.z, t),
		))
	}
	return line
}

func lerp(a, b int, t float64) float64 {
	return float64(a) + (float64(b)-float64(a))*t
}

// roundCube rounds fractional cube coordinates to the nearest cell, fixing
// up the component with the largest rounding error so x+y+z stays 0.
func roundCube(fx, fy, fz float64) cube {
	rx, ry, rz := math.Round(fx), math.Round(fy), math.Round(fz)
	dx, dy, dz := math.Abs(rx-fx), math.Abs(ry-fy), math.Abs(rz-fz)
	switch {
	case dx > dy && dx > dz:
		rx = -ry - rz
	case dy > dz:
		ry = -rx - rz
	default:
		rz = -rx - ry
	}
	return cube{int(rx), int(ry), int(rz)}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
