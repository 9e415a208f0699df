package board

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCubeDistance(t *testing.T) {
	origin := cube{0, 0, 0}
	assert.Equal(t, 0, origin.distance(origin))
	assert.Equal(t, 1, origin.distance(cube{1, -1, 0}))
	assert.Equal(t, 1, origin.distance(cube{0, 1, -1}))
	assert.Equal(t, 4, origin.distance(cube{4, -4, 0}))
	assert.Equal(t, 3, origin.distance(cube{2, -3, 1}))
	// symmetric
	assert.Equal(t, cube{2, -3, 1}.distance(origin), origin.distance(cube{2, -3, 1}))
}

func TestLinedrawStraight(t *testing.T) {
	line := linedraw(cube{0, 0, 0}, cube{3, -3, 0})
	assert.Equal(t, []cube{{0, 0, 0}, {1, -1, 0}, {2, -2, 0}, {3, -3, 0}}, line)
}

func TestLinedrawSameCell(t *testing.T) {
	line := linedraw(cube{1, -1, 0}, cube{1, -1, 0})
	assert.Equal(t, []cube{{1, -1, 0}}, line)
}

func TestLinedrawStepsAreAdjacent(t *testing.T) {
	a, b := cube{0, 0, 0}, cube{3, -5, 2}
	line := linedraw(a, b)
	assert.Equal(t, a, line[0])
	assert.Equal(t, b, line[len(line)-1])
	assert.Len(t, line, a.distance(b)+1)
	for i := 1; i < len(line); i++ {
		assert.Equal(t, 1, line[i-1].distance(line[i]), "step %d", i)
	}
}

func TestRoundCubeKeepsInvariant(t *testing.T) {
	for _, c := range []cube{
		roundCube(0.4, -0.4, 0.0),
		roundCube(1.6, -2.4, 0.8),
		roundCube(-0.5, 0.1, 0.4),
	} {
		assert.Equal(t, 0, c.x+c.y+c.z)
	}
}
