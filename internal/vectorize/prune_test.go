package vectorize

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArity(t *testing.T) {
	mls := orb.MultiLineString{
		{{0, 0}, {5, 0}},
		{{5, 0}, {10, 0}},
		{{5, 0}, {5, 2}, {5, 4}},
		{{20, 0}, {21, 0}, {21, 1}, {20, 0}},
		{},
	}

	arity := Arity(mls)

	assert.Equal(t, 1, arity[orb.Point{0, 0}])
	assert.Equal(t, 3, arity[orb.Point{5, 0}])
	assert.Equal(t, 2, arity[orb.Point{20, 0}], "closed lines count twice")
	_, interior := arity[orb.Point{5, 2}]
	assert.False(t, interior, "interior vertices are not counted")
}

func TestPruneHairs_IsolatedShortLine(t *testing.T) {
	mls := orb.MultiLineString{{{0, 0}, {4, 0}}}

	assert.Empty(t, PruneHairs(mls, 10))
	assert.Equal(t, mls, PruneHairs(mls, 3))
}

func TestPruneHairs_Disabled(t *testing.T) {
	mls := orb.MultiLineString{{{0, 0}, {1, 0}}}

	assert.Equal(t, mls, PruneHairs(mls, 0))
	assert.Equal(t, mls, PruneHairs(mls, -1))
}

func TestPruneHairs_Stub(t *testing.T) {
	mls := orb.MultiLineString{
		{{0, 0}, {-10, 0}},
		{{0, 0}, {10, 0}},
		{{0, 0}, {0, 2}},
	}

	got := PruneHairs(mls, 5)

	require.Len(t, got, 2)
	assert.Equal(t, mls[:2], got)
}

func TestPruneHairs_KeepsShortLinksBetweenJunctions(t *testing.T) {
	// The middle link is short but both ends are junctions.
	mls := orb.MultiLineString{
		{{0, 0}, {0, 1}},
		{{0, 0}, {-10, 0}},
		{{0, 0}, {0, -10}},
		{{0, 1}, {10, 1}},
		{{0, 1}, {0, 11}},
	}

	got := PruneHairs(mls, 5)

	assert.Equal(t, mls, got)
}

func TestPruneHairs_KeepsShortClosedRing(t *testing.T) {
	mls := orb.MultiLineString{{{0, 0}, {1, 0}, {1, 1}, {0, 0}}}

	assert.Equal(t, mls, PruneHairs(mls, 100))
}

func TestPruneHairs_Idempotent(t *testing.T) {
	mls := orb.MultiLineString{
		{{0, 0}, {-10, 0}},
		{{0, 0}, {10, 0}},
		{{0, 0}, {0, 2}},
		{{30, 30}, {31, 30}},
		{{50, 0}, {60, 0}, {70, 5}},
	}

	once := PruneHairs(mls, 5)
	twice := PruneHairs(once, 5)

	// Removing the stub turns the two arms into one dead-end pair, but
	// both arms are long enough to survive the second pass.
	assert.Equal(t, once, twice)
}

func TestPruneHairs_SinglePass(t *testing.T) {
	// Both stubs at (3,0) go, which leaves the short link (0,0)-(3,0) as a
	// new dead end. It is not re-examined within the same call.
	mls := orb.MultiLineString{
		{{0, 0}, {-20, 0}},
		{{0, 0}, {3, 0}},
		{{3, 0}, {3, 1}},
		{{3, 0}, {3, -1}},
		{{0, 0}, {0, 20}},
	}

	once := PruneHairs(mls, 5)
	require.Len(t, once, 3)
	assert.Contains(t, once, mls[1])

	twice := PruneHairs(once, 5)
	assert.Len(t, twice, 2)
	assert.NotContains(t, twice, mls[1])
}
