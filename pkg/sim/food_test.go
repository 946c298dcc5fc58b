package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testFood(id string, x, y int, amount float64) *FoodSource {
	return &FoodSource{ID: id, X: x, Y: y, Radius: 3, Amount: amount, MaxAmount: amount}
}

func TestDetectSortsByDistanceAndSkipsConsumed(t *testing.T) {
	far := testFood("far", 0, 10, 100)
	near := testFood("near", 0, 4, 100)
	gone := testFood("gone", 0, 1, 100)
	gone.Consumed = true

	fs := NewFoodStore([]*FoodSource{far, near, gone}, false, 0)

	hits := fs.Detect(0, 0, 20)
	require.Len(t, hits, 2)
	assert.Equal(t, "near", hits[0].Source.ID)
	assert.Equal(t, "far", hits[1].Source.ID)
	assert.Equal(t, 4.0, hits[0].Distance)

	assert.Empty(t, fs.Detect(0, 0, 3), "nothing unconsumed within 3 cells")
}

func TestConsumeBiteScalesWithDistance(t *testing.T) {
	fs := NewFoodStore([]*FoodSource{testFood("f", 0, 0, 100)}, false, 0)

	// At the center the bite is rate * (1 - 0/5) = rate.
	src, bite := fs.Consume(0, 0, 1.0)
	require.NotNil(t, src)
	assert.InDelta(t, 1.0, bite, 1e-12)

	// At distance 4 (inside radius+1) the bite is rate * (1 - 4/5).
	_, edgeBite := fs.Consume(0, 4, 1.0)
	assert.InDelta(t, 0.2, edgeBite, 1e-12)

	// Outside radius+1 nothing happens.
	src, bite = fs.Consume(0, 5, 1.0)
	assert.Nil(t, src)
	assert.Zero(t, bite)
}

func TestConsumeIsFirstMatchNotNearest(t *testing.T) {
	first := testFood("first", 0, 3, 100)
	nearest := testFood("nearest", 0, 0, 100)
	fs := NewFoodStore([]*FoodSource{first, nearest}, false, 0)

	src, _ := fs.Consume(0, 0, 1.0)
	require.NotNil(t, src)
	assert.Equal(t, "first", src.ID, "list order wins over proximity")
}

func TestConsumeDepletionIsPermanent(t *testing.T) {
	fs := NewFoodStore([]*FoodSource{testFood("f", 0, 0, 2.5)}, true, 10)

	var total float64
	for i := 0; i < 10; i++ {
		src, bite := fs.Consume(0, 0, 1.0)
		if src == nil {
			break
		}
		total += bite
		assert.GreaterOrEqual(t, src.Amount, 0.0, "amount never goes negative")
	}

	assert.InDelta(t, 2.5, total, 1e-12, "total consumed equals initial amount")

	src := fs.Sources()[0]
	assert.True(t, src.Consumed)
	assert.Zero(t, src.Amount)

	// Regeneration skips consumed sources: depletion is one-way.
	fs.Regenerate()
	assert.True(t, src.Consumed)
	assert.Zero(t, src.Amount)
}

func TestRegenerateCapsAtMax(t *testing.T) {
	src := testFood("f", 0, 0, 100)
	src.Amount = 99.5
	fs := NewFoodStore([]*FoodSource{src}, true, 2)

	fs.Regenerate()
	assert.Equal(t, 100.0, src.Amount)

	fs.Regenerate()
	assert.Equal(t, 100.0, src.Amount)
}

func TestRemaining(t *testing.T) {
	fs := NewFoodStore([]*FoodSource{
		testFood("a", 0, 0, 40),
		testFood("b", 9, 9, 60),
	}, false, 0)

	assert.Equal(t, 100.0, fs.Remaining())

	fs.Consume(0, 0, 1.0)
	assert.InDelta(t, 99.0, fs.Remaining(), 1e-12)
}
