package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlanChunks(t *testing.T) {
	assert.Equal(t, []Chunk{
		{Index: 0, FirstPage: 0, LastPage: 2},
		{Index: 1, FirstPage: 3, LastPage: 5},
		{Index: 2, FirstPage: 6, LastPage: 6},
	}, PlanChunks(7, 3))

	assert.Equal(t, []Chunk{{Index: 0, FirstPage: 0, LastPage: 1}}, PlanChunks(2, 3))
	assert.Len(t, PlanChunks(6, 3), 2)
	assert.Len(t, PlanChunks(7, 0), 3)
	assert.Len(t, PlanChunks(5, 1), 5)
	assert.Empty(t, PlanChunks(0, 3))
}

func TestPlanChunks_CoversEveryPageOnce(t *testing.T) {
	for n := 1; n <= 20; n++ {
		for size := 1; size <= 6; size++ {
			chunks := PlanChunks(n, size)
			assert.Len(t, chunks, (n+size-1)/size)
			next := 0
			for i, c := range chunks {
				assert.Equal(t, i, c.Index)
				assert.Equal(t, next, c.FirstPage)
				assert.LessOrEqual(t, c.LastPage-c.FirstPage+1, size)
				next = c.LastPage + 1
			}
			assert.Equal(t, n, next)
		}
	}
}
