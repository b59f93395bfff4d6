package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunk(t *testing.T) {
	assert.Nil(t, Chunk([]int{}, 3))
	assert.Equal(t, [][]int{{1, 2}}, Chunk([]int{1, 2}, 3))
	assert.Equal(t, [][]int{{1, 2, 3}, {4, 5, 6}, {7}}, Chunk([]int{1, 2, 3, 4, 5, 6, 7}, 3))
	assert.Equal(t, [][]int{{1, 2, 3}}, Chunk([]int{1, 2, 3}, 0))
}
