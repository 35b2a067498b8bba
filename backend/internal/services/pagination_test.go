package services

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePage(t *testing.T) {
	tests := []struct {
		name                  string
		page, perPage, max    int
		wantPage, wantPerPage int
	}{
		{"defaults", 0, 0, 0, 1, DefaultPerPage},
		{"negative", -3, -1, MaxItemsPerPage, 1, DefaultPerPage},
		{"uncapped", 2, 500, 0, 2, 500},
		{"capped", 2, 500, MaxItemsPerPage, 2, MaxItemsPerPage},
		{"within cap", 4, 25, MaxItemsPerPage, 4, 25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, perPage := normalizePage(tt.page, tt.perPage, tt.max)
			assert.Equal(t, tt.wantPage, page)
			assert.Equal(t, tt.wantPerPage, perPage)
		})
	}
}

func TestNewPage(t *testing.T) {
	assert.Equal(t, Page{Total: 0, Page: 1, Pages: 0, PerPage: 10}, newPage(0, 1, 10))
	assert.Equal(t, Page{Total: 10, Page: 1, Pages: 1, PerPage: 10}, newPage(10, 1, 10))
	assert.Equal(t, Page{Total: 25, Page: 3, Pages: 3, PerPage: 10}, newPage(25, 3, 10))
	assert.Equal(t, 20, offset(3, 10))
}

func TestNewPage_LargeValues(t *testing.T) {
	p := newPage(2, 1, math.MaxInt)
	assert.Equal(t, 1, p.Pages)
	assert.False(t, p.pastEnd())

	p = newPage(25, 922337203685477582, 10)
	assert.Equal(t, 3, p.Pages)
	assert.True(t, p.pastEnd())

	assert.True(t, newPage(0, 1, 10).pastEnd())
}

func TestOffset_Saturates(t *testing.T) {
	assert.Equal(t, 0, offset(1, math.MaxInt))
	assert.Equal(t, math.MaxInt, offset(922337203685477582, 10))
	assert.Equal(t, math.MaxInt, offset(math.MaxInt, math.MaxInt))
	assert.Equal(t, 90, offset(10, 10))
}
