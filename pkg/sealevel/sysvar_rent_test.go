package sealevel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSysvarRent_MinimumBalance(t *testing.T) {
	var rent SysvarRent
	rent.LamportsPerUint8Year = 3480
	rent.ExemptionThreshold = 2.0
	rent.BurnPercent = 50

	// (128 overhead + dataLen) * lamports_per_byte_year * threshold
	assert.Equal(t, uint64(128*3480*2), rent.MinimumBalance(0))
	assert.Equal(t, uint64((128+56)*3480*2), rent.MinimumBalance(56))
}

func TestSysvarRent_IsExempt(t *testing.T) {
	var rent SysvarRent
	rent.LamportsPerUint8Year = 1
	rent.ExemptionThreshold = 1.0
	rent.BurnPercent = 0

	min := rent.MinimumBalance(56)
	assert.Equal(t, uint64(184), min)

	assert.True(t, rent.IsExempt(min, 56))
	assert.True(t, rent.IsExempt(min+1, 56))
	assert.False(t, rent.IsExempt(min-1, 56))
}
