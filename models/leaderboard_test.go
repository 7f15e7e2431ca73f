package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMedalPoints(t *testing.T) {
	assert.Equal(t, 5, MedalGold.Points())
	assert.Equal(t, 3, MedalSilver.Points())
	assert.Equal(t, 1, MedalBronze.Points())
	assert.Equal(t, 0, Medal("tin").Points())
}

func TestMedalValid(t *testing.T) {
	assert.True(t, MedalGold.Valid())
	assert.True(t, MedalSilver.Valid())
	assert.True(t, MedalBronze.Valid())
	assert.False(t, Medal("").Valid())
	assert.False(t, Medal("platinum").Valid())
}
