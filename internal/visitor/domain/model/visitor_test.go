package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatus_Valid(t *testing.T) {
	for _, s := range Statuses {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, Status("lost").Valid())
	assert.False(t, Status("").Valid())
}

func TestStorageSnapshot_Normalize(t *testing.T) {
	s := StorageSnapshot{Cookies: map[string]string{"a": "1"}}.Normalize()
	assert.Equal(t, map[string]string{"a": "1"}, s.Cookies)
	assert.NotNil(t, s.LocalStorage)
	assert.NotNil(t, s.SessionStorage)
	assert.Empty(t, s.LocalStorage)
}

func TestLocation_IsZero(t *testing.T) {
	var nilLoc *Location
	assert.True(t, nilLoc.IsZero())
	assert.True(t, (&Location{}).IsZero())
	assert.False(t, (&Location{Country: "DE"}).IsZero())
}
