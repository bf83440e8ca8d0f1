package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUser_HasValidCode(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	code := "123456"
	future := now.Add(5 * time.Minute)
	past := now.Add(-time.Second)

	u := &User{ResetPasswordCode: &code, ResetPasswordCodeExpiry: &future}
	assert.True(t, u.HasValidCode("123456", now))
	assert.False(t, u.HasValidCode("000000", now))
	assert.False(t, u.HasValidCode("123456", future), "expiry itself is no longer valid")

	u.ResetPasswordCodeExpiry = &past
	assert.False(t, u.HasValidCode("123456", now))

	assert.False(t, (&User{}).HasValidCode("", now), "empty stored code never matches")
}
