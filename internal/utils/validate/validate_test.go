package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type sample struct {
	Email string `validate:"required"`
	Code  string `validate:"required"`
}

func TestStruct(t *testing.T) {
	assert.NoError(t, Struct(&sample{Email: "a@b.c", Code: "1"}))

	err := Struct(&sample{Email: "a@b.c"})
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "field 'Code' failed 'required'")
	}
}

type presence struct {
	Email *string `validate:"required"`
}

func TestStruct_PointerRequiresKeyOnly(t *testing.T) {
	empty := ""
	assert.NoError(t, Struct(&presence{Email: &empty}))
	assert.Error(t, Struct(&presence{}))
}
