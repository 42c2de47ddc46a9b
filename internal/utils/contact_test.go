package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeContact(t *testing.T) {
	assert.Equal(t, "ada.obi@example.com", NormalizeEmail("  Ada.Obi@Example.com "))
	assert.Equal(t, "+2348012345678", NormalizePhone(" +234 (801) 234-5678 "))
	assert.Equal(t, "08012345678", NormalizePhone("0801-234-5678"))
}

func TestMaskContact(t *testing.T) {
	assert.Equal(t, "a*a@example.com", MaskEmail("ada@example.com"))
	assert.Equal(t, "al@example.com", MaskEmail("al@example.com"))
	assert.Equal(t, "not-an-email", MaskEmail("not-an-email"))
	assert.Equal(t, "*******5678", MaskPhone("08012345678"))
	assert.Equal(t, "123", MaskPhone("123"))
}
