package pdfinfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsPDF(t *testing.T) {
	assert.True(t, IsPDF([]byte("%PDF-1.7\n...")))
	assert.False(t, IsPDF([]byte("PK\x03\x04")))
	assert.False(t, IsPDF(nil))
}

func TestPageCountRejectsGarbage(t *testing.T) {
	_, err := PageCount(nil)
	assert.Error(t, err)

	_, err = PageCount([]byte("definitely not a pdf"))
	assert.Error(t, err)
}
