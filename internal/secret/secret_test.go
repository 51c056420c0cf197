package secret

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMustNew(t *testing.T) {
	raw, sum := MustNew(20)
	assert.Len(t, raw, 40)
	assert.Equal(t, sum, Hash(raw))

	other, _ := MustNew(20)
	assert.NotEqual(t, raw, other)
}
