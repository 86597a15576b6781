package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery", hash)

	assert.True(t, CheckPassword("correct horse battery", hash))
	assert.False(t, CheckPassword("wrong horse battery", hash))
	assert.False(t, CheckPassword("correct horse battery", ""))
}

func TestBurnPasswordCheck(t *testing.T) {
	burnPasswordCheck("anything")
	assert.NotEmpty(t, dummyHash)
}
