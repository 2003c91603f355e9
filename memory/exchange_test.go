package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractPlants(t *testing.T) {
	plants := ExtractPlants("My tomatoes and Basil are doing great, unlike the orchid")
	assert.Equal(t, []string{"tomato", "basil", "orchid"}, plants)

	assert.Empty(t, ExtractPlants("nothing green here"))
}

func TestNewExchangeMinesBothSides(t *testing.T) {
	ex := NewExchange("alice", "how is my rose?", "Your rose looks fine; the cactus too.")
	assert.Equal(t, "alice", ex.UserID)
	assert.NotEmpty(t, ex.ID)
	assert.Equal(t, []string{"rose", "cactus"}, ex.Plants)
}

func TestExchangeFormatTruncatesLongAnswers(t *testing.T) {
	long := make([]byte, 500)
	for i := range long {
		long[i] = 'x'
	}
	ex := NewExchange("alice", "q", string(long))
	formatted := ex.Format()
	assert.Contains(t, formatted, "...")
	assert.Less(t, len(formatted), 450)
}
