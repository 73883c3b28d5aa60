package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDRoundTrip(t *testing.T) {
	id := NewInscriptionID()
	assert.False(t, id.IsNil())

	parsed, err := ParseInscriptionID(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	_, err = ParseInscriptionID("not-a-uuid")
	assert.Error(t, err)
}

func TestIDJSONEncoding(t *testing.T) {
	// Ids must serialize as canonical UUID strings, not byte arrays.
	id := NewEventID()
	b, err := json.Marshal(id)
	require.NoError(t, err)
	assert.Equal(t, `"`+id.String()+`"`, string(b))

	var back EventID
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, id, back)
}

func TestNilID(t *testing.T) {
	var id PaymentID
	assert.True(t, id.IsNil())
	assert.Equal(t, "00000000-0000-0000-0000-000000000000", id.String())
}
