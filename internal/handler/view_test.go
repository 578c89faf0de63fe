package handler

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexID(t *testing.T) {
	cases := map[string]uint64{`12`: 12, `"12"`: 12, `null`: 0, `""`: 0}
	for in, want := range cases {
		var v struct {
			ID flexID `json:"id"`
		}
		require.NoError(t, json.Unmarshal([]byte(`{"id":`+in+`}`), &v), in)
		assert.EqualValues(t, want, v.ID, in)
	}

	var v struct {
		ID flexID `json:"id"`
	}
	assert.Error(t, json.Unmarshal([]byte(`{"id":"doce"}`), &v))
	assert.Error(t, json.Unmarshal([]byte(`{"id":-1}`), &v))
}

func TestValidator_Messages(t *testing.T) {
	v := NewValidator()

	err := v.Validate(&rsvpBody{Asistencia: strPtr("SI")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "asistencia")

	neg := -1
	err = v.Validate(&rsvpBody{Invitados: &neg})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invitados debe ser mayor o igual a 0")

	err = v.Validate(&eventBody{Fecha: "mañana"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AAAA-MM-DD")

	assert.NoError(t, v.Validate(&rsvpBody{Asistencia: strPtr("tal_vez")}))
	assert.NoError(t, v.Validate(&eventBody{}))
}

func TestParseID(t *testing.T) {
	assert.EqualValues(t, 7, parseID("7"))
	assert.Zero(t, parseID(""))
	assert.Zero(t, parseID("7a"))
	assert.Zero(t, parseID("-3"))
}

func strPtr(s string) *string { return &s }
