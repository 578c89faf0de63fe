package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/agfi/registro-backend/internal/service"
)

func TestDecodeCode(t *testing.T) {
	cases := []struct {
		raw  string
		id   uint64
		ok   bool
		name string
	}{
		{name: "prefixed", raw: "AGFI-42", id: 42, ok: true},
		{name: "lower case prefix", raw: "agfi-7", id: 7, ok: true},
		{name: "surrounding spaces", raw: "  AGFI-15 \n", id: 15, ok: true},
		{name: "bare number", raw: "123", id: 123, ok: true},
		{name: "empty", raw: "", ok: false},
		{name: "prefix only", raw: "AGFI-", ok: false},
		{name: "not numeric", raw: "AGFI-abc", ok: false},
		{name: "negative", raw: "-5", ok: false},
		{name: "zero", raw: "0", ok: false},
		{name: "other prefix", raw: "XYZ-9", ok: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			id, ok := service.DecodeCode(tc.raw, service.DefaultBadgePrefix)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, tc.id, id)
			}
		})
	}
}

func TestBadgeCode(t *testing.T) {
	assert.Equal(t, "AGFI-42", service.BadgeCode("AGFI", 42))

	id, ok := service.DecodeCode(service.BadgeCode("CONF", 9), "conf")
	assert.True(t, ok)
	assert.Equal(t, uint64(9), id)
}

func TestParseBool(t *testing.T) {
	for _, v := range []string{"1", "true", "T", "sí", "SI", "yes", " y "} {
		b, ok := service.ParseBool(v)
		assert.True(t, ok, v)
		assert.True(t, b, v)
	}
	for _, v := range []string{"0", "false", "F", "no", "N"} {
		b, ok := service.ParseBool(v)
		assert.True(t, ok, v)
		assert.False(t, b, v)
	}
	for _, v := range []string{"", "quizá", "2"} {
		_, ok := service.ParseBool(v)
		assert.False(t, ok, v)
	}
}
