package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate(" 2024-02-29 ")
	require.NoError(t, err)
	assert.Equal(t, NewDate(2024, time.February, 29), d)

	for _, bad := range []string{"", "2023-02-29", "29/02/2024", "2024-2-1"} {
		_, err := ParseDate(bad)
		assert.Error(t, err, bad)
	}
}

func TestDate_JSON(t *testing.T) {
	var out struct {
		D  Date  `json:"d"`
		P  *Date `json:"p"`
		Zr Date  `json:"zr"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"d":"1990-04-12","p":null,"zr":null}`), &out))
	assert.Equal(t, "1990-04-12", out.D.String())
	assert.Nil(t, out.P)
	assert.True(t, out.Zr.IsZero())

	b, err := json.Marshal(out)
	require.NoError(t, err)
	assert.JSONEq(t, `{"d":"1990-04-12","p":null,"zr":null}`, string(b))

	assert.Error(t, json.Unmarshal([]byte(`{"d":19900412}`), &out))
	assert.Error(t, json.Unmarshal([]byte(`{"d":"12-04-1990"}`), &out))
}

func TestDate_Scan(t *testing.T) {
	tests := []struct {
		name string
		src  any
		want string
	}{
		{"time", time.Date(2020, 5, 17, 23, 30, 0, 0, time.FixedZone("x", -3*3600)), "2020-05-17"},
		{"text", "2020-05-17", "2020-05-17"},
		{"sqlite timestamp text", []byte("2020-05-17 00:00:00+00:00"), "2020-05-17"},
		{"nil", nil, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Date
			require.NoError(t, d.Scan(tt.src))
			assert.Equal(t, tt.want, d.String())
		})
	}

	var d Date
	assert.Error(t, d.Scan(42))
}

func TestDate_Value(t *testing.T) {
	v, err := Date{}.Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = NewDate(2001, time.January, 2).Value()
	require.NoError(t, err)
	assert.Equal(t, time.Date(2001, 1, 2, 0, 0, 0, 0, time.UTC), v)
}
