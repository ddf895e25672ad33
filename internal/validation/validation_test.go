package validation

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestValidEmail(t *testing.T) {
	valids := []string{"a@b.co", "ana.perez+x@mail.example.com", "x_y@sub-domain.org"}
	for _, v := range valids {
		assert.True(t, ValidEmail(v), v)
	}
	invalids := []string{"", "a", "a@", "@b.co", "a@b", "a b@c.com", "a@-b.com", "a@b.com."}
	for _, v := range invalids {
		assert.False(t, ValidEmail(v), v)
	}
}

func TestValidator_Accumulates(t *testing.T) {
	v := New(Body)
	v.Required("name", nil)
	v.MaxLen("first_name", ptr(strings.Repeat("á", 255)), 254)
	v.Email("business_email", ptr("nope"), 100)
	v.Positive("pin_code", ptr(int64(0)))
	v.Between("latitude", ptr(91.0), -90, 90)
	v.Between("longitude", ptr(-180.5), -180, 180)

	err := v.Err()
	require.Error(t, err)

	var ve Errors
	require.True(t, errors.As(err, &ve))
	require.Len(t, ve, 6)

	assert.Equal(t, []string{"body", "name"}, ve[0].Loc)
	assert.Equal(t, "missing", ve[0].Type)
	assert.Equal(t, "string_too_long", ve[1].Type)
	assert.Equal(t, "value_error", ve[2].Type)
	assert.Equal(t, "greater_than", ve[3].Type)
	assert.Equal(t, "less_than_equal", ve[4].Type)
	assert.Equal(t, "greater_than_equal", ve[5].Type)
	assert.Contains(t, err.Error(), "body.name")
}

func TestValidator_OK(t *testing.T) {
	v := New(Body)
	v.Required("name", ptr("X"))
	v.MaxLen("name", ptr(strings.Repeat("á", 254)), 254)
	v.Email("personal_email", nil, 100)
	v.Between("latitude", ptr(-90.0), -90, 90)
	assert.NoError(t, v.Err())
	assert.Empty(t, v.Errors())
}

func TestTrim(t *testing.T) {
	assert.Nil(t, Trim(nil))
	assert.Equal(t, "x", *Trim(ptr("  x \n")))
}

func TestField(t *testing.T) {
	e := Field(Body, "name", "value_error", "School with this name already exists", "X")
	assert.Equal(t, []string{"body", "name"}, e[0].Loc)
	assert.Equal(t, "X", e[0].Input)
}

func TestValidator_IDAndDate(t *testing.T) {
	v := New(Body)
	assert.False(t, v.RequiredID("user_id", nil))
	assert.False(t, v.RequiredID("group_id", ptr(int64(-1))))
	assert.True(t, v.RequiredID("school_id", ptr(int64(3))))
	v.Date("date_of_birth", ptr("1990-02-30"))
	v.Date("date_of_join", ptr("2020-01-15"))

	ve := v.Errors()
	require.Len(t, ve, 3)
	assert.Equal(t, "missing", ve[0].Type)
	assert.Equal(t, "greater_than", ve[1].Type)
	assert.Equal(t, []string{"body", "date_of_birth"}, ve[2].Loc)
}
