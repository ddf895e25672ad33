package dto

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/orgcrud/internal/domain/repository"
	"github.com/dropDatabas3/orgcrud/internal/domain/types"
	"github.com/dropDatabas3/orgcrud/internal/validation"
)

func decode(t *testing.T, raw string, in Input) Input {
	t.Helper()
	require.NoError(t, json.Unmarshal([]byte(raw), in))
	in.Normalize()
	return in
}

func locs(t *testing.T, err error) [][]string {
	t.Helper()
	var verrs validation.Errors
	require.True(t, errors.As(err, &verrs), "expected validation.Errors, got %v", err)
	out := make([][]string, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, fe.Loc)
	}
	return out
}

func TestUserCreate(t *testing.T) {
	in := decode(t, `{"name":"  Ana  ","date_of_birth":"1990-05-01","business_email":"ana@corp.com"}`, &UserCreate{})
	require.NoError(t, in.Validate())

	f := in.Fields()
	assert.Equal(t, "Ana", f["name"])
	assert.Equal(t, types.NewDate(1990, 5, 1), f["date_of_birth"])
	assert.Equal(t, true, f["is_active"])
	assert.NotContains(t, f, "first_name")

	in = decode(t, `{"first_name":"x","personal_email":"bad","date_of_join":"2020-13-01"}`, &UserCreate{})
	assert.Equal(t, [][]string{
		{"body", "name"},
		{"body", "date_of_join"},
		{"body", "personal_email"},
	}, locs(t, in.Validate()))
}

func TestUserUpdate_Partial(t *testing.T) {
	in := decode(t, `{"last_name":"Perez","is_active":false}`, &UserUpdate{})
	require.NoError(t, in.Validate())
	assert.Equal(t, repository.Fields{"last_name": "Perez", "is_active": false}, in.Fields())

	in = decode(t, `{"name":"   "}`, &UserUpdate{})
	assert.Equal(t, [][]string{{"body", "name"}}, locs(t, in.Validate()))
}

func TestSchoolCreate(t *testing.T) {
	in := decode(t, `{"name":"X","pin_code":1234,"latitude":-34.6,"longitude":-58.4}`, &SchoolCreate{})
	require.NoError(t, in.Validate())
	f := in.Fields()
	assert.Equal(t, int64(1234), f["pin_code"])
	assert.Equal(t, -34.6, f["latitude"])
	assert.Equal(t, true, f["is_active"])

	in = decode(t, `{"name":"X","pin_code":0,"latitude":95,"longitude":-200}`, &SchoolCreate{})
	assert.Equal(t, [][]string{
		{"body", "pin_code"},
		{"body", "latitude"},
		{"body", "longitude"},
	}, locs(t, in.Validate()))
}

func TestGroupCreateUpdate(t *testing.T) {
	require.Error(t, decode(t, `{}`, &GroupCreate{}).Validate())
	require.NoError(t, decode(t, `{}`, &GroupUpdate{}).Validate())
	assert.Empty(t, decode(t, `{}`, &GroupUpdate{}).Fields())
}

func TestMemberships(t *testing.T) {
	in := decode(t, `{"user_id":1}`, &UserGroupCreate{})
	assert.Equal(t, [][]string{{"body", "group_id"}}, locs(t, in.Validate()))

	in = decode(t, `{"user_id":1,"school_id":2}`, &UserSchoolCreate{})
	require.NoError(t, in.Validate())
	assert.Equal(t, repository.Fields{"user_id": int64(1), "school_id": int64(2), "is_active": true}, in.Fields())

	in = decode(t, `{"is_active":false}`, &UserSchoolUpdate{})
	require.NoError(t, in.Validate())
	assert.Equal(t, repository.Fields{"is_active": false}, in.Fields())

	in = decode(t, `{"group_id":0}`, &UserGroupUpdate{})
	assert.Equal(t, [][]string{{"body", "group_id"}}, locs(t, in.Validate()))
}
