package helpers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/orgcrud/internal/domain/repository"
	httperrors "github.com/dropDatabas3/orgcrud/internal/http/errors"
	"github.com/dropDatabas3/orgcrud/internal/validation"
)

var pag = Pagination{PageSize: 25, MaxLimit: 100}

func listReq(query string) *http.Request {
	return httptest.NewRequest(http.MethodGet, "/user/?"+query, nil)
}

func TestParseListQuery_Defaults(t *testing.T) {
	lq, err := ParseListQuery(listReq(""), repository.User{}.Schema(), nil, pag)
	require.NoError(t, err)
	assert.Equal(t, 1, lq.Page)
	assert.Equal(t, 25, lq.Limit)
	assert.Equal(t, 0, lq.Options.Offset)
	assert.True(t, lq.Options.Filter.IsEmpty())
	assert.Empty(t, lq.Options.OrderBy)
}

func TestParseListQuery_PageLimitOrder(t *testing.T) {
	lq, err := ParseListQuery(listReq("page=3&limit=10&order_by=-name,id"), repository.User{}.Schema(), nil, pag)
	require.NoError(t, err)
	assert.Equal(t, 3, lq.Page)
	assert.Equal(t, 10, lq.Limit)
	assert.Equal(t, 20, lq.Options.Offset)
	assert.Equal(t, []string{"-name", "id"}, lq.Options.OrderBy)

	// page < 1 se corrige; limit se acota al máximo.
	lq, err = ParseListQuery(listReq("page=-4&limit=1000"), repository.User{}.Schema(), nil, pag)
	require.NoError(t, err)
	assert.Equal(t, 1, lq.Page)
	assert.Equal(t, 100, lq.Limit)
}

func TestParseListQuery_PageOverflow(t *testing.T) {
	lq, err := ParseListQuery(listReq("page=9223372036854775807&limit=50"), repository.User{}.Schema(), nil, pag)
	require.Error(t, err)
	assert.Zero(t, lq.Options.Offset)

	var verrs validation.Errors
	require.True(t, errors.As(err, &verrs))
	require.Len(t, verrs, 1)
	assert.Equal(t, []string{"query", "page"}, verrs[0].Loc)
	assert.Equal(t, "less_than_equal", verrs[0].Type)

	// con limit 1 el offset máximo es justo math.MaxInt
	lq, err = ParseListQuery(listReq("page=9223372036854775807&limit=1"), repository.User{}.Schema(), nil, pag)
	require.NoError(t, err)
	assert.Equal(t, 9223372036854775806, lq.Options.Offset)
}

func TestParseListQuery_Filters(t *testing.T) {
	kinds := map[string]Kind{"user_id": KindInt, "school_id": KindInt, "is_active": KindBool}
	lq, err := ParseListQuery(listReq("user_id=7&is_active=false&unknown=1"), repository.UserSchool{}.Schema(), kinds, pag)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"user_id": int64(7), "is_active": false}, lq.Options.Filter.Params)
}

func TestParseListQuery_Invalid(t *testing.T) {
	kinds := map[string]Kind{"user_id": KindInt}
	_, err := ParseListQuery(listReq("page=x&order_by=password&user_id=abc"), repository.UserGroup{}.Schema(), kinds, pag)
	require.Error(t, err)

	var verrs validation.Errors
	require.True(t, errors.As(err, &verrs))
	require.Len(t, verrs, 3)
	assert.Equal(t, []string{"query", "page"}, verrs[0].Loc)
	assert.Equal(t, []string{"query", "order_by"}, verrs[1].Loc)
	assert.Equal(t, []string{"query", "user_id"}, verrs[2].Loc)
}

func TestReadJSON(t *testing.T) {
	type payload struct {
		Name *string `json:"name"`
	}

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"X"}`))
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	var p payload
	require.NoError(t, ReadJSON(httptest.NewRecorder(), req, &p, 0))
	assert.Equal(t, "X", *p.Name)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"X"}`))
	req.Header.Set("Content-Type", "text/plain")
	assert.ErrorIs(t, ReadJSON(httptest.NewRecorder(), req, &p, 0), httperrors.ErrUnsupportedMediaType)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":`))
	req.Header.Set("Content-Type", "application/json")
	err := ReadJSON(httptest.NewRecorder(), req, &p, 0)
	assert.Equal(t, "INVALID_JSON", httperrors.FromError(err).Code)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":1}`))
	req.Header.Set("Content-Type", "application/json")
	err = ReadJSON(httptest.NewRecorder(), req, &p, 0)
	var verrs validation.Errors
	require.True(t, errors.As(err, &verrs))
	assert.Equal(t, []string{"body", "name"}, verrs[0].Loc)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"nope":1}`))
	req.Header.Set("Content-Type", "application/json")
	err = ReadJSON(httptest.NewRecorder(), req, &p, 0)
	assert.Equal(t, "INVALID_JSON", httperrors.FromError(err).Code)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"`+strings.Repeat("a", 200)+`"}`))
	req.Header.Set("Content-Type", "application/json")
	err = ReadJSON(httptest.NewRecorder(), req, &p, 64)
	assert.Equal(t, "BODY_TOO_LARGE", httperrors.FromError(err).Code)
}
