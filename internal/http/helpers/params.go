package helpers

import (
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/orgcrud/internal/domain/repository"
	httperrors "github.com/dropDatabas3/orgcrud/internal/http/errors"
	"github.com/dropDatabas3/orgcrud/internal/validation"
)

// PathID lee el parámetro {id} de la ruta como entero positivo.
func PathID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, httperrors.ErrInvalidParameter.WithDetail("id must be a positive integer")
	}
	return id, nil
}

// Kind indica cómo parsear el valor de un filtro de query.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindBool
)

// Pagination son los límites de page/limit.
type Pagination struct {
	PageSize int
	MaxLimit int
}

// ListQuery es el resultado de parsear ?page=&limit=&order_by=&<filtros>.
type ListQuery struct {
	Page    int
	Limit   int
	Options repository.ListOptions
}

// ParseListQuery parsea la query de un listado. Los filtros de igualdad se
// toman de schema.Filterable; kinds indica el tipo de cada uno (default string).
func ParseListQuery(r *http.Request, schema repository.Schema, kinds map[string]Kind, p Pagination) (ListQuery, error) {
	q := r.URL.Query()
	v := validation.New(validation.Query)

	page := 1
	if raw := q.Get("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			v.Add("page", "int_parsing", "Input should be a valid integer", raw)
		} else if n > 1 {
			page = n
		}
	}

	limit := p.PageSize
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		switch {
		case err != nil:
			v.Add("limit", "int_parsing", "Input should be a valid integer", raw)
		case n > 0:
			limit = n
		}
	}
	if p.MaxLimit > 0 && limit > p.MaxLimit {
		limit = p.MaxLimit
	}
	if limit <= 0 {
		limit = 1
	}
	// el offset (page-1)*limit tiene que entrar en un int
	if page-1 > math.MaxInt/limit {
		maxPage := strconv.FormatUint(uint64(math.MaxInt/limit)+1, 10)
		v.Add("page", "less_than_equal", "Input should be less than or equal to "+maxPage, q.Get("page"))
	}

	var orderBy []string
	if raw := strings.TrimSpace(q.Get("order_by")); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			col := strings.TrimSpace(part)
			if col == "" {
				continue
			}
			if !schema.HasColumn(strings.TrimPrefix(col, "-")) {
				v.Add("order_by", "value_error", "Unknown order column "+col, raw)
				continue
			}
			orderBy = append(orderBy, col)
		}
	}

	params := map[string]any{}
	for _, col := range schema.Filterable {
		if !q.Has(col) {
			continue
		}
		raw := q.Get(col)
		switch kinds[col] {
		case KindInt:
			n, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				v.Add(col, "int_parsing", "Input should be a valid integer", raw)
				continue
			}
			params[col] = n
		case KindBool:
			b, err := strconv.ParseBool(raw)
			if err != nil {
				v.Add(col, "bool_parsing", "Input should be a valid boolean", raw)
				continue
			}
			params[col] = b
		default:
			params[col] = raw
		}
	}

	if err := v.Err(); err != nil {
		return ListQuery{}, err
	}

	out := ListQuery{
		Page:  page,
		Limit: limit,
		Options: repository.ListOptions{
			Offset:  (page - 1) * limit,
			Limit:   limit,
			OrderBy: orderBy,
		},
	}
	if len(params) > 0 {
		out.Options.Filter.Params = params
	}
	return out, nil
}
