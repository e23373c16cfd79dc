package listing_service

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"estate-listing/inout"
	"estate-listing/model"

	"github.com/shopspring/decimal"
)

// ParseSearchParams 从查询串中提取并规范化搜索参数
func ParseSearchParams(q url.Values) inout.RawSearchParams {
	raw := inout.RawSearchParams{
		City:     presentValue(q, "city"),
		Sector:   presentValue(q, "sector"),
		MinPrice: presentValue(q, "min_price"),
		MaxPrice: presentValue(q, "max_price"),
		SortBy:   strings.TrimSpace(q.Get("sort_by")),
	}

	_, hasType := q["type"]
	_, hasTypeList := q["type[]"]
	raw.TypePresent = hasType || hasTypeList
	raw.Types = NormalizeTypes(append(append([]string{}, q["type"]...), q["type[]"]...))

	if raw.SortBy == "" {
		raw.SortBy = DefaultSortBy
	}
	return raw
}

// NormalizeTypes trims values, drops blanks and de-duplicates keeping first occurrence.
func NormalizeTypes(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// ToFilters 转换为查询过滤条件。价格应已通过校验，解析失败返回错误。
func ToFilters(raw inout.RawSearchParams) (SearchFilters, error) {
	filters := SearchFilters{
		City:   nonBlank(raw.City),
		Sector: nonBlank(raw.Sector),
		SortBy: raw.SortBy,
	}
	if len(raw.Types) > 0 {
		filters.Types = raw.Types
	}

	var err error
	if filters.MinPrice, err = parsePrice("min_price", raw.MinPrice); err != nil {
		return SearchFilters{}, err
	}
	if filters.MaxPrice, err = parsePrice("max_price", raw.MaxPrice); err != nil {
		return SearchFilters{}, err
	}
	return filters, nil
}

// ParsePage 页码缺失或非正整数时返回 1
func ParsePage(s string) int {
	page, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || page < 1 {
		return 1
	}
	return min(page, math.MaxInt32)
}

// BuildSearchParamsEcho 构建回显给表单的搜索参数
func BuildSearchParamsEcho(raw inout.RawSearchParams) inout.SearchParamsEcho {
	sortBy := raw.SortBy
	if sortBy == "" {
		sortBy = DefaultSortBy
	}
	return inout.SearchParamsEcho{
		City:     nonBlank(raw.City),
		Sector:   nonBlank(raw.Sector),
		Type:     inout.TypeEcho(raw.Types),
		MinPrice: nonBlank(raw.MinPrice),
		MaxPrice: nonBlank(raw.MaxPrice),
		SortBy:   sortBy,
	}
}

// BuildFilterEcho only carries the city, sector and type keys present in the query.
// Blank values are echoed as null.
func BuildFilterEcho(raw inout.RawSearchParams) map[string]interface{} {
	filters := map[string]interface{}{}
	if raw.City != nil {
		filters["city"] = nonBlank(raw.City)
	}
	if raw.Sector != nil {
		filters["sector"] = nonBlank(raw.Sector)
	}
	if raw.TypePresent {
		if len(raw.Types) == 0 {
			filters["type"] = nil
		} else {
			filters["type"] = inout.TypeEcho(raw.Types)
		}
	}
	return filters
}

func presentValue(q url.Values, key string) *string {
	if _, ok := q[key]; !ok {
		return nil
	}
	v := strings.TrimSpace(q.Get(key))
	return &v
}

func nonBlank(v *string) *string {
	if v == nil || *v == "" {
		return nil
	}
	return v
}

func parsePrice(field string, v *string) (*decimal.Decimal, error) {
	if nonBlank(v) == nil {
		return nil, nil
	}
	d, err := decimal.NewFromString(*v)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", field, *v, err)
	}
	if !model.ValidPrice(d) {
		return nil, fmt.Errorf("%s %q out of range", field, *v)
	}
	return &d, nil
}
