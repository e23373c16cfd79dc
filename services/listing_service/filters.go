package listing_service

import (
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DefaultSortBy 默认排序，目前只回显不生效
const DefaultSortBy = "newest"

// SearchFilters 房源过滤条件，所有字段可选，条件之间为 AND 关系
type SearchFilters struct {
	City     *string          `json:"city,omitempty"`
	Sector   *string          `json:"sector,omitempty"`
	Types    []string         `json:"types,omitempty"`
	MinPrice *decimal.Decimal `json:"min_price,omitempty"`
	MaxPrice *decimal.Decimal `json:"max_price,omitempty"`
	SortBy   string           `json:"sort_by,omitempty"`
}

// SearchScope applies every active filter in filters.
func SearchScope(filters SearchFilters) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Scopes(
			applyContainsFilter("city", filters.City),
			applyContainsFilter("sector", filters.Sector),
			applyTypeFilter(filters.Types),
			applyMinPriceFilter(filters.MinPrice),
			applyMaxPriceFilter(filters.MaxPrice),
		)
	}
}

// applyContainsFilter 大小写不敏感的子串匹配，LIKE 通配符按字面匹配
// Outside Postgres the column side goes through SQL LOWER; SQLite folds only ASCII there,
// so non-ASCII capitals (PARÍS) match only in their stored case.
func applyContainsFilter(column string, value *string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if value == nil || *value == "" {
			return db
		}
		if db.Dialector.Name() == "postgres" {
			return db.Where(column+" ILIKE ? ESCAPE '!'", "%"+escapeLike(*value)+"%")
		}
		return db.Where("LOWER("+column+") LIKE ? ESCAPE '!'", "%"+escapeLike(strings.ToLower(*value))+"%")
	}
}

// applyTypeFilter 类型精确匹配，任一即可
func applyTypeFilter(types []string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if len(types) == 0 {
			return db
		}
		values := make([]interface{}, len(types))
		for i, t := range types {
			values[i] = t
		}
		return db.Where(clause.IN{Column: clause.Column{Table: clause.CurrentTable, Name: "type"}, Values: values})
	}
}

// applyMinPriceFilter 价格下限（含）
func applyMinPriceFilter(min *decimal.Decimal) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if min == nil {
			return db
		}
		return db.Where("price >= ?", *min)
	}
}

// applyMaxPriceFilter 价格上限（含）
func applyMaxPriceFilter(max *decimal.Decimal) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if max == nil {
			return db
		}
		return db.Where("price <= ?", *max)
	}
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// EventFields 用于搜索事件与统计的过滤条件
func (f SearchFilters) EventFields() map[string]interface{} {
	fields := map[string]interface{}{}
	if f.City != nil {
		fields["city"] = *f.City
	}
	if f.Sector != nil {
		fields["sector"] = *f.Sector
	}
	if len(f.Types) > 0 {
		fields["types"] = f.Types
	}
	if f.MinPrice != nil {
		fields["min_price"] = f.MinPrice.String()
	}
	if f.MaxPrice != nil {
		fields["max_price"] = f.MaxPrice.String()
	}
	return fields
}
