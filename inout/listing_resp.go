package inout

import (
	"encoding/json"

	"estate-listing/model"
)

// PostPage 一页房源
type PostPage struct {
	Items       []model.Post `json:"items"`
	CurrentPage int          `json:"current_page"`
	PageSize    int          `json:"page_size"`
	TotalItems  int64        `json:"total_items"`
	TotalPages  int          `json:"total_pages"`
	From        *int         `json:"from"`
	To          *int         `json:"to"`
	PageLinks
}

// PageLinks 分页链接，保留原查询参数，仅替换 page
type PageLinks struct {
	Path         string     `json:"path"`
	FirstPageURL string     `json:"first_page_url"`
	LastPageURL  string     `json:"last_page_url"`
	PrevPageURL  *string    `json:"prev_page_url"`
	NextPageURL  *string    `json:"next_page_url"`
	Links        []PageLink `json:"links"`
}

type PageLink struct {
	URL    *string `json:"url"`
	Label  string  `json:"label"`
	Active bool    `json:"active"`
}

// TypeEcho renders no types as "", one type as a string and several as an array.
type TypeEcho []string

func (t TypeEcho) MarshalJSON() ([]byte, error) {
	switch len(t) {
	case 0:
		return json.Marshal("")
	case 1:
		return json.Marshal(t[0])
	default:
		return json.Marshal([]string(t))
	}
}

// SearchParamsEcho 回显给表单的搜索参数
type SearchParamsEcho struct {
	City     *string  `json:"city"`
	Sector   *string  `json:"sector"`
	Type     TypeEcho `json:"type"`
	MinPrice *string  `json:"min_price"`
	MaxPrice *string  `json:"max_price"`
	SortBy   string   `json:"sort_by"`
}

// AuthProps 当前登录用户
type AuthProps struct {
	User *model.User `json:"user"`
}

// IndexProps 首页视图数据
type IndexProps struct {
	Posts        *PostPage              `json:"posts"`
	Filters      map[string]interface{} `json:"filters"`
	SearchParams SearchParamsEcho       `json:"searchParams"`
	Auth         AuthProps              `json:"auth"`
}
