package inout

// ListPostsReq 首页房源列表查询参数
type ListPostsReq struct {
	City     string   `form:"city" binding:"omitempty,max=120"`      // 城市，模糊匹配
	Sector   string   `form:"sector" binding:"omitempty,max=120"`    // 区域，模糊匹配
	Type     []string `form:"type" binding:"omitempty,dive,max=40"`  // 类型，可重复
	TypeList []string `form:"type[]" binding:"omitempty,dive,max=40"` // 类型，数组写法
	MinPrice string   `form:"min_price" binding:"omitempty,decimal"` // 最低价格（含）
	MaxPrice string   `form:"max_price" binding:"omitempty,decimal"` // 最高价格（含）
	SortBy   string   `form:"sort_by" binding:"omitempty,max=40"`    // 排序，仅回显
	Page     string   `form:"page"`                                  // 页码，非法值按 1 处理
}

// RawSearchParams 规范化后的查询参数。指针为 nil 表示参数未出现在查询串中。
type RawSearchParams struct {
	City        *string
	Sector      *string
	Types       []string
	TypePresent bool
	MinPrice    *string
	MaxPrice    *string
	SortBy      string
}
