package app

import (
	"time"

	"estate-listing/inout"
	"estate-listing/middleware"
	"estate-listing/pkg/logger"
	"estate-listing/pkg/response"
	"estate-listing/pkg/view"
	"estate-listing/services"
	"estate-listing/services/listing_service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HomeController 首页房源列表
type HomeController struct {
	listings *listing_service.ListingService
	events   *services.SearchEventService
	view     *view.Renderer
}

func NewHomeController(listings *listing_service.ListingService, events *services.SearchEventService, renderer *view.Renderer) *HomeController {
	return &HomeController{
		listings: listings,
		events:   events,
		view:     renderer,
	}
}

// Index 首页：过滤、分页并渲染房源列表
func (h *HomeController) Index(c *gin.Context) {
	var req inout.ListPostsReq
	if err := c.ShouldBindQuery(&req); err != nil {
		middleware.AbortWithValidation(c, err)
		return
	}

	query := c.Request.URL.Query()
	raw := listing_service.ParseSearchParams(query)
	filters, err := listing_service.ToFilters(raw)
	if err != nil {
		response.Abort(c, response.INVALID_PARAMS, err.Error())
		return
	}
	page := listing_service.ParsePage(req.Page)

	posts, err := h.listings.ListPosts(c.Request.Context(), filters, page)
	if err != nil {
		logger.L().Error("list posts failed",
			zap.String("request_id", c.GetString("request_id")),
			zap.Error(err))
		response.Abort(c, response.INTERNAL_ERROR)
		return
	}
	posts.PageLinks = listing_service.BuildPageLinks(c.Request.URL.Path, query, posts.CurrentPage, posts.TotalPages)

	user := middleware.GetCurrentUser(c)

	event := services.SearchEvent{
		Filters:    filters.EventFields(),
		Page:       posts.CurrentPage,
		TotalItems: posts.TotalItems,
		ClientIP:   c.ClientIP(),
		OccurredAt: time.Now(),
	}
	if user != nil {
		event.UserID = user.ID
	}
	h.events.Record(event)

	h.view.Render(c, "Index", inout.IndexProps{
		Posts:        posts,
		Filters:      listing_service.BuildFilterEcho(raw),
		SearchParams: listing_service.BuildSearchParamsEcho(raw),
		Auth:         inout.AuthProps{User: user},
	})
}
