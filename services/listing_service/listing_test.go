package listing_service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"estate-listing/model"
	"estate-listing/pkg/cache"
	"estate-listing/pkg/config"
	"estate-listing/pkg/database"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var baseTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type postFixture struct {
	city   string
	sector string
	typ    string
	price  int64
	images int
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Open(config.DatabaseConfig{
		Driver:   "sqlite",
		DSN:      fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
		LogLevel: "silent",
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db, model.All()...))
	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

// seedPosts inserts fixtures in order; each one is a minute newer than the previous.
func seedPosts(t *testing.T, db *gorm.DB, fixtures []postFixture) []model.Post {
	t.Helper()
	author := model.User{Name: "Agence", Email: fmt.Sprintf("agence-%d@example.test", time.Now().UnixNano())}
	require.NoError(t, db.Create(&author).Error)

	posts := make([]model.Post, 0, len(fixtures))
	for i, f := range fixtures {
		created := baseTime.Add(time.Duration(i) * time.Minute)
		post := model.Post{
			Reference: fmt.Sprintf("REF%023d", i),
			AuthorID:  author.ID,
			Title:     fmt.Sprintf("Post %d", i),
			City:      f.city,
			Sector:    f.sector,
			Type:      f.typ,
			Price:     decimal.NewFromInt(f.price),
			CreatedAt: created,
			UpdatedAt: created,
		}
		require.NoError(t, db.Create(&post).Error)
		// insert images in reverse position order to check preload ordering
		for pos := f.images - 1; pos >= 0; pos-- {
			img := model.PostImage{PostID: post.ID, Path: fmt.Sprintf("posts/%d/%d.jpg", post.ID, pos), Position: pos}
			require.NoError(t, db.Create(&img).Error)
		}
		posts = append(posts, post)
	}
	return posts
}

func uniformFixtures(n int) []postFixture {
	out := make([]postFixture, n)
	for i := range out {
		out[i] = postFixture{city: "Lyon", sector: "Part-Dieu", typ: model.PostTypeApartment, price: 150000}
	}
	return out
}

func strPtr(s string) *string { return &s }

func decPtr(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func ids(posts []model.Post) []uint {
	out := make([]uint, len(posts))
	for i, p := range posts {
		out[i] = p.ID
	}
	return out
}

func TestListPostsPagination(t *testing.T) {
	db := newTestDB(t)
	seedPosts(t, db, uniformFixtures(20))
	svc := NewListingService(db)
	ctx := context.Background()

	tests := []struct {
		page      int
		wantItems int
		wantFrom  int
		wantTo    int
	}{
		{page: 1, wantItems: 9, wantFrom: 1, wantTo: 9},
		{page: 2, wantItems: 9, wantFrom: 10, wantTo: 18},
		{page: 3, wantItems: 2, wantFrom: 19, wantTo: 20},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("page %d", tt.page), func(t *testing.T) {
			result, err := svc.ListPosts(ctx, SearchFilters{}, tt.page)
			require.NoError(t, err)
			assert.Len(t, result.Items, tt.wantItems)
			assert.Equal(t, tt.page, result.CurrentPage)
			assert.Equal(t, PageSize, result.PageSize)
			assert.Equal(t, int64(20), result.TotalItems)
			assert.Equal(t, 3, result.TotalPages)
			require.NotNil(t, result.From)
			require.NotNil(t, result.To)
			assert.Equal(t, tt.wantFrom, *result.From)
			assert.Equal(t, tt.wantTo, *result.To)
		})
	}

	t.Run("past the end", func(t *testing.T) {
		result, err := svc.ListPosts(ctx, SearchFilters{}, 4)
		require.NoError(t, err)
		assert.Empty(t, result.Items)
		assert.NotNil(t, result.Items)
		assert.Equal(t, int64(20), result.TotalItems)
		assert.Equal(t, 3, result.TotalPages)
		assert.Nil(t, result.From)
		assert.Nil(t, result.To)
	})

	t.Run("page below one", func(t *testing.T) {
		result, err := svc.ListPosts(ctx, SearchFilters{}, 0)
		require.NoError(t, err)
		assert.Equal(t, 1, result.CurrentPage)
		assert.Len(t, result.Items, 9)
	})
}

func TestListPostsNoResults(t *testing.T) {
	db := newTestDB(t)
	svc := NewListingService(db)

	result, err := svc.ListPosts(context.Background(), SearchFilters{}, 1)
	require.NoError(t, err)
	assert.Empty(t, result.Items)
	assert.Equal(t, int64(0), result.TotalItems)
	assert.Equal(t, 1, result.TotalPages)
}

func TestListPostsNewestFirst(t *testing.T) {
	db := newTestDB(t)
	posts := seedPosts(t, db, uniformFixtures(5))

	// same created_at as the newest post: id breaks the tie
	twin := posts[4]
	twin.ID = 0
	twin.Reference = "TWIN0000000000000000000000"
	twin.Images = nil
	require.NoError(t, db.Create(&twin).Error)

	result, err := NewListingService(db).ListPosts(context.Background(), SearchFilters{}, 1)
	require.NoError(t, err)

	want := []uint{twin.ID, posts[4].ID, posts[3].ID, posts[2].ID, posts[1].ID, posts[0].ID}
	assert.Equal(t, want, ids(result.Items))
	for i := 1; i < len(result.Items); i++ {
		assert.False(t, result.Items[i].CreatedAt.After(result.Items[i-1].CreatedAt))
	}
}

func TestListPostsTextFilters(t *testing.T) {
	db := newTestDB(t)
	seedPosts(t, db, []postFixture{
		{city: "Lyon", sector: "Croix-Rousse", typ: model.PostTypeHouse, price: 100},
		{city: "LYON", sector: "Part-Dieu", typ: model.PostTypeHouse, price: 100},
		{city: "Villeurbanne", sector: "Gratte-Ciel", typ: model.PostTypeHouse, price: 100},
		{city: "Ly_n", sector: "100% centre", typ: model.PostTypeHouse, price: 100},
		{city: "Paris", sector: "Marais", typ: model.PostTypeHouse, price: 100},
	})
	svc := NewListingService(db)

	tests := []struct {
		name    string
		filters SearchFilters
		want    []string
	}{
		{name: "city case-insensitive", filters: SearchFilters{City: strPtr("lyon")}, want: []string{"LYON", "Lyon"}},
		{name: "city substring", filters: SearchFilters{City: strPtr("BANN")}, want: []string{"Villeurbanne"}},
		{name: "underscore is literal", filters: SearchFilters{City: strPtr("ly_n")}, want: []string{"Ly_n"}},
		{name: "percent is literal", filters: SearchFilters{Sector: strPtr("100%")}, want: []string{"Ly_n"}},
		{name: "sector", filters: SearchFilters{Sector: strPtr("rousse")}, want: []string{"Lyon"}},
		{name: "city and sector", filters: SearchFilters{City: strPtr("lyon"), Sector: strPtr("part")}, want: []string{"LYON"}},
		{name: "empty string is no constraint", filters: SearchFilters{City: strPtr("")}, want: []string{"Paris", "Ly_n", "Villeurbanne", "LYON", "Lyon"}},
		{name: "no match", filters: SearchFilters{City: strPtr("nantes")}, want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := svc.ListPosts(context.Background(), tt.filters, 1)
			require.NoError(t, err)
			got := make([]string, 0, len(result.Items))
			for _, p := range result.Items {
				got = append(got, p.City)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestListPostsTypeFilter(t *testing.T) {
	db := newTestDB(t)
	seedPosts(t, db, []postFixture{
		{city: "Lyon", typ: model.PostTypeApartment, price: 1},
		{city: "Lyon", typ: model.PostTypeHouse, price: 1},
		{city: "Lyon", typ: model.PostTypeLand, price: 1},
		{city: "Lyon", typ: model.PostTypeHouse, price: 1},
	})
	svc := NewListingService(db)

	tests := []struct {
		name  string
		types []string
		want  int64
	}{
		{name: "single", types: []string{model.PostTypeHouse}, want: 2},
		{name: "multiple", types: []string{model.PostTypeHouse, model.PostTypeLand}, want: 3},
		{name: "unknown", types: []string{"castle"}, want: 0},
		{name: "none", types: nil, want: 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := svc.ListPosts(context.Background(), SearchFilters{Types: tt.types}, 1)
			require.NoError(t, err)
			assert.Equal(t, tt.want, result.TotalItems)
			if len(tt.types) == 0 {
				return
			}
			for _, p := range result.Items {
				assert.Contains(t, tt.types, p.Type)
			}
		})
	}
}

func TestListPostsPriceBoundsInclusive(t *testing.T) {
	db := newTestDB(t)
	seedPosts(t, db, []postFixture{
		{city: "Lyon", typ: model.PostTypeHouse, price: 99999},
		{city: "Lyon", typ: model.PostTypeHouse, price: 100000},
		{city: "Lyon", typ: model.PostTypeHouse, price: 250000},
		{city: "Lyon", typ: model.PostTypeHouse, price: 300000},
		{city: "Lyon", typ: model.PostTypeHouse, price: 300001},
	})
	svc := NewListingService(db)
	ctx := context.Background()

	result, err := svc.ListPosts(ctx, SearchFilters{MinPrice: decPtr(100000), MaxPrice: decPtr(300000)}, 1)
	require.NoError(t, err)
	require.Len(t, result.Items, 3)
	assert.True(t, result.Items[0].Price.Equal(decimal.NewFromInt(300000)))
	assert.True(t, result.Items[2].Price.Equal(decimal.NewFromInt(100000)))

	result, err = svc.ListPosts(ctx, SearchFilters{MinPrice: decPtr(300000)}, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), result.TotalItems)

	result, err = svc.ListPosts(ctx, SearchFilters{MaxPrice: decPtr(99999)}, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.TotalItems)
}

func TestListPostsLyonScenario(t *testing.T) {
	db := newTestDB(t)
	fixtures := make([]postFixture, 0, 40)
	for i := 0; i < 40; i++ {
		city := []string{"Lyon", "Paris", "Marseille", "Lyon"}[i%4]
		fixtures = append(fixtures, postFixture{
			city:  city,
			typ:   model.PostTypes[i%len(model.PostTypes)],
			price: int64(50000 + i*10000),
		})
	}
	seedPosts(t, db, fixtures)

	var want int64
	for _, f := range fixtures {
		if f.city == "Lyon" && f.price >= 100000 && f.price <= 300000 {
			want++
		}
	}

	filters := SearchFilters{City: strPtr("lyon"), MinPrice: decPtr(100000), MaxPrice: decPtr(300000)}
	result, err := NewListingService(db).ListPosts(context.Background(), filters, 1)
	require.NoError(t, err)

	assert.Equal(t, want, result.TotalItems)
	assert.LessOrEqual(t, len(result.Items), PageSize)
	min, max := decimal.NewFromInt(100000), decimal.NewFromInt(300000)
	for i, p := range result.Items {
		assert.Equal(t, "Lyon", p.City)
		assert.True(t, p.Price.GreaterThanOrEqual(min), "price %s below range", p.Price)
		assert.True(t, p.Price.LessThanOrEqual(max), "price %s above range", p.Price)
		if i > 0 {
			assert.True(t, p.CreatedAt.Before(result.Items[i-1].CreatedAt))
		}
	}
}

func TestListPostsConjunctiveFilters(t *testing.T) {
	db := newTestDB(t)
	cities := []string{"Lyon", "Paris", "Bordeaux"}
	sectors := []string{"Centre", "Nord", "Sud"}
	fixtures := make([]postFixture, 0, 54)
	for i := 0; i < 54; i++ {
		fixtures = append(fixtures, postFixture{
			city:   cities[i%3],
			sector: sectors[(i/3)%3],
			typ:    model.PostTypes[i%len(model.PostTypes)],
			price:  int64(100000 + (i%7)*50000),
		})
	}
	seedPosts(t, db, fixtures)
	svc := NewListingService(db)

	combos := []SearchFilters{
		{City: strPtr("paris"), Types: []string{model.PostTypeHouse}},
		{Sector: strPtr("nord"), MinPrice: decPtr(200000)},
		{City: strPtr("lyon"), Sector: strPtr("sud"), MaxPrice: decPtr(250000)},
		{Types: []string{model.PostTypeLand, model.PostTypeCommercial}, MinPrice: decPtr(150000), MaxPrice: decPtr(300000)},
		{City: strPtr("bordeaux"), Sector: strPtr("centre"), Types: []string{model.PostTypeApartment}, MinPrice: decPtr(100000), MaxPrice: decPtr(400000)},
	}

	for i, f := range combos {
		t.Run(fmt.Sprintf("combo %d", i), func(t *testing.T) {
			var matched int64
			for _, fx := range fixtures {
				if matches(f, fx) {
					matched++
				}
			}

			seen := int64(0)
			for page := 1; ; page++ {
				result, err := svc.ListPosts(context.Background(), f, page)
				require.NoError(t, err)
				assert.Equal(t, matched, result.TotalItems)
				for _, p := range result.Items {
					assert.True(t, matches(f, postFixture{city: p.City, sector: p.Sector, typ: p.Type, price: p.Price.IntPart()}),
						"post %d does not satisfy filters", p.ID)
				}
				seen += int64(len(result.Items))
				if page >= result.TotalPages {
					break
				}
			}
			assert.Equal(t, matched, seen)
		})
	}
}

func matches(f SearchFilters, fx postFixture) bool {
	if f.City != nil && !strings.Contains(strings.ToLower(fx.city), strings.ToLower(*f.City)) {
		return false
	}
	if f.Sector != nil && !strings.Contains(strings.ToLower(fx.sector), strings.ToLower(*f.Sector)) {
		return false
	}
	if len(f.Types) > 0 {
		found := false
		for _, typ := range f.Types {
			if typ == fx.typ {
				found = true
			}
		}
		if !found {
			return false
		}
	}
	if f.MinPrice != nil && fx.price < f.MinPrice.IntPart() {
		return false
	}
	if f.MaxPrice != nil && fx.price > f.MaxPrice.IntPart() {
		return false
	}
	return true
}

func TestListPostsEagerLoadsRelations(t *testing.T) {
	db := newTestDB(t)
	fixtures := uniformFixtures(12)
	fixtures[11].images = 3
	fixtures[10].images = 0
	seedPosts(t, db, fixtures)

	var queries int
	require.NoError(t, db.Callback().Query().After("gorm:query").Register("test:count_queries", func(*gorm.DB) {
		queries++
	}))

	result, err := NewListingService(db).ListPosts(context.Background(), SearchFilters{}, 1)
	require.NoError(t, err)
	require.Len(t, result.Items, 9)

	// count, posts, authors, images: one query each for the whole page
	assert.Equal(t, 4, queries)

	withImages := result.Items[0]
	require.NotNil(t, withImages.Author)
	assert.Equal(t, "Agence", withImages.Author.Name)
	require.Len(t, withImages.Images, 3)
	for i, img := range withImages.Images {
		assert.Equal(t, i, img.Position)
		assert.Equal(t, fmt.Sprintf("/uploads/posts/%d/%d.jpg", withImages.ID, i), img.URL)
	}
	assert.Equal(t, withImages.Images[0].URL, withImages.CoverURL)

	noImages := result.Items[1]
	assert.Empty(t, noImages.Images)
	assert.Equal(t, "/placeholder/apartment.svg", noImages.CoverURL)
}

func TestListPostsServesCachedPage(t *testing.T) {
	db := newTestDB(t)
	seedPosts(t, db, uniformFixtures(4))

	cm := cache.NewCacheManager(nil)
	t.Cleanup(cm.Close)
	svc := NewListingService(db, WithCache(cm, time.Minute))
	ctx := context.Background()
	filters := SearchFilters{City: strPtr("lyon")}

	first, err := svc.ListPosts(ctx, filters, 1)
	require.NoError(t, err)
	require.Equal(t, int64(4), first.TotalItems)

	require.NoError(t, db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.Post{}).Error)

	second, err := svc.ListPosts(ctx, filters, 1)
	require.NoError(t, err)
	assert.Equal(t, ids(first.Items), ids(second.Items))
	assert.Equal(t, first.TotalItems, second.TotalItems)

	other, err := svc.ListPosts(ctx, SearchFilters{City: strPtr("paris")}, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(0), other.TotalItems)

	stats := cm.GetStats()
	assert.Equal(t, int64(1), stats["hits"])
}

func TestPageCacheKeyIgnoresSortBy(t *testing.T) {
	a := pageCacheKey(SearchFilters{City: strPtr("lyon"), SortBy: "newest"}, 2)
	b := pageCacheKey(SearchFilters{City: strPtr("lyon"), SortBy: "price_asc"}, 2)
	c := pageCacheKey(SearchFilters{City: strPtr("lyon")}, 3)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.True(t, strings.HasPrefix(a, "listing:page:"))
	assert.True(t, strings.HasSuffix(a, ":2"))
}
