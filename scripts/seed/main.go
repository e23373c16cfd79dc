// Command seed creates the schema and inserts fixture users, posts and images.
package main

import (
	"crypto/rand"
	"flag"
	"fmt"
	"math/big"
	"os"
	"time"

	"estate-listing/model"
	"estate-listing/pkg/config"
	"estate-listing/pkg/database"
	"estate-listing/pkg/logger"
	"estate-listing/pkg/security"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type cityFixture struct {
	name    string
	sectors []string
}

var cities = []cityFixture{
	{"Lyon", []string{"Presqu'île", "Croix-Rousse", "Part-Dieu", "Confluence"}},
	{"Paris", []string{"Marais", "Montmartre", "Batignolles", "Bastille"}},
	{"Marseille", []string{"Vieux-Port", "Le Panier", "Prado"}},
	{"Bordeaux", []string{"Chartrons", "Saint-Pierre", "Bastide"}},
	{"Lille", []string{"Vieux-Lille", "Wazemmes"}},
}

var priceRanges = map[string][2]int64{
	model.PostTypeApartment:  {90000, 650000},
	model.PostTypeHouse:      {180000, 1200000},
	model.PostTypeLand:       {30000, 300000},
	model.PostTypeCommercial: {120000, 900000},
}

func main() {
	posts := flag.Int("posts", 60, "number of posts to create")
	reset := flag.Bool("reset", false, "drop existing listing tables first")
	flag.Parse()

	if err := config.InitConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	cfg := config.GetConfig()
	if err := logger.Init(cfg.Log); err != nil {
		fmt.Fprintf(os.Stderr, "logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	log := logger.L()

	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatal("db connection error", zap.Error(err))
	}
	defer database.Close(db)

	if *reset {
		if err := db.Migrator().DropTable(&model.PostImage{}, &model.Post{}, &model.User{}); err != nil {
			log.Fatal("drop tables failed", zap.Error(err))
		}
	}
	if err := database.AutoMigrate(db, model.All()...); err != nil {
		log.Fatal("migration failed", zap.Error(err))
	}

	if err := seed(db, *posts); err != nil {
		log.Fatal("seed failed", zap.Error(err))
	}
	log.Info("seed completed", zap.Int("posts", *posts))
}

func seed(db *gorm.DB, count int) error {
	return db.Transaction(func(tx *gorm.DB) error {
		authors, err := seedUsers(tx)
		if err != nil {
			return err
		}

		now := time.Now()
		entropy := ulid.Monotonic(rand.Reader, 0)
		for i := 0; i < count; i++ {
			city := cities[i%len(cities)]
			postType := model.PostTypes[randInt(len(model.PostTypes))]
			bounds := priceRanges[postType]
			createdAt := now.Add(-time.Duration(i) * 7 * time.Hour)

			post := model.Post{
				Reference:   ulid.MustNew(ulid.Timestamp(createdAt), entropy).String(),
				AuthorID:    authors[i%len(authors)].ID,
				Title:       fmt.Sprintf("%s à %s", label(postType), city.name),
				Description: fmt.Sprintf("Bien de type %s situé à %s.", postType, city.name),
				City:        city.name,
				Sector:      city.sectors[randInt(len(city.sectors))],
				Type:        postType,
				Price:       decimal.NewFromInt(roundPrice(bounds[0] + int64(randInt(int(bounds[1]-bounds[0]))))),
				CreatedAt:   createdAt,
				UpdatedAt:   createdAt,
			}
			if err := tx.Create(&post).Error; err != nil {
				return fmt.Errorf("create post %d: %w", i, err)
			}

			// certains biens n'ont pas de photo
			images := randInt(4)
			for pos := 0; pos < images; pos++ {
				img := model.PostImage{
					PostID:   post.ID,
					Path:     fmt.Sprintf("posts/%s/%d.jpg", post.Reference, pos+1),
					Position: pos,
				}
				if err := tx.Create(&img).Error; err != nil {
					return fmt.Errorf("create image for post %d: %w", post.ID, err)
				}
			}
		}
		return nil
	})
}

func seedUsers(tx *gorm.DB) ([]model.User, error) {
	fixtures := []struct{ name, email string }{
		{"Agence du Rhône", "contact@agence-rhone.test"},
		{"Claire Martin", "claire.martin@example.test"},
		{"Immobilier Atlantique", "bonjour@immo-atlantique.test"},
	}

	users := make([]model.User, 0, len(fixtures))
	for _, f := range fixtures {
		hash, err := security.HashPasswordWithCost("password123", security.MinCost)
		if err != nil {
			return nil, err
		}
		user := model.User{Name: f.name, Email: f.email, PasswordHash: hash}
		if err := tx.Where(model.User{Email: f.email}).FirstOrCreate(&user).Error; err != nil {
			return nil, fmt.Errorf("create user %s: %w", f.email, err)
		}
		users = append(users, user)
	}
	return users, nil
}

func label(postType string) string {
	switch postType {
	case model.PostTypeApartment:
		return "Appartement"
	case model.PostTypeHouse:
		return "Maison"
	case model.PostTypeLand:
		return "Terrain"
	case model.PostTypeCommercial:
		return "Local commercial"
	default:
		return "Bien"
	}
}

func randInt(n int) int {
	if n <= 0 {
		return 0
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(v.Int64())
}

func roundPrice(p int64) int64 {
	return p / 1000 * 1000
}
