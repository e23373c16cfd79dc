package monitoring

import (
	"context"
	"time"

	"estate-listing/mongodb"
	"estate-listing/pkg/config"
	"estate-listing/pkg/goroutinepool"
	"estate-listing/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// HTTPMetric one served request
type HTTPMetric struct {
	Timestamp  time.Time `bson:"timestamp"`
	Method     string    `bson:"method"`
	Endpoint   string    `bson:"endpoint"`
	StatusCode int       `bson:"status_code"`
	Duration   float64   `bson:"duration"`
	UserAgent  string    `bson:"user_agent,omitempty"`
	ClientIP   string    `bson:"client_ip,omitempty"`
	UserID     uint      `bson:"user_id,omitempty"`
}

// SearchMetric one listing search
type SearchMetric struct {
	OccurredAt time.Time              `bson:"occurred_at"`
	Filters    map[string]interface{} `bson:"filters"`
	Page       int                    `bson:"page"`
	TotalItems int64                  `bson:"total_items"`
	UserID     uint                   `bson:"user_id,omitempty"`
	ClientIP   string                 `bson:"client_ip,omitempty"`
}

// CityCount a city and how many searches named it
type CityCount struct {
	City  string `bson:"_id" json:"city"`
	Count int64  `bson:"count" json:"count"`
}

func analyticsDB() string {
	if config.AppConfig == nil {
		return ""
	}
	return config.AppConfig.MongoDB.AnalyticsDB
}

// SaveHTTPMetric stores a request metric in the analytics database, when one is configured.
func SaveHTTPMetric(c *gin.Context, duration float64) {
	dbName := analyticsDB()
	if dbName == "" || !mongodb.IsConnected(dbName) {
		return
	}

	metric := HTTPMetric{
		Timestamp:  time.Now(),
		Method:     c.Request.Method,
		Endpoint:   c.FullPath(),
		StatusCode: c.Writer.Status(),
		Duration:   duration,
		UserAgent:  c.GetHeader("User-Agent"),
		ClientIP:   c.ClientIP(),
		UserID:     c.GetUint("current_user_id"),
	}

	insertAsync(dbName, "logs", metric, nil)
}

// SaveSearchMetric stores a search in the analytics database, when one is configured.
func SaveSearchMetric(metric SearchMetric) {
	dbName := analyticsDB()
	if dbName == "" || !mongodb.IsConnected(dbName) {
		return
	}
	insertAsync(dbName, "search", metric, func(err error) {
		if err != nil {
			RecordSearchEvent("mongodb", "failed")
			return
		}
		RecordSearchEvent("mongodb", "recorded")
	})
}

func insertAsync(dbName, collectionKey string, doc interface{}, done func(error)) {
	err := goroutinepool.GetPool().Submit(&goroutinepool.Task{
		Function: func(ctx context.Context) error {
			collection, err := mongodb.GetCollection(dbName, collectionKey)
			if err != nil {
				return err
			}
			_, err = collection.InsertOne(ctx, doc)
			return err
		},
		Callback: done,
	})
	if err != nil {
		if collectionKey == "search" {
			RecordSearchEvent("mongodb", "dropped")
		}
		logger.L().Warn("failed to queue analytics insert", zap.String("collection", collectionKey), zap.Error(err))
	}
}

// GetTopSearchedCities aggregates the most searched cities since the given time.
func GetTopSearchedCities(ctx context.Context, since time.Time, limit int64) ([]CityCount, error) {
	dbName := analyticsDB()
	if dbName == "" {
		return []CityCount{}, nil
	}
	collection, err := mongodb.GetCollection(dbName, "search")
	if err != nil {
		return nil, err
	}

	pipeline := bson.A{
		bson.M{"$match": bson.M{
			"occurred_at":  bson.M{"$gte": since},
			"filters.city": bson.M{"$exists": true, "$ne": nil},
		}},
		bson.M{"$group": bson.M{"_id": bson.M{"$toLower": "$filters.city"}, "count": bson.M{"$sum": 1}}},
		bson.M{"$sort": bson.M{"count": -1}},
		bson.M{"$limit": limit},
	}

	cursor, err := collection.Aggregate(ctx, pipeline, options.Aggregate().SetMaxTime(5*time.Second))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	cities := []CityCount{}
	if err := cursor.All(ctx, &cities); err != nil {
		return nil, err
	}
	return cities, nil
}
