package mongodb

import (
	"context"
	"fmt"
	"sync"
	"time"

	"estate-listing/pkg/config"
	"estate-listing/pkg/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

var (
	clients   = make(map[string]*mongo.Client)
	clientsMu sync.RWMutex
)

// InitMongoDB connects every configured database. Databases that fail to connect are skipped.
func InitMongoDB(ctx context.Context, cfg config.MongoDBConfig) {
	for dbName, dbConfig := range cfg.Databases {
		if dbConfig.URI == "" {
			continue
		}
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(dbConfig.URI))
		cancel()
		if err != nil {
			logger.L().Error("failed to connect to MongoDB", zap.String("db", dbName), zap.Error(err))
			continue
		}
		clientsMu.Lock()
		clients[dbName] = client
		clientsMu.Unlock()
	}
	logger.L().Info("MongoDB clients initialised", zap.Int("count", len(clients)))
}

// GetCollection resolves a configured collection key of a configured database.
func GetCollection(dbName, collectionKey string) (*mongo.Collection, error) {
	cfg := config.GetConfig()

	dbConfig, exists := cfg.MongoDB.Databases[dbName]
	if !exists {
		return nil, fmt.Errorf("mongodb database %s not configured", dbName)
	}
	collectionName, exists := dbConfig.Collections[collectionKey]
	if !exists {
		return nil, fmt.Errorf("collection %s not configured in database %s", collectionKey, dbName)
	}
	clientsMu.RLock()
	client, exists := clients[dbName]
	clientsMu.RUnlock()
	if !exists {
		return nil, fmt.Errorf("mongodb client for database %s not initialised", dbName)
	}
	return client.Database(dbName).Collection(collectionName), nil
}

// IsConnected reports whether a client exists for dbName.
func IsConnected(dbName string) bool {
	clientsMu.RLock()
	defer clientsMu.RUnlock()
	_, ok := clients[dbName]
	return ok
}

// Ping checks every connected client.
func Ping(ctx context.Context) error {
	clientsMu.RLock()
	defer clientsMu.RUnlock()
	for name, client := range clients {
		if err := client.Ping(ctx, nil); err != nil {
			return fmt.Errorf("mongodb %s: %w", name, err)
		}
	}
	return nil
}

// Close disconnects every client.
func Close(ctx context.Context) {
	clientsMu.Lock()
	defer clientsMu.Unlock()
	for name, client := range clients {
		if err := client.Disconnect(ctx); err != nil {
			logger.L().Warn("failed to disconnect MongoDB", zap.String("db", name), zap.Error(err))
		}
		delete(clients, name)
	}
}

// IndexInfo describes one index to ensure on a collection key.
type IndexInfo struct {
	CollectionKey string
	Keys          bson.D
	Name          string
	Unique        bool
}

// AnalyticsIndexes are created on the analytics database at startup.
var AnalyticsIndexes = []IndexInfo{
	{CollectionKey: "logs", Keys: bson.D{{Key: "timestamp", Value: -1}}, Name: "timestamp_desc"},
	{CollectionKey: "logs", Keys: bson.D{{Key: "endpoint", Value: 1}}, Name: "endpoint_idx"},
	{CollectionKey: "search", Keys: bson.D{{Key: "occurred_at", Value: -1}}, Name: "occurred_at_desc"},
	{CollectionKey: "search", Keys: bson.D{{Key: "filters.city", Value: 1}}, Name: "city_idx"},
	{CollectionKey: "search", Keys: bson.D{{Key: "user_id", Value: 1}}, Name: "user_id_idx"},
}

// EnsureIndexes creates the given indexes on dbName, skipping collections that are not configured.
func EnsureIndexes(ctx context.Context, dbName string, indexes []IndexInfo) error {
	created := 0
	for _, idx := range indexes {
		collection, err := GetCollection(dbName, idx.CollectionKey)
		if err != nil {
			logger.L().Debug("skipping index", zap.String("name", idx.Name), zap.Error(err))
			continue
		}
		model := mongo.IndexModel{
			Keys:    idx.Keys,
			Options: options.Index().SetName(idx.Name).SetUnique(idx.Unique),
		}
		if _, err := collection.Indexes().CreateOne(ctx, model); err != nil {
			return fmt.Errorf("create index %s: %w", idx.Name, err)
		}
		created++
	}
	logger.L().Info("MongoDB indexes ensured", zap.String("db", dbName), zap.Int("count", created))
	return nil
}
