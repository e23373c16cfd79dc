package db

import (
	"database/sql"
	"time"

	"estate-listing/model"
	"estate-listing/pkg/config"
	"estate-listing/pkg/database"
	"estate-listing/pkg/logger"
	"estate-listing/pkg/monitoring"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Dao *gorm.DB

// Init opens the configured database, migrates the schema when asked to and starts pool monitoring.
func Init() {
	cfg := config.GetConfig()

	openDb, err := database.Open(cfg.Database)
	if err != nil {
		logger.L().Fatal("db connection error", zap.Error(err))
	}

	if cfg.Database.AutoMigrate {
		if err := database.AutoMigrate(openDb, model.All()...); err != nil {
			logger.L().Fatal("db migration error", zap.Error(err))
		}
	}

	dbCon, err := openDb.DB()
	if err != nil {
		logger.L().Fatal("openDb.DB error", zap.Error(err))
	}

	logger.L().Info("database pool configured",
		zap.String("driver", cfg.Database.Driver),
		zap.Int("max_open", cfg.Database.MaxOpenConns),
		zap.Int("max_idle", cfg.Database.MaxIdleConns),
		zap.Duration("max_lifetime", cfg.Database.ConnMaxLifetime))
	Dao = openDb

	go startDBMonitoring(dbCon)
}

// startDBMonitoring 启动数据库连接池监控
func startDBMonitoring(dbCon *sql.DB) {
	ticker := time.NewTicker(60 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		stats := dbCon.Stats()

		// 只在连接使用异常时记录日志
		if stats.MaxOpenConnections > 0 {
			poolUsageRate := float64(stats.OpenConnections) / float64(stats.MaxOpenConnections)
			if poolUsageRate > 0.7 || stats.WaitCount > 0 {
				logger.L().Warn("database pool under pressure",
					zap.Int("open", stats.OpenConnections),
					zap.Int("max_open", stats.MaxOpenConnections),
					zap.Int("in_use", stats.InUse),
					zap.Int("idle", stats.Idle),
					zap.Int64("wait_count", stats.WaitCount))
			}
		}

		monitoring.UpdateDBConnections(stats.InUse)
	}
}
