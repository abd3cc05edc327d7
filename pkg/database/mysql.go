package database

import (
	"fmt"
	"time"

	"go-boutique/pkg/config"
	"go-boutique/pkg/logger"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// InitMySQL 初始化 MySQL 连接
func InitMySQL(cfg config.MysqlConfig, log *zap.Logger, tracing bool) (*gorm.DB, error) {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.User,
		cfg.Password,
		cfg.Host,
		cfg.Port,
		cfg.DbName,
	)

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:         logger.NewGormLogger(log, logger.GormLevel(cfg.LogLevel)),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening mysql: %w", err)
	}

	if tracing {
		if err := db.Use(otelgorm.NewPlugin(otelgorm.WithDBName(cfg.DbName))); err != nil {
			return nil, fmt.Errorf("registering otelgorm: %w", err)
		}
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// 设置连接池
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	log.Info("MySQL connected", zap.String("host", cfg.Host), zap.String("db", cfg.DbName))
	return db, nil
}
