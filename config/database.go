package config

import (
	"context"
	"fmt"
	"time"

	"vmp-edtech-backend/internal/domain"
	"vmp-edtech-backend/internal/repository"
	"vmp-edtech-backend/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type Database struct {
	PG    *gorm.DB
	Mongo *mongo.Database
	Redis *redis.Client // nil when REDIS_URL is empty

	mongoClient *mongo.Client
}

func ConnectDB(ctx context.Context, cfg *Config, log *logger.Logger) (*Database, error) {
	// 1. PostgreSQL Connection
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=%s",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort, cfg.DBTimeZone)
	gormCfg := &gorm.Config{TranslateError: true}
	if cfg.IsProduction() {
		gormCfg.Logger = gormlogger.Default.LogMode(gormlogger.Warn)
	}
	pgDB, err := gorm.Open(postgres.Open(dsn), gormCfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	// 2. MongoDB Connection
	mctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	mongoClient, err := mongo.Connect(mctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := mongoClient.Ping(mctx, nil); err != nil {
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	mongoDB := mongoClient.Database(cfg.MongoDBName)
	if err := repository.EnsureModuleIndexes(mctx, mongoDB); err != nil {
		return nil, fmt.Errorf("mongo indexes: %w", err)
	}

	db := &Database{PG: pgDB, Mongo: mongoDB, mongoClient: mongoClient}

	// 3. Redis (optional)
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		client := redis.NewClient(opts)
		if err := client.Ping(mctx).Err(); err != nil {
			log.Warn("redis unreachable, public rate limit disabled", "error", err)
			_ = client.Close()
		} else {
			db.Redis = client
		}
	}

	log.Info("connected to databases", "postgres", cfg.DBHost, "mongo_db", cfg.MongoDBName, "redis", db.Redis != nil)
	return db, nil
}

func (d *Database) Close(ctx context.Context) {
	if sqlDB, err := d.PG.DB(); err == nil {
		_ = sqlDB.Close()
	}
	if d.mongoClient != nil {
		_ = d.mongoClient.Disconnect(ctx)
	}
	if d.Redis != nil {
		_ = d.Redis.Close()
	}
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.Company{},
		&domain.User{},
		&domain.Course{},
		&domain.Enrollment{},
		&domain.ModuleProgress{},
		&domain.Exam{},
		&domain.Evidence{},
		&domain.Credential{},
		&domain.Quote{},
		&domain.PasswordResetToken{},
	)
}
