package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/aldenputra/tixgate/internal/models"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string

	RedisURL string
	Mode     string

	// CodeSecret feeds the admission-code HMAC; codes from one deployment
	// are worthless against another.
	CodeSecret string

	DokuClientID  string
	DokuSecretKey string
	DokuBaseURL   string

	ReservationTTL      time.Duration
	PayoutGrace         time.Duration
	SweepInterval       time.Duration
	RefundRateThreshold float64
	VerifyRateLimit     int64
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     os.Getenv("DB_PORT"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),

		RedisURL: os.Getenv("REDIS_URL"),
		Mode:     os.Getenv("APP_MODE"),

		CodeSecret: os.Getenv("CODE_SECRET"),

		DokuClientID:  os.Getenv("DOKU_CLIENT_ID"),
		DokuSecretKey: os.Getenv("DOKU_SECRET_KEY"),
		DokuBaseURL:   os.Getenv("DOKU_BASE_URL"),

		ReservationTTL:      envDuration("RESERVATION_TTL", 15*time.Minute),
		PayoutGrace:         envDuration("PAYOUT_GRACE", 7*24*time.Hour),
		SweepInterval:       envDuration("SWEEP_INTERVAL", time.Minute),
		RefundRateThreshold: envFloat("REFUND_RATE_THRESHOLD", 0.25),
		VerifyRateLimit:     int64(envInt("VERIFY_RATE_LIMIT", 60)),
	}

	if cfg.CodeSecret == "" {
		return nil, fmt.Errorf("CODE_SECRET must be set")
	}
	if cfg.DokuBaseURL == "" {
		cfg.DokuBaseURL = "https://api-sandbox.doku.com"
	}
	return cfg, nil
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func enableUUIDExtension(db *gorm.DB) error {
	return db.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\"").Error
}

func InitDatabase(cfg *Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable TimeZone=UTC",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	if err := enableUUIDExtension(db); err != nil {
		return nil, err
	}

	err = db.AutoMigrate(
		&models.Role{}, &models.User{}, &models.Event{},
		&models.TicketTemplate{}, &models.Ticket{}, &models.Payout{},
		&models.Coupon{}, &models.UserCoupon{},
	)
	if err != nil {
		return nil, err
	}

	seedRoles(db)

	return db, nil
}

func seedRoles(db *gorm.DB) {
	roles := []models.Role{
		{Name: "organizer"},
		{Name: "attendee"},
		{Name: "admin"},
	}

	for _, role := range roles {
		var existingRole models.Role
		result := db.Where("name = ?", role.Name).First(&existingRole)
		if result.Error != nil {
			db.Create(&role)
		}
	}
}

func NewRedisClient(url string) (*redis.Client, error) {
	if url == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return redis.NewClient(opts), nil
}
