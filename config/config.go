package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Port string
	Env  string

	JWTSecret     string
	JWTExpiration time.Duration

	DBHost     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPort     string
	DBTimeZone string

	MongoURI    string
	MongoDBName string
	RedisURL    string

	CORSOrigins []string
	FrontendURL string

	SendGridAPIKey string
	EmailFrom      string
	EmailSales     string

	PassingScore     int
	CredentialPrefix string
	PublicRateLimit  int

	SeedAdminEmail    string
	SeedAdminPassword string
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production") || strings.EqualFold(c.Env, "prod")
}

// Load reads .env (when present) and the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("config: could not read .env: %v", err)
	}
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("JWT_SECRET", "dev-secret-change-me")
	v.SetDefault("JWT_EXPIRATION", 24*time.Hour)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "vmp_edtech")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_TIMEZONE", "America/Argentina/Buenos_Aires")
	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DB_NAME", "vmp_edtech")
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("FRONTEND_URL", "http://localhost:3000")
	v.SetDefault("SENDGRID_API_KEY", "")
	v.SetDefault("EMAIL_FROM", "noreply@vmp-edtech.com")
	v.SetDefault("EMAIL_SALES", "ventas@vmp-edtech.com")
	v.SetDefault("PASSING_SCORE", 70)
	v.SetDefault("CREDENTIAL_PREFIX", "VMP")
	v.SetDefault("PUBLIC_RATE_LIMIT", 30)
	v.SetDefault("SEED_ADMIN_EMAIL", "")
	v.SetDefault("SEED_ADMIN_PASSWORD", "")

	v.AutomaticEnv()
	return v
}

func FromViper(v *viper.Viper) *Config {
	return &Config{
		Port:              v.GetString("PORT"),
		Env:               v.GetString("ENV"),
		JWTSecret:         v.GetString("JWT_SECRET"),
		JWTExpiration:     v.GetDuration("JWT_EXPIRATION"),
		DBHost:            v.GetString("DB_HOST"),
		DBUser:            v.GetString("DB_USER"),
		DBPassword:        v.GetString("DB_PASSWORD"),
		DBName:            v.GetString("DB_NAME"),
		DBPort:            v.GetString("DB_PORT"),
		DBTimeZone:        v.GetString("DB_TIMEZONE"),
		MongoURI:          v.GetString("MONGO_URI"),
		MongoDBName:       v.GetString("MONGO_DB_NAME"),
		RedisURL:          v.GetString("REDIS_URL"),
		CORSOrigins:       splitList(v.GetString("CORS_ORIGINS")),
		FrontendURL:       v.GetString("FRONTEND_URL"),
		SendGridAPIKey:    v.GetString("SENDGRID_API_KEY"),
		EmailFrom:         v.GetString("EMAIL_FROM"),
		EmailSales:        v.GetString("EMAIL_SALES"),
		PassingScore:      v.GetInt("PASSING_SCORE"),
		CredentialPrefix:  v.GetString("CREDENTIAL_PREFIX"),
		PublicRateLimit:   v.GetInt("PUBLIC_RATE_LIMIT"),
		SeedAdminEmail:    v.GetString("SEED_ADMIN_EMAIL"),
		SeedAdminPassword: v.GetString("SEED_ADMIN_PASSWORD"),
	}
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
