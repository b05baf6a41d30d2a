package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Mpesa    MpesaConfig
	Webhook  WebhookConfig
	Admin    AdminConfig
	Store    StoreConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type DatabaseConfig struct {
	URL      string
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

// DSN builds the Postgres connection string, preferring DATABASE_URL.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
		d.Host, d.User, d.Password, d.Name, d.Port,
	)
}

type MpesaConfig struct {
	BaseURL          string
	ShortCode        string
	PassKey          string
	ConsumerKey      string
	ConsumerSecret   string
	CallbackURL      string
	AccountReference string
	TransactionDesc  string
	Timeout          time.Duration
}

type WebhookConfig struct {
	// AllowedIPs gates the payment webhook. Empty means allow all (dev only).
	AllowedIPs []string
}

type AdminConfig struct {
	APIKey string
}

type StoreConfig struct {
	FrontendURL string
}

// Safaricom's published callback source addresses, used unless
// WEBHOOK_ALLOWED_IPS overrides them.
var defaultAllowedIPs = []string{
	"196.201.214.200", "196.201.214.206", "196.201.213.114", "196.201.214.207",
	"196.201.214.208", "196.201.213.44", "196.201.212.127", "196.201.212.138",
	"196.201.212.129", "196.201.212.136", "196.201.212.74", "196.201.212.69",
}

func Load() *Config {
	_ = godotenv.Load()

	timeoutSec, _ := strconv.Atoi(getEnv("MPESA_TIMEOUT_SECONDS", "30"))

	allowed := defaultAllowedIPs
	if raw := os.Getenv("WEBHOOK_ALLOWED_IPS"); raw != "" {
		allowed = nil
		for _, ip := range strings.Split(raw, ",") {
			if ip = strings.TrimSpace(ip); ip != "" {
				allowed = append(allowed, ip)
			}
		}
	}

	return &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
			Env:  getEnv("APP_ENV", "development"),
		},
		Database: DatabaseConfig{
			URL:      os.Getenv("DATABASE_URL"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: os.Getenv("DB_PASSWORD"),
			Name:     getEnv("DB_NAME", "lizmart"),
		},
		Mpesa: MpesaConfig{
			BaseURL:          getEnv("MPESA_BASE_URL", "https://api.safaricom.co.ke"),
			ShortCode:        os.Getenv("MPESA_SHORTCODE"),
			PassKey:          os.Getenv("MPESA_PASSKEY"),
			ConsumerKey:      os.Getenv("MPESA_CONSUMER_KEY"),
			ConsumerSecret:   os.Getenv("MPESA_CONSUMER_SECRET"),
			CallbackURL:      os.Getenv("MPESA_CALLBACK_URL"),
			AccountReference: getEnv("MPESA_ACCOUNT_REFERENCE", "Lizmart"),
			TransactionDesc:  getEnv("MPESA_TRANSACTION_DESC", "Payment for LizMart order"),
			Timeout:          time.Duration(timeoutSec) * time.Second,
		},
		Webhook: WebhookConfig{AllowedIPs: allowed},
		Admin:   AdminConfig{APIKey: os.Getenv("ADMIN_API_KEY")},
		Store:   StoreConfig{FrontendURL: getEnv("FRONTEND_STORE_URL", "http://localhost:3000")},
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
