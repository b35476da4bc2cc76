// Package config は環境変数から設定を読み込み、アプリケーション全体で使用する設定を提供します。
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// ユーザーストアの種別
const (
	UserStoreMemory   = "memory"
	UserStorePostgres = "postgres"
	UserStoreSQLite   = "sqlite"
	UserStoreRedis    = "redis"
)

// セッションストアの種別
const (
	SessionBackendCookie = "cookie"
	SessionBackendMemory = "memory"
)

const defaultEnvFile = ".env.local"

// Config はアプリケーションの設定を保持する構造体です。
type Config struct {
	// サーバー設定
	Port    string // HTTPサーバーのポート番号
	GinMode string // Ginの実行モード (debug, release, test)

	// セッション設定
	SessionSecret        string // セッション署名用の秘密鍵
	SessionBackend       string // cookie または memory
	SessionMaxAgeSeconds int    // セッションの最大寿命（秒）

	// ユーザーストア設定
	UserStore           string // memory, postgres, sqlite, redis
	DatabaseURL         string // PostgreSQL接続URL
	SQLitePath          string // SQLiteファイルのパス
	RedisURL            string // Redis接続URL
	StoreConnectRetries int    // 起動時の接続リトライ回数

	// パスワード設定
	BcryptCost int

	// ログ/メトリクス設定
	LogFormat      string // text または json
	LogLevel       string // debug, info, warn, error
	MetricsEnabled bool

	// CORS設定
	CORSAllowedOrigins string // CORS許可オリジン（カンマ区切り、空なら無効）
}

// Load は環境変数から設定を読み込みます。
// envFile が空の場合は .env.local をカレントディレクトリと親ディレクトリから探します。
func Load(envFile string) (*Config, error) {
	loadEnvFile(envFile)

	config := &Config{
		Port:    getEnv("PORT", "4000"),
		GinMode: getEnv("GIN_MODE", "debug"),

		SessionSecret:        getEnv("SESSION_SECRET", ""),
		SessionBackend:       getEnv("SESSION_BACKEND", SessionBackendCookie),
		SessionMaxAgeSeconds: getEnvAsInt("SESSION_MAX_AGE_SECONDS", 86400),

		UserStore:           getEnv("USER_STORE", UserStoreMemory),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		SQLitePath:          getEnv("SQLITE_PATH", "userauth.db"),
		RedisURL:            getEnv("REDIS_URL", "redis://127.0.0.1:6379/0"),
		StoreConnectRetries: getEnvAsInt("STORE_CONNECT_RETRIES", 5),

		BcryptCost: getEnvAsInt("BCRYPT_COST", 10),

		LogFormat:      getEnv("LOG_FORMAT", "text"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),

		CORSAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", ""),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func loadEnvFile(path string) {
	if path != "" {
		_ = godotenv.Load(path)
		return
	}

	if err := godotenv.Load(defaultEnvFile); err == nil {
		return
	}

	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	parent := filepath.Dir(cwd)
	if parent == "" || parent == cwd {
		return
	}

	_ = godotenv.Load(filepath.Join(parent, defaultEnvFile))
}

// Validate は設定の妥当性を検証します。
func (c *Config) Validate() error {
	switch c.UserStore {
	case UserStoreMemory, UserStoreSQLite, UserStoreRedis:
	case UserStorePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when USER_STORE=postgres")
		}
	default:
		return fmt.Errorf("unknown USER_STORE: %q", c.UserStore)
	}

	switch c.SessionBackend {
	case SessionBackendCookie, SessionBackendMemory:
	default:
		return fmt.Errorf("unknown SESSION_BACKEND: %q", c.SessionBackend)
	}

	if c.SessionMaxAgeSeconds <= 0 {
		return fmt.Errorf("SESSION_MAX_AGE_SECONDS must be positive")
	}

	// ローカル開発では秘密鍵は任意、本番では必須
	if c.GinMode == "release" {
		if c.SessionSecret == "" {
			return fmt.Errorf("SESSION_SECRET is required in release mode")
		}
		if c.UserStore == UserStoreMemory {
			return fmt.Errorf("USER_STORE=memory is not allowed in release mode")
		}
	}

	return nil
}

// AllowedOrigins は CORS 許可オリジンを配列で返します。
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// SecretOrDefault は署名鍵を返します。未設定時は開発用の固定値を使います。
func (c *Config) SecretOrDefault() []byte {
	if c.SessionSecret == "" {
		return []byte("userauth-development-secret")
	}
	return []byte(c.SessionSecret)
}

// getEnv は環境変数を取得し、存在しない場合はデフォルト値を返します。
func getEnv(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt は環境変数を整数として取得します。
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
