package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/shopspring/decimal"
)

// Configはアプリ全体の設定
type Config struct {
	Port string // サーバーポート（8080）

	DatabaseURL      string // 指定があれば接続文字列をそのまま使う
	PostgresUser     string // DBユーザー
	PostgresPassword string // DBパスワード
	PostgresDB       string // DB名
	PostgresHost     string // DBホスト（localhost）
	PostgresPort     int    // DBポート（5432）
	PostgresSSLMode  string // disableなど

	JWTSecret string // JWT検証シークレット

	// 送料ポリシー
	ShippingFlatFee       decimal.Decimal // 定額送料
	FreeShippingThreshold decimal.Decimal // この小計以上で送料無料

	PaymentProvider string // スタブ決済に記録するプロバイダ名
	Currency        string // 注文通貨（TRYなど）

	GoEnv string // dev/prod
}

// Loadは環境変数から設定を読む
func Load() (Config, error) {
	cfg := Config{
		Port: getenv("PORT", "8080"),

		DatabaseURL:      os.Getenv("DATABASE_URL"),
		PostgresUser:     os.Getenv("POSTGRES_USER"),
		PostgresPassword: os.Getenv("POSTGRES_PASSWORD"),
		PostgresDB:       os.Getenv("POSTGRES_DB"),
		PostgresHost:     getenv("POSTGRES_HOST", "localhost"),
		PostgresSSLMode:  getenv("POSTGRES_SSLMODE", "disable"),

		JWTSecret: os.Getenv("JWT_SECRET"),

		PaymentProvider: getenv("PAYMENT_PROVIDER", "mockpay"),
		Currency:        getenv("CURRENCY", "TRY"),

		GoEnv: getenv("GO_ENV", "dev"),
	}

	pgPort, err := atoiEnv("POSTGRES_PORT", 5432)
	if err != nil {
		return Config{}, err
	}
	cfg.PostgresPort = pgPort

	flat, err := decimalEnv("SHIPPING_FLAT_FEE", "50.00")
	if err != nil {
		return Config{}, err
	}
	cfg.ShippingFlatFee = flat

	threshold, err := decimalEnv("FREE_SHIPPING_THRESHOLD", "500.00")
	if err != nil {
		return Config{}, err
	}
	cfg.FreeShippingThreshold = threshold

	//必須チェック（DATABASE_URLがあれば個別のDB設定は不要）
	if cfg.DatabaseURL == "" {
		if cfg.PostgresUser == "" {
			return Config{}, fmt.Errorf("POSTGRES_USER is required")
		}
		if cfg.PostgresPassword == "" {
			return Config{}, fmt.Errorf("POSTGRES_PASSWORD is required")
		}
		if cfg.PostgresDB == "" {
			return Config{}, fmt.Errorf("POSTGRES_DB is required")
		}
	}
	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

func getenv(key string, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func atoiEnv(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be number: %w", key, err)
	}
	return i, nil
}

func decimalEnv(key string, def string) (decimal.Decimal, error) {
	v := os.Getenv(key)
	if v == "" {
		v = def
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%s must be decimal: %w", key, err)
	}
	return d, nil
}
