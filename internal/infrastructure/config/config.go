package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/wichananm65/pet-shop-checkout/internal/pricing"
)

// Config holds environment-driven configuration.
type Config struct {
	Addr         string        `mapstructure:"PET_SHOP_ADDR"`
	DatabaseURL  string        `mapstructure:"DATABASE_URL"`
	JWTSecret    string        `mapstructure:"JWT_SECRET"`
	RedisAddr    string        `mapstructure:"REDIS_ADDR"`
	CartCacheTTL time.Duration `mapstructure:"CART_CACHE_TTL"`
	LogLevel     string        `mapstructure:"LOG_LEVEL"`
	LogPretty    bool          `mapstructure:"LOG_PRETTY"`
	AutoMigrate  bool          `mapstructure:"AUTO_MIGRATE"`

	TaxRateElectronics    string `mapstructure:"TAX_RATE_ELECTRONICS"`
	TaxRateDefault        string `mapstructure:"TAX_RATE_DEFAULT"`
	ShippingFee           string `mapstructure:"SHIPPING_FEE"`
	FreeShippingThreshold string `mapstructure:"FREE_SHIPPING_THRESHOLD"`
	ElectronicsCategories string `mapstructure:"ELECTRONICS_CATEGORIES"`

	Pricing pricing.Config `mapstructure:"-"`
}

func defaults() map[string]any {
	p := pricing.DefaultConfig()
	return map[string]any{
		"PET_SHOP_ADDR":           ":8080",
		"DATABASE_URL":            "",
		"JWT_SECRET":              "",
		"REDIS_ADDR":              "",
		"CART_CACHE_TTL":          "5m",
		"LOG_LEVEL":               "info",
		"LOG_PRETTY":              false,
		"AUTO_MIGRATE":            true,
		"TAX_RATE_ELECTRONICS":    p.ElectronicsRate.String(),
		"TAX_RATE_DEFAULT":        p.DefaultRate.String(),
		"SHIPPING_FEE":            p.ShippingFee.String(),
		"FREE_SHIPPING_THRESHOLD": p.FreeShippingThreshold.String(),
		"ELECTRONICS_CATEGORIES":  strings.Join(p.ElectronicsCategories, ","),
	}
}

// Load reads a .env file when present, then environment variables.
func Load() (Config, error) {
	_ = godotenv.Load()
	return load(viper.New())
}

func load(v *viper.Viper) (Config, error) {
	for k, val := range defaults() {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	p, err := cfg.pricing()
	if err != nil {
		return Config{}, err
	}
	cfg.Pricing = p
	return cfg, nil
}

func (c Config) pricing() (pricing.Config, error) {
	var p pricing.Config
	var err error
	if p.ElectronicsRate, err = parseAmount("TAX_RATE_ELECTRONICS", c.TaxRateElectronics); err != nil {
		return pricing.Config{}, err
	}
	if p.DefaultRate, err = parseAmount("TAX_RATE_DEFAULT", c.TaxRateDefault); err != nil {
		return pricing.Config{}, err
	}
	for key, rate := range map[string]decimal.Decimal{"TAX_RATE_ELECTRONICS": p.ElectronicsRate, "TAX_RATE_DEFAULT": p.DefaultRate} {
		if rate.GreaterThan(decimal.NewFromInt(1)) {
			return pricing.Config{}, fmt.Errorf("%s must be a fraction, got %s", key, rate)
		}
	}
	if p.ShippingFee, err = parseAmount("SHIPPING_FEE", c.ShippingFee); err != nil {
		return pricing.Config{}, err
	}
	if p.FreeShippingThreshold, err = parseAmount("FREE_SHIPPING_THRESHOLD", c.FreeShippingThreshold); err != nil {
		return pricing.Config{}, err
	}

	for _, name := range strings.Split(c.ElectronicsCategories, ",") {
		if name = strings.TrimSpace(name); name != "" {
			p.ElectronicsCategories = append(p.ElectronicsCategories, name)
		}
	}
	return p, nil
}

func parseAmount(key, raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%s: %w", key, err)
	}
	if d.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("%s must not be negative", key)
	}
	return d, nil
}
