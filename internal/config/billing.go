package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// BillingConfig holds the billing knobs an operator may tune without a
// redeploy: the tax rate applied to every order and the currency new plans
// default to. Values from billing.yml override the environment defaults.
type BillingConfig struct {
	TaxRateBps      int64  `mapstructure:"taxRateBps"`
	DefaultCurrency string `mapstructure:"defaultCurrency"`
}

func DefaultBillingConfig(cfg Config) BillingConfig {
	return BillingConfig{
		TaxRateBps:      cfg.TaxRateBps,
		DefaultCurrency: cfg.DefaultCurrency,
	}
}

type BillingConfigHolder struct {
	current atomic.Value // holds BillingConfig
}

func NewBillingConfigHolder(cfg Config) (*BillingConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("billing")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/hostbill/config")
	v.AddConfigPath("/etc/hostbill")
	v.AddConfigPath(".")

	v.SetEnvPrefix("HOSTBILL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultBillingConfig(cfg)
	v.SetDefault("billing.taxRateBps", defaults.TaxRateBps)
	v.SetDefault("billing.defaultCurrency", defaults.DefaultCurrency)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	holder := &BillingConfigHolder{}
	if err := holder.load(v, defaults); err != nil {
		return nil, err
	}

	v.OnConfigChange(func(fsnotify.Event) {
		if err := holder.load(v, defaults); err != nil {
			log.Printf("billing config reload failed: %v", err)
		}
	})
	v.WatchConfig()

	return holder, nil
}

func (h *BillingConfigHolder) load(v *viper.Viper, defaults BillingConfig) error {
	var parsed BillingConfig
	if err := v.UnmarshalKey("billing", &parsed); err != nil {
		return err
	}
	if parsed.TaxRateBps < 0 {
		return errors.New("billing tax rate must not be negative")
	}
	if parsed.TaxRateBps == 0 {
		parsed.TaxRateBps = defaults.TaxRateBps
	}
	parsed.DefaultCurrency = strings.ToUpper(strings.TrimSpace(parsed.DefaultCurrency))
	if parsed.DefaultCurrency == "" {
		parsed.DefaultCurrency = defaults.DefaultCurrency
	}
	h.current.Store(parsed)
	return nil
}

// Current returns the active billing configuration.
func (h *BillingConfigHolder) Current() BillingConfig {
	if v, ok := h.current.Load().(BillingConfig); ok {
		return v
	}
	return BillingConfig{}
}
