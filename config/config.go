package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/joho/godotenv"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const configFileEnvName = "STOREFRONT_CONFIG_FILE"

type catalog struct {
	Theme string `mapstructure:"theme"`
	File  string `mapstructure:"file"`
}

type pricing struct {
	TaxRate               float64 `mapstructure:"tax_rate"`
	FreeShippingThreshold float64 `mapstructure:"free_shipping_threshold"`
	ShippingFee           float64 `mapstructure:"shipping_fee"`
}

type checkout struct {
	PaymentDelay   time.Duration `mapstructure:"payment_delay"`
	PaymentTimeout time.Duration `mapstructure:"payment_timeout"`
	MaxCharge      float64       `mapstructure:"max_charge"`
	CartTTL        time.Duration `mapstructure:"cart_ttl"`
}

type consumers struct {
	ConfirmationGroup string `mapstructure:"confirmation_group"`
}

type topics struct {
	Orders string `mapstructure:"orders"`
	Leads  string `mapstructure:"leads"`
}

type brokerTLS struct {
	CA   string `mapstructure:"ca"`
	Cert string `mapstructure:"cert"`
	Key  string `mapstructure:"key"`
}

type broker struct {
	SeedBrokers        []string  `mapstructure:"seed_brokers"`
	SchemaRegistryURLs []string  `mapstructure:"schema_registry_urls"`
	Topics             topics    `mapstructure:"topics"`
	Consumers          consumers `mapstructure:"consumers"`
	TLS                brokerTLS `mapstructure:"tls"`
}

type Config struct {
	LogLevel       slog.Level `mapstructure:"log_level"`
	HTTPServerAddr string     `mapstructure:"http_server_addr"`
	SQLDB          string     `mapstructure:"sql_db"`
	Catalog        catalog    `mapstructure:"catalog"`
	Pricing        pricing    `mapstructure:"pricing"`
	Checkout       checkout   `mapstructure:"checkout"`
	Broker         broker     `mapstructure:"broker"`
}

func Load() Config {
	if err := loadDotEnv(".env"); err != nil {
		die(err)
	}

	cfg, err := load(getConfigFilepath())
	if err != nil {
		die(err)
	}
	return cfg
}

// loadDotEnv exports the variables of an optional dotenv file.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, err
	}

	var cfg Config
	err := v.UnmarshalExact(&cfg, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			mapstructure.TextUnmarshallerHookFunc(),
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		),
	))
	if err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	rules := domain.DefaultPricingRules()

	v.SetDefault("log_level", "info")
	v.SetDefault("http_server_addr", ":8080")
	v.SetDefault("catalog.theme", "coffee")
	v.SetDefault("pricing.tax_rate", rules.TaxRate)
	v.SetDefault("pricing.free_shipping_threshold", rules.FreeShippingThreshold)
	v.SetDefault("pricing.shipping_fee", rules.ShippingFee)
	v.SetDefault("checkout.payment_delay", "2s")
	v.SetDefault("checkout.payment_timeout", "10s")
	v.SetDefault("checkout.cart_ttl", "24h")
	v.SetDefault("broker.topics.orders", "storefront-orders")
	v.SetDefault("broker.topics.leads", "storefront-leads")
	v.SetDefault("broker.consumers.confirmation_group", "storefront-confirmations")
}

func getConfigFilepath() string {
	cmdLine := pflag.NewFlagSet(os.Args[0], pflag.ExitOnError)
	arg := cmdLine.String("config", "/config.yaml", "config file")
	_ = cmdLine.Parse(os.Args[1:])
	env, ok := os.LookupEnv(configFileEnvName)
	if ok {
		return env
	}
	return *arg
}

func die(err error) {
	fmt.Printf("failed to load config file: %v\n", err)
	os.Exit(2)
}

func (c Config) PricingRules() domain.PricingRules {
	return domain.PricingRules{
		TaxRate:               c.Pricing.TaxRate,
		FreeShippingThreshold: c.Pricing.FreeShippingThreshold,
		ShippingFee:           c.Pricing.ShippingFee,
	}
}

// BrokerEnabled reports whether events are published to kafka.
func (c Config) BrokerEnabled() bool {
	return len(c.Broker.SeedBrokers) != 0
}

func (c Config) BrokerTLSEnabled() bool {
	t := c.Broker.TLS
	return t.CA != "" && t.Cert != "" && t.Key != ""
}

func (c Config) Print() {
	tamplate := `
	General:
	LogLevel=%q
	HTTPServerAddr=%q
	SQLDB=%q

	Catalog:
	Theme=%q
	File=%q

	Pricing:
	TaxRate=%v
	FreeShippingThreshold=%v
	ShippingFee=%v

	Checkout:
	PaymentDelay=%s
	PaymentTimeout=%s
	MaxCharge=%v
	CartTTL=%s

	BrokerConfig:
	SeedBrokers=%q
	SchemaRegistryURLs=%q
	TLS=%t
	Topics:
		Orders=%q
		Leads=%q
	Consumers:
		ConfirmationGroup=%q

`
	fmt.Println("Loaded config:")
	fmt.Printf(
		strings.TrimLeft(tamplate, "\n"),
		c.LogLevel,
		c.HTTPServerAddr,
		maskDSN(c.SQLDB),
		c.Catalog.Theme,
		c.Catalog.File,
		c.Pricing.TaxRate,
		c.Pricing.FreeShippingThreshold,
		c.Pricing.ShippingFee,
		c.Checkout.PaymentDelay,
		c.Checkout.PaymentTimeout,
		c.Checkout.MaxCharge,
		c.Checkout.CartTTL,
		c.Broker.SeedBrokers,
		c.Broker.SchemaRegistryURLs,
		c.BrokerTLSEnabled(),
		c.Broker.Topics.Orders,
		c.Broker.Topics.Leads,
		c.Broker.Consumers.ConfirmationGroup,
	)
}

// maskDSN hides the password of a postgres URL.
func maskDSN(dsn string) string {
	scheme, rest, ok := strings.Cut(dsn, "://")
	if !ok {
		return dsn
	}
	userinfo, host, ok := strings.Cut(rest, "@")
	if !ok {
		return dsn
	}
	user, _, hasPass := strings.Cut(userinfo, ":")
	if !hasPass {
		return dsn
	}
	return scheme + "://" + user + ":***@" + host
}
