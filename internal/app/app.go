package app

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/niksmo/storefront/config"
	"github.com/niksmo/storefront/internal/adapter"
	"github.com/niksmo/storefront/internal/adapter/catalog"
	"github.com/niksmo/storefront/internal/adapter/httphandler"
	"github.com/niksmo/storefront/internal/adapter/kafka"
	"github.com/niksmo/storefront/internal/adapter/payment"
	"github.com/niksmo/storefront/internal/adapter/storage"
	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/internal/core/service"
	"github.com/niksmo/storefront/pkg/schema"
	"github.com/twmb/franz-go/pkg/sr"
)

// handlerTimeoutMargin is added to the payment timeout so a slow
// gateway is reported by the checkout, not by the server.
const handlerTimeoutMargin = 5 * time.Second

type serdes struct {
	orderPlaced  schema.Serde
	leadCaptured schema.Serde
}

type producers struct {
	orders *kafka.OrdersProducer
	leads  *kafka.LeadsProducer
}

type storages struct {
	sqlDB         *storage.SQLDB
	orders        port.OrdersStorage
	leads         port.LeadsStorage
	confirmations port.ConfirmationStorage
}

type App struct {
	ctx              context.Context
	cfg              config.Config
	theme            domain.Theme
	serdes           serdes
	producers        producers
	storages         storages
	confirmationProc *kafka.ConfirmationProcessor
	confirmationView *kafka.ConfirmationView
	service          *service.Service
	httpServer       httphandler.HTTPServer
}

func New(ctx context.Context, config config.Config) *App {
	app := &App{ctx: ctx, cfg: config}

	app.initLogger()
	app.initCatalog()
	app.initStorages()
	if app.cfg.BrokerEnabled() {
		app.initBroker()
	}
	app.initCoreService()
	app.initInboundAdapters()

	return app
}

func (app *App) initLogger() {
	opts := &slog.HandlerOptions{Level: app.cfg.LogLevel}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, opts))
	slog.SetDefault(logger)
}

func (app *App) initCatalog() {
	const op = "App.initCatalog"

	src := catalog.NewSource(app.cfg.Catalog.Theme, app.cfg.Catalog.File)
	theme, err := src.LoadTheme(app.ctx)
	if err != nil {
		app.fallDown(op, err)
	}
	app.theme = theme
}

func (app *App) initStorages() {
	const op = "App.initStorages"

	if app.cfg.SQLDB == "" {
		mem := storage.NewMemoryStorage()
		app.storages.orders = mem
		app.storages.leads = mem
		app.storages.confirmations = mem
		slog.Info("using in-memory storage", "op", op)
		return
	}

	db, err := storage.NewSQLDB(app.ctx, app.cfg.SQLDB)
	if err != nil {
		app.fallDown(op, err)
	}
	orders := storage.NewOrdersRepository(db)
	app.storages.sqlDB = &db
	app.storages.orders = orders
	app.storages.leads = storage.NewLeadsRepository(db)
	app.storages.confirmations = orders
}

func (app *App) initBroker() {
	const op = "App.initBroker"

	ctx := app.ctx
	brokerCfg := app.cfg.Broker

	tlsConfig, err := app.brokerTLSConfig()
	if err != nil {
		app.fallDown(op, err)
	}
	kafka.ApplyTLS(tlsConfig)

	srClient, err := sr.NewClient(sr.URLs(brokerCfg.SchemaRegistryURLs...))
	if err != nil {
		app.fallDown(op, err)
	}
	schemaIdentifier := schema.NewSchemaIdentifier(srClient)

	app.serdes.orderPlaced, err = schema.NewSerdeOrderPlacedV1(
		ctx,
		schema.SubjectOpt(brokerCfg.Topics.Orders+"-value"),
		schema.SchemaIdentifierOpt(schemaIdentifier),
	)
	if err != nil {
		app.fallDown(op, err)
	}

	app.serdes.leadCaptured, err = schema.NewSerdeLeadCapturedV1(
		ctx,
		schema.SubjectOpt(brokerCfg.Topics.Leads+"-value"),
		schema.SchemaIdentifierOpt(schemaIdentifier),
	)
	if err != nil {
		app.fallDown(op, err)
	}

	ordersProducer, err := kafka.NewOrdersProducer(
		kafka.ProducerClientOpt(
			ctx, brokerCfg.SeedBrokers, brokerCfg.Topics.Orders, tlsConfig,
		),
		kafka.ProducerEncoderOpt(app.serdes.orderPlaced),
	)
	if err != nil {
		app.fallDown(op, err)
	}
	app.producers.orders = &ordersProducer

	leadsProducer, err := kafka.NewLeadsProducer(
		kafka.ProducerClientOpt(
			ctx, brokerCfg.SeedBrokers, brokerCfg.Topics.Leads, tlsConfig,
		),
		kafka.ProducerEncoderOpt(app.serdes.leadCaptured),
	)
	if err != nil {
		app.fallDown(op, err)
	}
	app.producers.leads = &leadsProducer

	app.confirmationProc, err = kafka.NewConfirmationProcessor(
		brokerCfg.SeedBrokers,
		brokerCfg.Topics.Orders,
		brokerCfg.Consumers.ConfirmationGroup,
		app.serdes.orderPlaced,
	)
	if err != nil {
		app.fallDown(op, err)
	}

	app.confirmationView, err = kafka.NewConfirmationView(
		brokerCfg.SeedBrokers,
		brokerCfg.Consumers.ConfirmationGroup,
		app.storages.confirmations,
	)
	if err != nil {
		app.fallDown(op, err)
	}
	app.storages.confirmations = app.confirmationView
}

func (app *App) brokerTLSConfig() (*tls.Config, error) {
	if !app.cfg.BrokerTLSEnabled() {
		return nil, nil
	}
	t := app.cfg.Broker.TLS
	return adapter.MakeTLSConfig(t.CA, t.Cert, t.Key)
}

func (app *App) initCoreService() {
	deps := service.Deps{
		Theme:          app.theme,
		Pricing:        app.cfg.PricingRules(),
		PaymentTimeout: app.cfg.Checkout.PaymentTimeout,
		SessionTTL:     app.cfg.Checkout.CartTTL,
		Gateway: payment.NewSimulator(
			app.cfg.Checkout.PaymentDelay, app.cfg.Checkout.MaxCharge,
		),
		Confirmations: app.storages.confirmations,
		Orders:        app.storages.orders,
		Leads:         app.storages.leads,
	}
	if app.producers.orders != nil {
		deps.OrdersProducer = app.producers.orders
	}
	if app.producers.leads != nil {
		deps.LeadsProducer = app.producers.leads
	}
	if app.confirmationProc != nil {
		deps.ConfirmationProcessor = app.confirmationProc
	}
	app.service = service.New(deps)
}

func (app *App) initInboundAdapters() {
	addr := app.cfg.HTTPServerAddr
	symbol := app.theme.CurrencySymbol

	mux := http.NewServeMux()
	httphandler.RegisterCatalog(mux, app.service)
	httphandler.RegisterCart(mux, app.service, symbol)
	httphandler.RegisterCheckout(mux, app.service, symbol)
	httphandler.RegisterLeads(mux, app.service)

	handler := httphandler.Session(httphandler.AllowJSON(mux))
	handlerTimeout := app.cfg.Checkout.PaymentTimeout + handlerTimeoutMargin
	app.httpServer = httphandler.NewHTTPServer(addr, handler, handlerTimeout)
}

// Run starts the background components and the http server.
func (app *App) Run(stopFn context.CancelFunc) {
	app.service.Run(app.ctx, stopFn)
	if app.confirmationView != nil {
		go app.confirmationView.Run(app.ctx)
	}
	go app.httpServer.Run(stopFn)

	slog.Info("application is running", "theme", app.theme.Name)
}

func (app *App) Close(ctx context.Context) {
	slog.Info("application is closing...")

	app.httpServer.Close(ctx)
	app.service.Close()
	if app.producers.orders != nil {
		app.producers.orders.Close()
	}
	if app.producers.leads != nil {
		app.producers.leads.Close()
	}
	if app.storages.sqlDB != nil {
		app.storages.sqlDB.Close()
	}

	slog.Info("application is closed")
}

func (app *App) fallDown(op string, err error) {
	panic(fmt.Errorf("%s: %w", op, err))
}
