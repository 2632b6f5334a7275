package routes

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/paisaone/paisa_core/internal/config"
	"github.com/paisaone/paisa_core/internal/fees"
	"github.com/paisaone/paisa_core/internal/idgen"
	"github.com/paisaone/paisa_core/internal/ledger"
	"github.com/paisaone/paisa_core/internal/middleware"
	"github.com/paisaone/paisa_core/internal/payment"
	"github.com/paisaone/paisa_core/internal/safe"
	"github.com/paisaone/paisa_core/internal/topup"
	"github.com/paisaone/paisa_core/internal/transfer"
	"github.com/paisaone/paisa_core/internal/wallet"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and all application routes. With a nil DB the
// domain services run on in-memory stores, which is only acceptable in dev.
func Setup(app *fiber.App, d Deps) error {
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} -  ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	RegisterHealthRoutes(app, d)

	// Repositories: PostgreSQL when available, memory stores otherwise.
	var (
		walletRepo   wallet.Repository
		ledgerRepo   ledger.Repository
		feeRepo      fees.Repository
		paymentRepo  payment.Repository
		topupRepo    topup.Repository
		safeRepo     safe.Repository
		transferRepo transfer.Repository
	)
	if d.DB != nil {
		walletRepo = wallet.NewPostgresRepository(d.DB)
		ledgerRepo = ledger.NewPostgresRepository(d.DB)
		feeRepo = fees.NewPostgresRepository(d.DB)
		paymentRepo = payment.NewPostgresRepository(d.DB)
		topupRepo = topup.NewPostgresRepository(d.DB)
		safeRepo = safe.NewPostgresRepository(d.DB, idgen.NewPostgresSequence(d.DB, "safe_deposit"))
		transferRepo = transfer.NewPostgresRepository(d.DB)
	} else {
		walletMem := wallet.NewMemoryRepository()
		ledgerMem := ledger.NewMemoryRepository()
		feeMem := fees.NewMemoryRepository()
		seedDevFeeSchedules(feeMem)
		walletRepo = walletMem
		ledgerRepo = ledgerMem
		feeRepo = feeMem
		paymentRepo = payment.NewMemoryRepository(walletMem, ledgerMem)
		topupRepo = topup.NewMemoryRepository(walletMem, ledgerMem)
		safeRepo = safe.NewMemoryRepository(idgen.NewMemorySequence(), walletMem, ledgerMem)
		transferRepo = transfer.NewMemoryRepository(walletMem, ledgerMem)
	}

	walletSvc := wallet.NewService(walletRepo)
	ledgerSvc := ledger.NewService(ledgerRepo)
	feeSvc := fees.NewService(feeRepo)
	paymentSvc := payment.NewService(paymentRepo, walletSvc, feeSvc, nil, d.Logger)
	topupSvc := topup.NewService(topupRepo, walletSvc, d.Logger)
	safeSvc := safe.NewService(safeRepo, walletSvc, d.Logger)
	transferSvc := transfer.NewService(transferRepo, walletSvc, d.Logger)

	api := app.Group("/api/v1")
	api.Get("/ping", func(c *fiber.Ctx) error {
		reqID, _ := c.Locals(middleware.HeaderRequestID).(string)
		return c.Status(http.StatusOK).JSON(fiber.Map{
			"status":     "ok",
			"request_id": reqID,
			"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
		})
	})

	RegisterWalletRoutes(api, wallet.NewHandler(walletSvc))
	RegisterLedgerRoutes(api, ledger.NewHandler(ledgerSvc))
	RegisterPaymentRoutes(api, payment.NewHandler(paymentSvc))
	RegisterTopUpRoutes(api, topup.NewHandler(topupSvc))
	RegisterSafeRoutes(api, safe.NewHandler(safeSvc))
	RegisterTransferRoutes(api, transfer.NewHandler(transferSvc))

	return nil
}

// seedDevFeeSchedules installs the default schedules the dev environment
// expects so payments can resolve fees without a database.
func seedDevFeeSchedules(repo *fees.MemoryRepository) {
	repo.Put(fees.Schedule{
		ID:          "dev-card",
		PaymentType: string(payment.TypeCard),
		FeeType:     fees.TypePercentage,
		Fee:         decimal.NewFromInt(2),
		MinAmount:   500,
		MaxAmount:   5000,
	})
	repo.Put(fees.Schedule{
		ID:          "dev-bank",
		PaymentType: string(payment.TypeBankTransfer),
		FeeType:     fees.TypeFlat,
		Fee:         decimal.NewFromInt(200),
	})
	repo.Put(fees.Schedule{
		ID:            "dev-others",
		PaymentType:   string(payment.TypeOthers),
		FeeType:       fees.TypePercentage,
		Fee:           decimal.NewFromInt(1),
		MinAmount:     100,
		AnyUpperLimit: true,
	})
}
