package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	_ "github.com/jhoicas/bom-api/docs"
	appbom "github.com/jhoicas/bom-api/internal/application/bom"
	"github.com/jhoicas/bom-api/internal/application/item"
	"github.com/jhoicas/bom-api/internal/application/reference"
	"github.com/jhoicas/bom-api/internal/domain/repository"
	"github.com/jhoicas/bom-api/internal/infrastructure/erpxml"
	"github.com/jhoicas/bom-api/internal/infrastructure/events"
	"github.com/jhoicas/bom-api/internal/infrastructure/memstore"
	infrapdf "github.com/jhoicas/bom-api/internal/infrastructure/pdf"
	"github.com/jhoicas/bom-api/internal/infrastructure/postgres"
	"github.com/jhoicas/bom-api/internal/infrastructure/redislock"
	httpRouter "github.com/jhoicas/bom-api/internal/interfaces/http"
	"github.com/jhoicas/bom-api/pkg/config"
	"github.com/jhoicas/bom-api/pkg/logger"
	"github.com/jhoicas/bom-api/pkg/tracing"
)

// storage adaptadores de persistencia según BOM_STORAGE_DRIVER.
type storage struct {
	tx     repository.TxRunner
	repos  repository.TxRepos
	erp    repository.ERPReader
	master repository.MasterDataRepository
	close  func()
}

func openStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) (*storage, error) {
	if cfg.BOM.StorageDriver == "memory" {
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
		store := memstore.New()
		return &storage{tx: store, repos: store.Repos(), erp: store, master: store, close: func() {}}, nil
	}
	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	if err := postgres.ApplyMigrations(ctx, pool, log); err != nil {
		pool.Close()
		return nil, err
	}
	erp := postgres.NewERPReader(pool)
	return &storage{
		tx:     postgres.NewTxRunner(pool),
		repos:  postgres.NewRepos(pool),
		erp:    erp,
		master: erp,
		close:  pool.Close,
	}, nil
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.BOM.StorageDriver).
		Msg("iniciando aplicación")
	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("JWT_SECRET es obligatorio")
	}

	ctx := context.Background()
	shutdownTracing, err := tracing.Init(ctx, log, cfg.App, cfg.Tracing)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar trazas")
	}

	st, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer st.close()

	// Candado por distinta: Redis si está configurado, si no en proceso (una sola réplica).
	var locker appbom.Locker = redislock.NewLocal()
	var redisLocker *redislock.RedisLocker
	if cfg.Redis.URL != "" {
		redisLocker, err = redislock.New(cfg.Redis.URL, cfg.Redis.LockTTL, log)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		locker = redisLocker
	}

	var publisher appbom.EventPublisher = appbom.NopPublisher{}
	var kafkaPublisher *events.KafkaPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		kafkaPublisher = events.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		publisher = kafkaPublisher
	}

	bomSvc := appbom.NewService(appbom.Deps{
		Tx:     st.tx,
		Repos:  st.repos,
		ERP:    st.erp,
		Locker: locker,
		Events: publisher,
		Log:    log,
	}, appbom.Options{
		TempCodePrefix:  cfg.BOM.TempCodePrefix,
		HeavyOpTimeout:  cfg.BOM.HeavyOpTimeout,
		MaxImportLevels: cfg.BOM.MaxImportLevels,
	})
	itemSvc := item.NewService(st.tx, st.repos.Items, st.erp, bomSvc.Composer(), locker, log,
		cfg.BOM.TempCodePrefix, cfg.BOM.MaxImportLevels)
	linker := reference.NewLinker(st.repos.References, st.repos.Items)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: cfg.BOM.HeavyOpTimeout + 5*time.Second,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "BOM API",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name, "storage": cfg.BOM.StorageDriver})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		BOMs:       bomSvc,
		Items:      itemSvc,
		References: linker,
		MasterData: st.master,
		PDF:        infrapdf.NewMarotoPDFGenerator(),
		XML:        erpxml.NewExporter(),
		Log:        log,
		JWTSecret:  cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}
	if kafkaPublisher != nil {
		kafkaPublisher.Close()
	}
	if redisLocker != nil {
		if err := redisLocker.Close(); err != nil {
			log.Warn().Err(err).Msg("cerrar Redis")
		}
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("vaciar trazas")
	}

	log.Info().Msg("aplicación detenida")
}
