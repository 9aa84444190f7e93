package main // Entry point package

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/movie-ticket-booking/internal/booking"
	"github.com/iliyamo/movie-ticket-booking/internal/config"
	"github.com/iliyamo/movie-ticket-booking/internal/database"
	"github.com/iliyamo/movie-ticket-booking/internal/handler"
	"github.com/iliyamo/movie-ticket-booking/internal/log"
	"github.com/iliyamo/movie-ticket-booking/internal/middleware"
	"github.com/iliyamo/movie-ticket-booking/internal/model"
	"github.com/iliyamo/movie-ticket-booking/internal/payment"
	"github.com/iliyamo/movie-ticket-booking/internal/queue"
	"github.com/iliyamo/movie-ticket-booking/internal/repository"
	"github.com/iliyamo/movie-ticket-booking/internal/router"
)

// store is everything the booking core needs from persistence.
type store interface {
	booking.Store
	booking.Catalog
	booking.BookingFinder
}

func main() {
	if err := config.LoadDotEnv(); err != nil {
		logrus.Fatal(err)
	}
	cfg := config.Load()
	log.Init(cfg.LogLevel, cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checks := map[string]handler.ReadyCheck{}

	st, db, err := openStore(ctx, cfg)
	if err != nil {
		logrus.WithError(err).Fatal("open store")
	}
	if db != nil {
		defer db.Close()
		checks["mysql"] = db.PingContext
	}

	rdb := config.NewRedisClient(config.LoadRedisConfig())
	if rdb != nil {
		defer rdb.Close()
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	cache := middleware.NewResponseCache(config.LoadCacheConfig(), rdb)
	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	coord := booking.NewCoordinator(st)
	coord.AddNotifier(invalidateShow(cache))
	var publisher *queue.Publisher
	if cfg.QueueEnabled {
		publisher = queue.NewPublisher(cfg.RabbitURL, st)
		coord.AddNotifier(publisher)
	}
	queries := booking.NewQueries(st, st)
	bridge := payment.NewBridge(coord, payment.NewSigner(cfg.PaymentStateSecret, cfg.PaymentStateTTL), cfg.FrontendURL)

	e := newServer(cfg, cache, limiter, coord, queries, bridge, handler.NewReadyHandler(checks))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		addr := ":" + cfg.Port
		logrus.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env, "store": cfg.StoreDriver}).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	if cfg.QueueEnabled {
		g.Go(func() error {
			return queue.NewConsumer(cfg.RabbitURL, cfg.BookingLog).Run(gctx)
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		logrus.Info("shutting down")
		if err := e.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if publisher != nil {
			if err := publisher.Wait(shutdownCtx); err != nil {
				logrus.WithError(err).Warn("booking events still in flight were dropped")
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logrus.WithError(err).Fatal("server stopped")
	}
}

func newServer(
	cfg config.Config,
	cache *middleware.ResponseCache,
	limiter echo.MiddlewareFunc,
	coord *booking.Coordinator,
	queries *booking.Queries,
	bridge *payment.Bridge,
	ready *handler.ReadyHandler,
) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewRequestValidator()
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger())

	bookings := handler.NewBookingHandler(coord, queries)
	payments := handler.NewPaymentHandler(bridge)

	router.RegisterRoutes(e, ready)
	router.RegisterPublic(e, handler.NewPublicHandler(queries), cache)
	router.RegisterCustomer(e, bookings, payments, cfg.JWTSecret, limiter)
	router.RegisterStaff(e, bookings, cfg.JWTSecret)
	router.RegisterPayments(e, payments)
	return e
}

// openStore returns the MySQL store, or an in-memory store seeded with one
// demo show when STORE_DRIVER=memory.  db is nil for the memory store.
func openStore(ctx context.Context, cfg config.Config) (store, *sql.DB, error) {
	if cfg.StoreDriver == config.StoreMemory {
		mem := booking.NewMemoryStore()
		show := mem.AddShow(
			model.Movie{ID: 1, Title: "Demo Feature"},
			model.Theater{ID: 1, OwnerID: 1, Name: "Demo Theater", Location: "Main St", TotalSeats: 100},
			model.Show{PriceCents: 1200, ShowDate: time.Now().UTC().Truncate(24 * time.Hour), ShowTime: "20:00"},
		)
		logrus.WithField("show_id", show.ID).Warn("using in-memory store; data is lost on exit")
		return mem, nil, nil
	}

	db, err := database.Open(database.DSN(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName))
	if err != nil {
		return nil, nil, fmt.Errorf("connect mysql: %w", err)
	}
	if err := database.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}
	return repository.NewStore(repository.NewShowRepo(db), repository.NewBookingRepo(db)), db, nil
}

// invalidateShow drops the cached public view of a show once its seat map
// has changed.
func invalidateShow(cache *middleware.ResponseCache) booking.Notifier {
	return booking.NotifierFunc(func(ctx context.Context, res *booking.Result) {
		cache.Invalidate(ctx, fmt.Sprintf("/v1/shows/%d", res.Booking.ShowID))
	})
}
