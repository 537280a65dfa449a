// Package application assembles the ticket system: database, store,
// registry, allocator, lifecycle controller, schedulers, digests and the
// read API. One Application per process.
package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/brentspine/discord-ticketbot/internal/allocator"
	"github.com/brentspine/discord-ticketbot/internal/category"
	"github.com/brentspine/discord-ticketbot/internal/config"
	"github.com/brentspine/discord-ticketbot/internal/database"
	"github.com/brentspine/discord-ticketbot/internal/digest"
	"github.com/brentspine/discord-ticketbot/internal/gateway"
	"github.com/brentspine/discord-ticketbot/internal/handler"
	"github.com/brentspine/discord-ticketbot/internal/kafka"
	"github.com/brentspine/discord-ticketbot/internal/lifecycle"
	"github.com/brentspine/discord-ticketbot/internal/registry"
	"github.com/brentspine/discord-ticketbot/internal/router"
	"github.com/brentspine/discord-ticketbot/internal/scheduler"
	"github.com/brentspine/discord-ticketbot/internal/store"
	"github.com/brentspine/discord-ticketbot/internal/xp"
)

const persistenceWorkers = 10

type Application struct {
	cfg          *config.Config
	store        *store.Store
	reg          *registry.Registry
	alloc        *allocator.Allocator
	ctrl         *lifecycle.Controller
	saver        *lifecycle.TicketSaver
	sweeper      *scheduler.Sweeper
	consolidator *scheduler.Consolidator
	digest       *digest.Publisher
	producer     *kafka.Producer
	srv          *http.Server
}

// New migrates the schema, connects everything and reloads the open-ticket
// working set. gw is the chat transport; pass gateway.NewLogNotifier() for
// detached runs.
func New(ctx context.Context, cfg *config.Config, gw gateway.Notifier) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := database.MigrateUp(cfg.DatabaseURL()); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	db, err := database.Open(cfg.DSN())
	if err != nil {
		return nil, err
	}

	st := store.New(db)
	reg := registry.New(st)

	alloc := allocator.New(st, gw)
	if err := registerPools(ctx, alloc, cfg); err != nil {
		return nil, err
	}
	if err := alloc.Load(ctx); err != nil {
		return nil, err
	}

	saver := lifecycle.NewTicketSaver(st, persistenceWorkers)
	xpc := xp.NewClient(cfg.XPAPIURL, cfg.XPAPIKey)
	producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
	ctrl := lifecycle.NewController(cfg, st, reg, alloc, gw, xpc, producer, saver)

	open, _, err := st.ListTickets(ctx, map[string]interface{}{"is_open = ?": true}, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("load open tickets: %w", err)
	}
	ctrl.AdoptOpenTickets(open)
	log.Printf("application: adopted %d open ticket(s)", len(open))

	sweeper := scheduler.NewSweeper(cfg, st, reg, gw, ctrl, saver)
	consolidator := scheduler.NewConsolidator(alloc, memberInfo(reg))
	dig := digest.NewPublisher(cfg, st, gw)

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	health := handler.NewHealthHandler(sqlDB.Ping)
	tickets := handler.NewTicketHandler(st)
	engine := router.New(health, tickets, cfg.AppEnv == "production")

	return &Application{
		cfg:          cfg,
		store:        st,
		reg:          reg,
		alloc:        alloc,
		ctrl:         ctrl,
		saver:        saver,
		sweeper:      sweeper,
		consolidator: consolidator,
		digest:       dig,
		producer:     producer,
		srv: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// registerPools declares the primary bins from config: the unclaimed pool,
// the pending-rating pool and one claimed pool per configured category.
func registerPools(ctx context.Context, alloc *allocator.Allocator, cfg *config.Config) error {
	if err := alloc.RegisterPrimary(ctx, allocator.PoolUnclaimed, cfg.UnclaimedBinID, "Tickets"); err != nil {
		return err
	}
	if err := alloc.RegisterPrimary(ctx, allocator.PoolPendingRating, cfg.PendingRatingBinID, "Pending Rating"); err != nil {
		return err
	}
	for catID, binID := range cfg.CategoryBins {
		cat, err := category.ByID(catID)
		if err != nil {
			log.Printf("application: CATEGORY_BINS references unknown category %q, skipping", catID)
			continue
		}
		if err := alloc.RegisterPrimary(ctx, allocator.ClaimedPool(catID), binID, cat.Label); err != nil {
			return err
		}
	}
	return nil
}

// memberInfo resolves a bin member (a ticket channel id) back to its ticket
// for the consolidation sort order.
func memberInfo(reg *registry.Registry) scheduler.MemberInfo {
	return func(member string) (string, uint64, bool) {
		t, err := reg.GetByChannel(context.Background(), member)
		if err != nil {
			return "", 0, false
		}
		return t.SupporterID, t.ID, true
	}
}

// Controller exposes the lifecycle operations to transport code.
func (a *Application) Controller() *lifecycle.Controller {
	return a.ctrl
}

// Sweeper exposes the escalation sweep for one-shot maintenance commands.
func (a *Application) Sweeper() *scheduler.Sweeper {
	return a.sweeper
}

// Consolidator exposes the bin consolidation for one-shot maintenance
// commands.
func (a *Application) Consolidator() *scheduler.Consolidator {
	return a.consolidator
}

// Run starts the schedulers and the read API and blocks until the context
// ends, then shuts down in order: HTTP first, then the persistence pool so
// queued writes drain, then the event producer.
func (a *Application) Run(ctx context.Context) error {
	go a.sweeper.Start(ctx)
	go a.consolidator.Start(ctx)
	go a.digest.Start(ctx)

	errCh := make(chan error, 1)
	go func() {
		log.Printf("application: read api listening on %s", a.srv.Addr)
		if err := a.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := a.srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("application: http shutdown: %v", err)
	}
	a.saver.Close()
	if err := a.producer.Close(); err != nil {
		log.Printf("application: close producer: %v", err)
	}
	log.Println("application: stopped")
	return nil
}
