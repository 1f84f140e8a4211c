package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/cristianortiz/eventauction/internal/auction/application"
	"github.com/cristianortiz/eventauction/internal/auction/domain"
	"github.com/cristianortiz/eventauction/internal/auction/infra/redispub"
	"github.com/cristianortiz/eventauction/internal/auction/infra/repository/cache"
	"github.com/cristianortiz/eventauction/internal/auction/infra/repository/memory"
	"github.com/cristianortiz/eventauction/internal/auction/infra/repository/postgres"
	"github.com/cristianortiz/eventauction/internal/auction/infra/repository/sqlite"
	"github.com/cristianortiz/eventauction/internal/auction/infra/rest"
	auctionws "github.com/cristianortiz/eventauction/internal/auction/infra/websocket"
	"github.com/cristianortiz/eventauction/internal/shared/config"
	"github.com/cristianortiz/eventauction/internal/shared/db"
	"github.com/cristianortiz/eventauction/internal/shared/db/migrations"
	"github.com/cristianortiz/eventauction/internal/shared/httpserver"
	"github.com/cristianortiz/eventauction/internal/shared/logger"
	"github.com/cristianortiz/eventauction/internal/shared/websocket"
	userdomain "github.com/cristianortiz/eventauction/internal/user/domain"
	userpg "github.com/cristianortiz/eventauction/internal/user/infra/repository/postgres"
	userrest "github.com/cristianortiz/eventauction/internal/user/infra/rest"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// storage groups what the selected driver provides
type storage struct {
	events domain.AuctionRepository
	users  userdomain.UserRepository
	close  func()
}

func main() {
	log := logger.GetLogger()
	defer log.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Invalid configuration", zap.Error(err))
	}
	if err := logger.SetLevel(cfg.LogLevel); err != nil {
		log.Warn("Ignoring LOG_LEVEL", zap.String("level", cfg.LogLevel), zap.Error(err))
	}

	log.Info("Starting auction server...", zap.String("driver", cfg.DBDriver))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := openStorage(ctx, cfg)
	if err != nil {
		log.Fatal("Storage initialization failed", zap.Error(err))
	}
	defer store.close()

	events := store.events
	if cfg.StreamCacheSize > 0 {
		cached, err := cache.NewCachedRepository(events, cfg.StreamCacheSize)
		if err != nil {
			log.Fatal("Stream cache initialization failed", zap.Error(err))
		}
		events = cached
	}

	hub := websocket.NewHub()
	go hub.Run(ctx)

	publishers := application.MultiPublisher{auctionws.NewHubPublisher(hub)}
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatal("Failed to connect redis", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		defer rdb.Close()
		publishers = append(publishers, redispub.NewPublisher(rdb, cfg.RedisChannel))
		log.Info("Publishing auction events to redis", zap.String("addr", cfg.RedisAddr))
	}

	var bidders application.BidderDirectory
	if cfg.CheckBidders {
		if store.users == nil {
			log.Warn("CHECK_BIDDERS needs the postgres driver, bidder check disabled")
		} else {
			bidders = store.users
		}
	}

	service := application.NewDefaultAuctionService(events, publishers, bidders, cfg.CommandMaxRetries)

	wsHandler := auctionws.NewAuctionWSHandler(service, hub)
	go wsHandler.ListenForMessages(ctx)

	registrars := []httpserver.RouteRegistrar{rest.NewAuctionHandler(service)}
	if store.users != nil {
		registrars = append(registrars, userrest.NewUserHandler(store.users))
	}
	server := httpserver.NewServer(cfg.ShutdownTimeout, registrars...)
	wsHandler.RegisterRoutes(ctx, server.App())

	if err := server.Run(ctx, cfg.HTTPAddr); err != nil {
		log.Fatal("HTTP server failed", zap.Error(err))
	}
	log.Info("Auction server stopped")
}

func openStorage(ctx context.Context, cfg *config.Config) (*storage, error) {
	switch cfg.DBDriver {
	case config.DriverPostgres:
		dsn := cfg.PostgresDSN()
		if err := migrations.RunPostgres(dsn); err != nil {
			return nil, err
		}
		pool, err := db.GetPostgresDBPool(ctx, dsn)
		if err != nil {
			return nil, err
		}
		return &storage{
			events: postgres.NewAuctionEventRepository(pool),
			users:  userpg.NewUserRepository(pool),
			close:  pool.Close,
		}, nil

	case config.DriverSQLite:
		conn, err := db.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		if err := migrations.RunSQLite(conn); err != nil {
			_ = conn.Close()
			return nil, err
		}
		repo := sqlite.NewAuctionEventRepository(conn)
		return &storage{events: repo, close: func() { _ = repo.Close() }}, nil

	case config.DriverMemory:
		return &storage{events: memory.NewAuctionEventRepository(), close: func() {}}, nil

	default:
		return nil, fmt.Errorf("unsupported driver %q", cfg.DBDriver)
	}
}
