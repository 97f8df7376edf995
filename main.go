package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"billweave-backend/config"
	"billweave-backend/controllers"
	"billweave-backend/database"
	"billweave-backend/identity"
	"billweave-backend/policy"
	"billweave-backend/routes"
	"billweave-backend/services"
	"billweave-backend/session"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(2)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel})))

	if err := run(cfg); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	// ---- Database
	db, err := database.Connect(cfg)
	if err != nil {
		return err
	}
	if err := database.Migrate(db); err != nil {
		return err
	}
	if cfg.MigrateOnly {
		slog.Info("migrations applied; exiting")
		return nil
	}

	// ---- Role resolution (optionally cached, in Redis when configured)
	var cache policy.RoleCache
	if cfg.RoleCacheTTL > 0 {
		cache = policy.NewMemoryRoleCache()
		if cfg.RedisURL != "" {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			rdb, err := policy.NewRedisClient(ctx, cfg.RedisURL)
			cancel()
			if err != nil {
				return err
			}
			defer rdb.Close()
			cache = policy.NewRedisRoleCache(rdb)
			slog.Info("role cache backed by redis", "ttl", cfg.RoleCacheTTL)
		}
	}
	roles := policy.NewRoleResolver(db, cache, cfg.RoleCacheTTL)

	// ---- Identity + services
	provider, err := identity.NewLocalProvider(db, identity.Options{
		Secret:          cfg.JWTSecret,
		TokenTTL:        cfg.TokenTTL,
		FederatedIssuer: cfg.FederatedIssuer,
		FederatedSecret: cfg.FederatedSecret,
	})
	if err != nil {
		return err
	}

	accounts := services.NewAccountService(db, roles, cfg.AdminEmail, provider, nil)
	bills := services.NewBillService(db, roles, cfg.BillPrefix, nil)
	orders := services.NewOrderService(db, roles, nil)
	sessions := session.NewManager(provider, accounts)
	defer sessions.Close()

	handlers := &controllers.Handlers{
		Customers: services.NewCustomerService(db, roles, nil),
		Bills:     bills,
		Orders:    orders,
		Inventory: services.NewInventoryService(db, roles, nil),
		Accounts:  accounts,
		Stats:     services.NewStatsService(db, roles, bills, orders, cfg.Location, nil),
		Sessions:  sessions,
		ShopName:  cfg.ShopName,
		Location:  cfg.Location,
	}

	app := routes.NewApp(routes.AppConfig{
		BodyLimitBytes:  cfg.BodyLimitBytes,
		AllowedOrigins:  cfg.AllowedOrigins,
		RateLimitMax:    cfg.RateLimitMax,
		RateLimitWindow: cfg.RateLimitWindow,
		RequestLog:      true,
	}, handlers, routes.Deps{DB: db, Provider: provider, Roles: roles})

	// ---- Shutdown on SIGINT/SIGTERM
	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		<-stop
		slog.Info("shutting down")
		_ = app.ShutdownWithTimeout(10 * time.Second)
	}()

	// ---- Start
	slog.Info("API server starting", "port", cfg.Port)
	return app.Listen(":" + cfg.Port)
}
