package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"WProject/global"
	"WProject/logger"
	mid "WProject/middleware"
	info "WProject/module/gateway"
	"WProject/module/user"
	"WProject/service/auth"
	"WProject/service/broadcast"
	"WProject/service/gateway"
	"WProject/service/gateway/handlers"
	"WProject/tools/ids"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := global.Load("")
	if err != nil {
		logger.Errorf("load config: %v", err)
		os.Exit(1)
	}
	ids.SetNodeID(cfg.Server.NodeID)

	bus, err := newBroadcaster(cfg)
	if err != nil {
		logger.Errorf("init broadcaster driver=%s: %v", cfg.Broadcast.Driver, err)
		os.Exit(1)
	}
	defer func() { _ = bus.Close() }()

	authn := auth.NewJWTAuthenticator([]byte(cfg.Auth.JWTSecret))

	mgr := gateway.NewManager()
	disp := gateway.NewDispatcher()
	handlers.Install(disp)

	srv := gateway.NewServer(mgr, disp, authn, bus, gateway.Options{
		ReadLimit:         cfg.WS.ReadLimit,
		PongWait:          time.Duration(cfg.WS.PongWaitMS) * time.Millisecond,
		PingInterval:      time.Duration(cfg.WS.PingIntervalMS) * time.Millisecond,
		WriteWait:         time.Duration(cfg.WS.WriteWaitMS) * time.Millisecond,
		SendQueue:         cfg.WS.SendQueue,
		AuthTimeout:       time.Duration(cfg.Auth.TimeoutMS) * time.Millisecond,
		RestoreOnAuthFail: cfg.Auth.RestoreOnFail,
	})

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(mid.Origin(cfg.Server.CORSOrigins))

	r.GET("/ws", srv.HandleWS)
	mid.GET(r, "/gateway", info.HandlerInfo(cfg.Server.SiteBase), mid.RouteOpt{IsAuth: false})
	mid.POST(r, "/login", user.HandlerLogin(authn), mid.RouteOpt{IsAuth: false})
	mid.POST(r, "/check", user.HandlerCheck(authn), mid.RouteOpt{IsAuth: true})

	go func() {
		logger.Infof("[HTTP] listening on %s", cfg.Server.Addr)
		if err := r.Run(cfg.Server.Addr); err != nil {
			logger.Errorf("HTTP server failed: %v", err)
			os.Exit(1)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	logger.Info("shutting down")
}

func newBroadcaster(cfg *global.Config) (broadcast.Broadcaster, error) {
	switch cfg.Broadcast.Driver {
	case "redis":
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		return broadcast.NewRedis(ctx, broadcast.RedisConfig{
			Addr:     cfg.Broadcast.Redis.Addr,
			Password: cfg.Broadcast.Redis.Password,
			DB:       cfg.Broadcast.Redis.DB,
			PoolSize: cfg.Broadcast.Redis.PoolSize,
		})
	case "nats":
		return broadcast.NewNats(broadcast.NatsConfig{
			Servers: cfg.Broadcast.Nats.Servers,
			Name:    cfg.Broadcast.Nats.Name,
		})
	default:
		return broadcast.NewMemory(), nil
	}
}
