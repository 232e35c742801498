/**
 * @description
 * This is the main entry point for the agent portal. It is responsible for
 * initializing all components of the service: configuration, the session store
 * (file or Redis backed), the shared backend client, the domain facade, the
 * metrics poller, and the HTTP server. It wires everything together and starts
 * the service.
 *
 * @dependencies
 * - log, net/http: Standard Go libraries for logging and HTTP server functionality.
 * - github.com/joho/godotenv: Optional .env loading for local development.
 * - github.com/redis/go-redis/v9: Redis client for the session store backend.
 * - internal/api, internal/app, internal/config, internal/session: Internal packages.
 * - pkg/backendclient: The shared outbound HTTP client.
 */

package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/agentpay/agent-portal/internal/api"
	"github.com/agentpay/agent-portal/internal/app"
	"github.com/agentpay/agent-portal/internal/config"
	"github.com/agentpay/agent-portal/internal/session"
	"github.com/agentpay/agent-portal/pkg/backendclient"
)

func main() {
	// Load an optional .env for local development; in deployment everything
	// comes from real environment variables.
	if err := godotenv.Load(); err == nil {
		log.Println("level=info component=bootstrap msg=\"loaded .env file\"")
	}

	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("level=fatal component=bootstrap msg=\"config load failed\" err=%v", err)
	}
	log.Printf("level=info component=bootstrap msg=\"starting agent portal\" port=%s backend=%s", cfg.ServerPort, cfg.BackendBaseURL)

	// Pick the session store backend. Redis wins when configured and
	// reachable; otherwise the portal falls back to the file store.
	var sessions session.Store
	if cfg.RedisURL != "" {
		redisOptions, parseErr := redis.ParseURL(cfg.RedisURL)
		if parseErr != nil {
			log.Fatalf("level=fatal component=bootstrap msg=\"redis url parse failed\" err=%v", parseErr)
		}
		redisClient := redis.NewClient(redisOptions)
		pingCtx, cancelPing := context.WithTimeout(context.Background(), 5*time.Second)
		pingErr := redisClient.Ping(pingCtx).Err()
		cancelPing()
		if pingErr != nil {
			log.Printf("level=warn component=bootstrap msg=\"redis ping failed; falling back to file session store\" err=%v", pingErr)
			redisClient.Close()
			sessions = session.NewFileStore(cfg.SessionFile)
		} else {
			defer redisClient.Close()
			log.Println("level=info component=bootstrap msg=\"redis session store connected\"")
			sessions = session.NewRedisStore(redisClient, cfg.SessionRedisPrefix)
		}
	} else {
		sessions = session.NewFileStore(cfg.SessionFile)
	}

	// The shared backend client reads credentials from the session store on
	// every request and clears the store when the backend rejects the token.
	client := backendclient.NewClient(cfg.BackendBaseURL, backendclient.Options{
		Timeout:       cfg.RequestTimeout(),
		RetryAttempts: cfg.RetryAttempts,
		RetryDelay:    cfg.RetryDelay(),
		Credentials:   app.SessionCredentials(sessions),
		OnUnauthorized: func(ctx context.Context) {
			if err := sessions.Clear(ctx); err != nil {
				log.Printf("level=warn component=bootstrap msg=\"failed to clear rejected session\" err=%v", err)
			}
		},
	})

	service := app.NewService(client, sessions)

	poller := app.NewPoller(service, cfg.MetricsRefreshInterval())
	pollerCtx, stopPoller := context.WithCancel(context.Background())
	defer stopPoller()
	go poller.Run(pollerCtx)

	handlers := api.NewPortalHandlers(service, poller)
	proxies := api.NewProxyHandlers(client)
	router := api.PortalRoutes(handlers, proxies, sessions)

	serverAddr := fmt.Sprintf(":%s", cfg.ServerPort)
	log.Printf("level=info component=http msg=\"server listening\" addr=%s", serverAddr)

	server := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("level=fatal component=http msg=\"server stopped unexpectedly\" err=%v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Println("level=info component=http msg=\"shutdown started\"")
	stopPoller()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("level=error component=http msg=\"shutdown failed\" err=%v", err)
	}

	log.Println("level=info component=http msg=\"shutdown complete\"")
}
