package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"wmsbridge/config"
	"wmsbridge/fleet"
	"wmsbridge/hub"
	"wmsbridge/jobs"
	"wmsbridge/statecache"
	"wmsbridge/store"
	"wmsbridge/www"
)

var Version = "dev"

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "wmsbridge.yaml", "path to config file")
	flag.Parse()

	if *showVersion {
		fmt.Println("wmsbridge", Version)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Database
	db, err := store.Open(&cfg.Database)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()
	log.Printf("wmsbridge: database open (%s)", cfg.Database.Driver)

	// Redis: optional, replay state only survives restarts when present.
	var redisStore *statecache.RedisStore
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	if err := redisClient.Ping(pingCtx).Err(); err != nil {
		log.Printf("wmsbridge: redis not available (%v), running without cache", err)
		redisClient.Close()
	} else {
		log.Printf("wmsbridge: redis connected (%s)", cfg.Redis.Address)
		redisStore = statecache.NewRedisStore(redisClient)
		defer redisClient.Close()
	}
	cancel()

	// Robot state cache, restored from redis when possible.
	cache := statecache.NewManager(redisStore)
	cache.Load()

	// Dashboard hub and fleet registry.
	h := hub.New(cache)
	fleetMgr := fleet.NewManager(&cfg.Bus, h, cache)
	h.SetStatusSource(fleetMgr)
	defer fleetMgr.Shutdown()

	// Job sequencer, fed pin arrivals from the bus.
	seq := jobs.NewSequencer(jobs.DBStorage{DB: db}, fleetMgr, h, cache, cfg.Jobs.ReturnDelay)
	fleetMgr.SetArrivalSink(seq)

	// Web server
	handler := www.NewRouter(db, h, fleetMgr, seq)
	addr := fmt.Sprintf("%s:%d", cfg.Web.Host, cfg.Web.Port)
	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	go func() {
		log.Printf("wmsbridge: web server listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("web server: %v", err)
		}
	}()

	log.Printf("wmsbridge: ready")

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Printf("wmsbridge: shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	srv.Shutdown(shutdownCtx)

	log.Printf("wmsbridge: stopped")
}
