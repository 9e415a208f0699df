package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	apirest "github.com/calybre/wayfarer/api/rest"
	"github.com/calybre/wayfarer/api/sse"
	"github.com/calybre/wayfarer/cache"
	"github.com/calybre/wayfarer/config"
	dbadapter "github.com/calybre/wayfarer/db"
	"github.com/calybre/wayfarer/game/feed"
	"github.com/calybre/wayfarer/game/rules"
	mw "github.com/calybre/wayfarer/middleware"
	"github.com/calybre/wayfarer/model"
	"github.com/calybre/wayfarer/store"
)

func main() {
	cfgPath := "config/config.yaml"
	if len(os.Args) > 1 {
		cfgPath = os.Args[1]
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// ---- Logger ----
	var logger *zap.Logger
	var logErr error
	if cfg.Server.Debug {
		logger, logErr = zap.NewDevelopment()
	} else {
		logger, logErr = zap.NewProduction()
	}
	if logErr != nil {
		log.Fatalf("logger: %v", logErr)
	}
	defer logger.Sync()

	// Warn loudly if admin endpoints will be disabled.
	if cfg.Server.AdminKey == "" {
		logger.Warn("server.admin_key is not set; admin endpoints are disabled")
	}

	// ---- Database ----
	db, err := dbadapter.Open(cfg.Database)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	if err := model.AutoMigrate(db); err != nil {
		log.Fatalf("db migrate: %v", err)
	}
	logger.Info("DB initialized")

	// ---- Cache / PubSub ----
	cacheConfig := cache.CacheConfig{
		RedisAddr:       cfg.Cache.RedisAddr,
		RedisPassword:   cfg.Cache.RedisPassword,
		RedisDB:         cfg.Cache.RedisDB,
		LocalGCInterval: cfg.Cache.LocalGCInterval,
		LocalPubSubBuf:  cfg.Cache.LocalPubSubBuf,
	}
	c, err := cache.NewCache(cacheConfig)
	if err != nil {
		log.Fatalf("cache: %v", err)
	}
	pubsub, err := cache.NewPubSub(cacheConfig)
	if err != nil {
		log.Fatalf("pubsub: %v", err)
	}
	logger.Info("Cache initialized")

	// ---- Game engine ----
	seed := cfg.Game.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	mgr := store.NewManager(db, logger, rand.New(rand.NewSource(seed)))
	svc := rules.NewService(mgr, logger, rand.New(rand.NewSource(seed+1)))

	recordFeed := feed.New(c, pubsub, logger)
	svc.SetRecordSink(recordFeed)

	// ---- Optional first-boot game seeding ----
	if cfg.Game.SetupPath != "" {
		if err := seedGame(mgr, cfg.Game.SetupPath, logger); err != nil {
			log.Fatalf("game seed: %v", err)
		}
	}

	// ---- HTTP server ----
	if !cfg.Server.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(mw.TraceID())
	r.Use(mw.Logger(logger))
	r.Use(mw.Recovery(logger))
	r.Use(mw.RateLimit(rate.Limit(cfg.Security.RateLimitRPS), cfg.Security.RateLimitBurst))

	authH := apirest.NewAuthHandler(db, c, cfg.Security)
	charH := apirest.NewCharacterHandler(db, svc, recordFeed, c)
	actH := apirest.NewActivityHandler(db, svc, c)
	boardH := apirest.NewBoardHandler(db)
	adminH := apirest.NewAdminHandler(db, mgr, logger)

	api := r.Group("/api")
	{
		authG := api.Group("/auth")
		authG.POST("/login", authH.Login)
		authG.POST("/logout", authH.Logout)
		authG.POST("/refresh", mw.Auth(cfg.Security, c), authH.Refresh)

		authed := api.Group("")
		authed.Use(mw.Auth(cfg.Security, c))

		authed.GET("/characters", charH.List)
		authed.POST("/characters", charH.Create)
		authed.GET("/characters/:name", charH.Get)
		authed.GET("/characters/:name/records", charH.Records)

		authed.POST("/characters/:name/do-job", actH.DoJob)
		authed.POST("/characters/:name/perform-action", actH.PerformAction)
		authed.POST("/characters/:name/camp", actH.Camp)
		authed.POST("/characters/:name/travel", actH.Travel)
		authed.POST("/characters/:name/end-turn", actH.EndTurn)
		authed.POST("/characters/:name/resolve-encounter", actH.ResolveEncounter)

		authed.GET("/board/hexes", boardH.Hexes)
		authed.GET("/board/hexes/:name", boardH.Hex)
		authed.GET("/board/tokens", boardH.Tokens)

		adminG := api.Group("/admin")
		adminG.Use(mw.IPWhitelist(cfg.Server.AdminIPs))
		adminG.Use(apirest.AdminAuth(cfg.Server.AdminKey))
		adminG.POST("/games", adminH.CreateGame)
		adminG.GET("/metrics", adminH.Metrics)
		adminG.POST("/accounts/:username/ban", adminH.BanAccount)
	}

	// ---- SSE ----
	sseH := sse.NewHandler(db, recordFeed, c, cfg.Security, logger)
	r.GET("/sse/records/:name", sseH.ServeRecords)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	logger.Info("server starting", zap.String("addr", addr))
	if err := r.Run(addr); err != nil {
		log.Fatalf("server: %v", err)
	}
}

// seedGame loads a game definition from a JSON file and creates the game
// if none exists yet.
func seedGame(mgr *store.Manager, path string, logger *zap.Logger) error {
	var existing []model.Game
	if err := mgr.DB().Select("id").Find(&existing).Error; err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read setup file: %w", err)
	}
	var setup store.GameSetup
	if err := json.Unmarshal(data, &setup); err != nil {
		return fmt.Errorf("parse setup file: %w", err)
	}

	gameUUID, err := mgr.CreateGame(context.Background(), setup)
	if err != nil {
		return err
	}
	logger.Info("game seeded", zap.String("name", setup.Name), zap.String("uuid", gameUUID))
	return nil
}
