package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"stuti/auth"
	"stuti/config"
	"stuti/database"
	"stuti/handler"
	"stuti/likes"
	"stuti/repository"
	"stuti/server"
	"stuti/service"
	"stuti/storage"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

const cleanupQueueSize = 1000

func serveCmd() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the HTTP API",
		Description: `Connects to the database, Redis and MinIO, migrates the schema and
serves the API until interrupted. Like counts are copied from Redis to the
database in the background and replaced images are deleted asynchronously.`,
		Flags: config.ServeFlags(),
		Action: func(ctx *cli.Context) error {
			cfg := config.FromContext(ctx)
			if err := config.ConfigureLogging(cfg.LogLevel, cfg.LogFormat); err != nil {
				return err
			}
			if cfg.LogLevel != "debug" {
				gin.SetMode(gin.ReleaseMode)
			}

			runCtx, stop := signal.NotifyContext(ctx.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(runCtx, cfg)
		},
	}
}

func serve(ctx context.Context, cfg config.Config) error {
	db, err := database.Open(ctx, cfg.DB)
	if err != nil {
		return err
	}
	defer database.Close(db)
	if err := database.Migrate(db); err != nil {
		return err
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("connect redis %s: %w", cfg.Redis.Addr, err)
	}

	images, err := storage.NewMinioStore(ctx, cfg.Minio)
	if err != nil {
		return err
	}
	cleaner := storage.NewCleaner(images, cleanupQueueSize)

	store := repository.NewStore(db)
	likeStore := likes.NewStore(rdb)
	syncer := likes.NewSyncer(rdb, store.Feeds, cfg.LikeSyncInterval)
	tokens := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.TTL)
	blacklist := auth.NewBlacklist(rdb)

	h := handler.New(
		service.NewFeedService(store, images, cleaner, likeStore, cfg.MaxUploadBytes),
		service.NewCommentService(store),
		service.NewMemberService(store, tokens, blacklist),
		service.NewStudyGroupService(store, images, cleaner, cfg.MaxUploadBytes),
		service.NewQuestionService(store),
	)
	router := server.NewRouter(server.RouterConfig{
		Handler:      h,
		Tokens:       tokens,
		Blacklist:    blacklist,
		CORSOrigins:  cfg.CORSOrigins,
		MaxBodyBytes: cfg.MaxUploadBytes,
	})

	workers, stopWorkers := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		cleaner.Run(workers)
	}()
	go func() {
		defer wg.Done()
		syncer.Run(workers)
	}()

	err = server.Run(ctx, cfg.HTTPAddr, router)
	stopWorkers()
	wg.Wait()

	// Flush counts gathered since the last tick.
	if _, syncErr := syncer.SyncOnce(context.Background()); syncErr != nil {
		log.WithField("error", syncErr).Warn("Final like sync failed")
	}
	log.Info("Stopped")
	return err
}
