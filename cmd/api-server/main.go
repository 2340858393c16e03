// Package main API Server 入口
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

	"bookshelf-api/internal/apiserver/auth"
	"bookshelf-api/internal/apiserver/server"
	"bookshelf-api/internal/config"
	"bookshelf-api/internal/shared/cache"
	redisstore "bookshelf-api/internal/shared/cache/redis"
	"bookshelf-api/internal/shared/storage/mongostore"
)

func main() {
	// 加载配置（自动加载 .env，根据 APP_ENV 切换数据库和 Redis）
	cfg := config.Load()

	log.Printf("Starting API Server... [env=%s]", cfg.Env)
	log.Printf("Config: %s", cfg.String())

	// 初始化 MongoDB（持久化业务数据）
	store, err := mongostore.NewStore(cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer store.Close()
	log.Println("Connected to MongoDB")

	// 初始化会话缓存：优先 Redis，不可用时退回进程内缓存
	// （单实例部署可用；多实例部署必须配置 Redis）
	var sessions cache.SessionCache
	if cfg.RedisURL != "" {
		redisSessions, err := redisstore.NewStoreFromURL(cfg.RedisURL)
		if err != nil {
			log.Printf("Redis unavailable (%v), falling back to in-memory sessions", err)
			sessions = cache.NewMemoryCache()
		} else {
			defer redisSessions.Close()
			sessions = redisSessions
		}
	} else {
		log.Println("No Redis configured, using in-memory sessions")
		sessions = cache.NewMemoryCache()
	}

	// 初始化 Handler
	h := server.NewHandler(store, sessions, auth.Config{
		ClientID:     cfg.OAuth.ClientID,
		ClientSecret: cfg.OAuth.ClientSecret,
		AuthURL:      cfg.OAuth.AuthURL,
		TokenURL:     cfg.OAuth.TokenURL,
		RedirectURL:  cfg.OAuth.RedirectURL,
		Scopes:       cfg.OAuth.Scopes,
		CookieName:   cfg.Session.CookieName,
		SessionTTL:   cfg.Session.TTL,
		StateTTL:     cfg.Session.StateTTL,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      h.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// 优雅关闭
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	log.Printf("API Server listening on :%s", cfg.APIPort)
	if err := srv.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}

	fmt.Println("Server stopped")
}
