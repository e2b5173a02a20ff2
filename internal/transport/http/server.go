package http

import (
	"context"
	"errors"
	"fmt"
	"log"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	firebase "firebase.google.com/go/v4"

	"hackmate/internal/app"
	"hackmate/internal/cache"
	"hackmate/internal/config"
	"hackmate/internal/database"
	"hackmate/internal/queue"
	"hackmate/internal/redis"
	"hackmate/internal/repository"
	"hackmate/internal/repository/docstore"
	"hackmate/internal/seed"
	"hackmate/internal/service"
	"hackmate/internal/watch"
	"hackmate/internal/worker"
)

const (
	shutdownTimeout = 10 * time.Second
	purgeInterval   = time.Hour
)

// stores holds one implementation of every repository.
type stores struct {
	users         repository.UserRepository
	posts         repository.PostRepository
	conversations repository.ConversationRepository
	messages      repository.MessageRepository
	refreshTokens repository.RefreshTokenRepository
	deviceTokens  repository.DeviceTokenRepository
	savedPosts    repository.SavedPostRepository
	close         func() error
}

func Run() error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Firebase (optional on the local variant)
	var fbApp *firebase.App
	if cfg.FirebaseConfigured() {
		fbApp, err = service.NewFirebaseApp(ctx, cfg.FirebaseProjectID, cfg.FirebaseClientEmail, cfg.FirebasePrivateKey)
		if err != nil {
			return err
		}
	}

	// 3. Stores
	st, err := openStores(ctx, cfg, fbApp)
	if err != nil {
		return err
	}
	defer st.close()

	// 4. Redis (optional): timeline cache, event stream, watch relay
	var (
		timeline  cache.TimelineCache
		publisher queue.Publisher
		rdb       *redis.Client
	)
	if cfg.RedisURL != "" {
		rdb, err = redis.Connect(ctx, cfg.RedisURL)
		if err != nil {
			log.Printf("[Server] Redis unavailable, continuing without cache and workers: err=%v", err)
		} else {
			defer rdb.Close()
			timeline = cache.NewTimelineCache(rdb.Client)
			publisher = queue.NewPublisher(rdb.Client)
		}
	}

	// 5. Identity provider and push
	var identity service.IdentityProvider = service.NewPasswordIdentity(st.users, cfg.BcryptCost)
	var pusher service.Pusher
	if fbApp != nil {
		if cfg.StoreBackend == config.BackendFirestore {
			fbIdentity, err := service.NewFirebaseIdentity(ctx, fbApp, cfg.FirebaseAPIKey)
			if err != nil {
				return err
			}
			identity = fbIdentity
		}

		fcm, err := service.NewFCMClient(ctx, fbApp)
		if err != nil {
			log.Printf("[Server] FCM unavailable, push disabled: err=%v", err)
		} else {
			pusher = fcm
		}
	}

	// 6. Services and facade
	authService := service.NewAuthService(st.users, st.refreshTokens, identity, cfg)
	userService := service.NewUserService(st.users)
	postService := service.NewPostService(st.posts, st.savedPosts, st.users, timeline, publisher)
	chatService := service.NewChatService(st.conversations, st.messages, st.users, publisher)
	notificationService := service.NewNotificationService(st.deviceTokens, pusher)

	hub := watch.NewHub()
	facade := app.NewFacade(authService, userService, postService, chatService, notificationService, hub)

	// 7. Background work
	if rdb != nil {
		relay := watch.NewRedisRelay(rdb.Client, hub)
		if err := relay.Run(ctx); err != nil {
			log.Printf("[Server] Watch relay disabled: err=%v", err)
		} else {
			hub.SetRelay(relay)
		}

		managerCfg := worker.DefaultManagerConfig()
		managerCfg.WorkerCount = cfg.WorkerCount
		manager := worker.NewManager(queue.NewConsumer(rdb.Client), worker.NewHandler(timeline, notificationService), managerCfg)
		if err := manager.Start(ctx); err != nil {
			return fmt.Errorf("start workers: %w", err)
		}
		defer manager.Stop()
	}
	go purgeExpiredTokens(ctx, authService)

	if cfg.SeedDemoData {
		if err := seed.Run(ctx, userService, facade); err != nil {
			log.Printf("[Server] Seed FAILED: err=%v", err)
		}
	}

	// 8. Serve
	srv := &stdhttp.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           NewRouter(facade),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Printf("[Server] Listening on %s (backend=%s)", srv.Addr, cfg.StoreBackend)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, stdhttp.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Println("[Server] Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// openStores opens the backend selected by STORE_BACKEND.
func openStores(ctx context.Context, cfg *config.Config, fbApp *firebase.App) (*stores, error) {
	if cfg.StoreBackend == config.BackendFirestore {
		if fbApp == nil {
			return nil, errors.New("firestore backend requires FIREBASE_* credentials")
		}
		client, err := fbApp.Firestore(ctx)
		if err != nil {
			return nil, fmt.Errorf("open firestore: %w", err)
		}
		ds := docstore.NewStore(client)
		return &stores{
			users:         ds.Users(),
			posts:         ds.Posts(),
			conversations: ds.Conversations(),
			messages:      ds.Messages(),
			refreshTokens: ds.RefreshTokens(),
			deviceTokens:  ds.DeviceTokens(),
			savedPosts:    ds.SavedPosts(),
			close:         client.Close,
		}, nil
	}

	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &stores{
		users:         repository.NewUserRepository(db),
		posts:         repository.NewPostRepository(db),
		conversations: repository.NewConversationRepository(db),
		messages:      repository.NewMessageRepository(db),
		refreshTokens: repository.NewRefreshTokenRepository(db),
		deviceTokens:  repository.NewDeviceTokenRepository(db),
		savedPosts:    repository.NewSavedPostRepository(db),
		close:         db.Close,
	}, nil
}

// purgeExpiredTokens deletes expired refresh tokens once an hour.
func purgeExpiredTokens(ctx context.Context, auth *service.AuthService) {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := auth.PurgeExpiredTokens(ctx, time.Now()); err != nil {
				log.Printf("[Server] Purge expired tokens FAILED: err=%v", err)
			}
		}
	}
}
