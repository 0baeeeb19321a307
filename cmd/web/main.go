package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"notesweb/cmd/internal/config"
	"notesweb/cmd/internal/domain/sqlite"
	"notesweb/cmd/internal/domain/sqlite/repository"
	"notesweb/cmd/internal/http/handler"
	mw "notesweb/cmd/internal/http/middleware"
	"notesweb/cmd/internal/http/session"
	"notesweb/cmd/internal/http/view"
	cognitoclient "notesweb/cmd/internal/infrastructure/aws/cognito"
	"notesweb/cmd/internal/infrastructure/aws/storage"
	"notesweb/cmd/internal/infrastructure/aws/websocket"
	"notesweb/cmd/internal/service"
	"notesweb/cmd/internal/service/jobs"
	"notesweb/cmd/internal/utils"
	"notesweb/cmd/internal/utils/uid"
	"notesweb/cmd/internal/utils/validators"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	log.SetLevel(cfg.LogLevel)

	if err := uid.Init(cfg.NodeID); err != nil {
		log.Fatal(err)
	}
	validate := validators.New()

	// Init SQLite
	db, err := sqlite.Init(cfg.DBPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer sqlite.Close(db)

	// Init cognito client
	cogClient, err := cognitoclient.NewCognitoClient(ctx, cfg.CognitoRegion, cfg.CognitoUserPoolID, cfg.CognitoAppClientID)
	if err != nil {
		log.Fatalf("failed to init cognito client: %v", err)
	}

	verifier, err := utils.NewCognitoVerifier(cfg.CognitoRegion, cfg.CognitoUserPoolID, cfg.CognitoAppClientID)
	if err != nil {
		log.Fatal(err)
	}

	// Init S3 client
	s3Client, err := storage.NewStorageClient(ctx, storage.Options{
		Region:          cfg.S3Region,
		Bucket:          cfg.S3Bucket,
		Endpoint:        cfg.S3Endpoint,
		AccessKeyID:     cfg.S3AccessKeyID,
		SecretAccessKey: cfg.S3SecretAccessKey,
		URLTTL:          cfg.SignedURLTTL,
	})
	if err != nil {
		log.Fatalf("failed to init storage client: %v", err)
	}

	// Getting repos
	noteRepo := repository.NewNoteRepository(db)
	userRepo := repository.NewUserRepository(db)
	connRepo := repository.NewConnectionRepository(db)

	// Live updates are optional, everything works without a socket endpoint
	var (
		wsService  *service.WebSocketService
		dispatcher service.EventDispatcher
		closer     handler.ConnectionCloser
	)
	if cfg.LiveUpdates() {
		gateway, err := websocket.NewAWSGatewayClient(ctx, cfg.WSEndpoint, cfg.WSRegion)
		if err != nil {
			log.Fatalf("failed to init websocket gateway: %v", err)
		}
		wsService = service.NewWebSocketService(connRepo, gateway)
		dispatcher = wsService
		closer = wsService
	}

	// Getting services
	authService := service.NewAuthService(userRepo, validate, cogClient, verifier)
	noteService := service.NewNoteService(noteRepo, s3Client, dispatcher, validate)
	sessions := session.NewStore(cfg.SessionTTL)

	// Getting handlers
	noteRoutes := handler.NewNoteDefault(noteService)
	userRoutes := handler.NewUserDefault(authService, closer)
	pageRoutes := handler.NewPageDefault(authService, noteService, sessions, closer, cfg.SignedURLTTL, cfg.CookieSecure)

	renderer, err := view.NewRenderer()
	if err != nil {
		log.Fatal(err)
	}

	e := echo.New()
	e.HideBanner = true
	e.Renderer = renderer
	e.Use(middleware.Recover())
	e.Use(requestLogger())
	e.Use(middleware.CORS())
	e.Use(middleware.BodyLimit(cfg.BodyLimit))

	authMiddleware := mw.NewAuthMiddleware(&mw.AuthMiddlewareConfig{Auth: authService})
	csrf := middleware.CSRFWithConfig(middleware.CSRFConfig{
		TokenLookup:    "form:_csrf",
		CookiePath:     "/",
		CookieHTTPOnly: true,
		CookieSecure:   cfg.CookieSecure,
		CookieSameSite: http.SameSiteLaxMode,
	})
	signedIn := mw.NewSessionMiddleware(sessions, cfg.CookieSecure)

	// Pages
	e.GET("/signin", pageRoutes.ShowSignIn, csrf)
	e.POST("/signin", pageRoutes.SignIn, csrf)
	e.GET("/signup", pageRoutes.ShowSignUp, csrf)
	e.POST("/signup", pageRoutes.SignUp, csrf)
	e.GET("/confirm", pageRoutes.ShowConfirm, csrf)
	e.POST("/confirm", pageRoutes.Confirm, csrf)
	e.POST("/confirm/resend", pageRoutes.ResendConfirmation, csrf)
	e.GET("/", pageRoutes.Home, csrf, signedIn)
	e.POST("/notes", pageRoutes.CreateNote, csrf, signedIn)
	e.POST("/notes/:id/delete", pageRoutes.DeleteNote, csrf, signedIn)
	e.POST("/signout", pageRoutes.SignOut, csrf, signedIn)

	// Notes
	notes := e.Group("/api/notes", authMiddleware)
	notes.GET("", noteRoutes.GetNotes)
	notes.POST("", noteRoutes.CreateNote)
	notes.DELETE("/:id", noteRoutes.DeleteNote)
	notes.GET("/:id/image-url", noteRoutes.GetImageURL)

	// Users
	e.POST("/api/users", userRoutes.CreateUser)
	e.POST("/api/users/login", userRoutes.CreateLogin)
	e.POST("/api/users/confirms", userRoutes.ConfirmSignup)
	e.POST("/api/users/confirms/resend", userRoutes.ResendConfirmation)
	e.POST("/api/users/logout", userRoutes.Logout, authMiddleware)

	// API Gateway WebSocket integration
	if wsService != nil {
		wsRoutes := handler.NewWSDefault(wsService)
		e.POST("/ws/connect", wsRoutes.HandleConnect, authMiddleware)
		e.POST("/ws/disconnect", wsRoutes.HandleDisconnect)
		e.POST("/ws/message", wsRoutes.HandleMessage)

		go jobs.NewConnectionCleaner(wsService).Start(ctx)
	}

	// Docker Compose healthcheck
	e.GET("/health", handler.HealthCheck)

	go jobs.NewSessionSweeper(sessions).Start(ctx)

	go func() {
		if err := e.Start(cfg.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server stopped: %v", err)
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Errorf("failed to shut down cleanly: %v", err)
	}
}

func requestLogger() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			if v.Error != nil {
				log.Errorf("%s %s %d %s: %v", v.Method, v.URI, v.Status, v.Latency, v.Error)
				return nil
			}
			log.Infof("%s %s %d %s", v.Method, v.URI, v.Status, v.Latency)
			return nil
		},
	})
}
