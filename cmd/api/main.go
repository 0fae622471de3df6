package main

import (
	"context"
	"os"
	"path/filepath"
	"strconv"

	"socialnotes/internal/domain/policy"
	"socialnotes/internal/domain/sqlite"
	"socialnotes/internal/domain/sqlite/repository"
	"socialnotes/internal/http/handler"
	authmw "socialnotes/internal/http/middleware"
	"socialnotes/internal/infrastructure/aws/storage"
	googleclient "socialnotes/internal/infrastructure/google"
	"socialnotes/internal/service"
	"socialnotes/internal/service/jobs"
	"socialnotes/internal/utils"
	"socialnotes/internal/utils/uid"
	"socialnotes/internal/utils/validators"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
)

const envVarsPrefix = "/socialnotes/prod/"

func main() {
	validate := validator.New()
	registerValidators(validate)

	// Loads env vars depending on environment
	if os.Getenv("GO_ENV") == "production" {
		loadProdEnv() // AWS SSM Parameter Store
	} else {
		// Loads from .env
		err := godotenv.Load()
		if err != nil {
			panic(err)
		}
	}

	if err := utils.InitTokenSigner(os.Getenv("JWT_SECRET")); err != nil {
		panic(err)
	}

	if err := uid.Init(machineID()); err != nil {
		panic(err)
	}

	// Init SQLite
	db, err := sqlite.Init(dbPath())
	if err != nil {
		panic(err)
	}

	// Init Google token verifier
	google, err := googleclient.NewTokenVerifier(os.Getenv("GOOGLE_CLIENT_ID"))
	if err != nil {
		panic(err)
	}

	// Init S3 client
	s3Client, err := storage.NewStorageClient()
	if err != nil {
		panic(err)
	}

	// Gettings repos
	noteRepo := repository.NewNoteRepository(db)
	userRepo := repository.NewUserRepository(db)

	// Policies
	notePolicy := policy.NewNotePolicy()
	userPolicy := policy.NewUserPolicy()

	// Getting services
	authService := service.NewAuthService(userRepo, google, validate)
	userService := service.NewUserService(userRepo, s3Client, validate, userPolicy)
	friendService := service.NewFriendService(userRepo, s3Client, userPolicy)
	noteService := service.NewNoteService(noteRepo, s3Client, validate, notePolicy)

	// Gettings handler
	authRoutes := handler.NewAuthDefault(authService)
	userRoutes := handler.NewUserDefault(userService)
	friendRoutes := handler.NewFriendDefault(friendService)
	noteRoutes := handler.NewNoteDefault(noteService)

	// Sweeps expired trash in the background
	cleaner := jobs.NewTrashCleaner(noteRepo, s3Client)
	go cleaner.Start(context.Background())

	e := echo.New()
	e.Use(middleware.CORS())
	e.Use(middleware.BodyLimit("30M"))

	authed := authmw.NewAuthMiddleware(&authmw.AuthMiddlewareConfig{UserRepo: userRepo})

	// Auth
	e.POST("/api/auth/register", authRoutes.Register)
	e.POST("/api/auth/login", authRoutes.Login)
	e.POST("/api/auth/refresh", authRoutes.Refresh)
	e.POST("/api/auth/google", authRoutes.GoogleLogin)
	e.POST("/api/auth/logout", authRoutes.Logout, authed)

	// Notes
	e.GET("/api/notes", noteRoutes.GetNotes, authed)
	e.GET("/api/notes/shared", noteRoutes.GetSharedNotes, authed)
	e.GET("/api/notes/trash", noteRoutes.GetTrash, authed)
	e.GET("/api/notes/:id", noteRoutes.GetNote, authed)
	e.POST("/api/notes", noteRoutes.CreateNote, authed)
	e.PATCH("/api/notes/:id", noteRoutes.UpdateNote, authed)
	e.DELETE("/api/notes/:id", noteRoutes.TrashNote, authed)
	e.POST("/api/notes/:id/restore", noteRoutes.RestoreNote, authed)
	e.DELETE("/api/notes/:id/purge", noteRoutes.PurgeNote, authed)
	e.POST("/api/notes/:id/like", noteRoutes.ToggleLike, authed)
	e.POST("/api/notes/:id/images", noteRoutes.AddImage, authed)
	e.DELETE("/api/notes/:id/images/:imageId", noteRoutes.RemoveImage, authed)

	// Users
	e.GET("/api/users/search", userRoutes.SearchUsers, authed)
	e.GET("/api/users/:id", userRoutes.GetUser, authed)
	e.PATCH("/api/users/@me", userRoutes.UpdateSelf, authed)
	e.DELETE("/api/users/@me", userRoutes.DeleteSelf, authed)
	e.POST("/api/users/@me/avatar", userRoutes.UploadAvatar, authed)

	// Friends
	e.GET("/api/friends", friendRoutes.GetFriends, authed)
	e.DELETE("/api/friends/:id", friendRoutes.RemoveFriend, authed)
	e.GET("/api/friends/requests", friendRoutes.GetRequests, authed)
	e.POST("/api/friends/requests/:id", friendRoutes.SendRequest, authed)
	e.POST("/api/friends/requests/:id/accept", friendRoutes.AcceptRequest, authed)
	e.POST("/api/friends/requests/:id/reject", friendRoutes.RejectRequest, authed)
	e.DELETE("/api/friends/requests/:id", friendRoutes.CancelRequest, authed)

	// Docker Compose healthcheck
	e.GET("/health", healthCheckRoute)

	if err := e.Start(":7070"); err != nil {
		panic(err)
	}
}

func registerValidators(validate *validator.Validate) {
	_ = validate.RegisterValidation("hasupper", validators.HasUpper)
	_ = validate.RegisterValidation("haslower", validators.HasLower)
	_ = validate.RegisterValidation("hasdigit", validators.HasDigit)
	_ = validate.RegisterValidation("hasspecial", validators.HasSpecial)
}

func loadProdEnv() {
	ctx := context.Background()
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion("us-east-2"))
	if err != nil {
		log.Fatalf("unable to load SDK config, %v", err)
	}

	client := ssm.NewFromConfig(cfg)
	out, err := client.GetParametersByPath(ctx, &ssm.GetParametersByPathInput{
		Path:           aws.String(envVarsPrefix),
		WithDecryption: aws.Bool(true),
		Recursive:      aws.Bool(true),
	})
	if err != nil {
		log.Fatalf("unable to load prod environment, %v", err)
	}

	prefixLength := len(envVarsPrefix)
	// Export vars
	for _, param := range out.Parameters {
		key := (*param.Name)[prefixLength:]
		value := *param.Value
		enverr := os.Setenv(key, value)
		if enverr != nil {
			log.Fatalf("unable to set environment variable, %v", enverr)
		}
	}
	log.Debugf("loaded %d prod environment variables", len(out.Parameters))
}

func machineID() int64 {
	raw := os.Getenv("NODE_ID")
	if raw == "" {
		return 0
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		log.Fatalf("invalid NODE_ID: %v", err)
	}
	return id
}

func dbPath() string {
	if path := os.Getenv("DB_PATH"); path != "" {
		return path
	}
	return filepath.Join(".", "database.db")
}

func healthCheckRoute(c echo.Context) error {
	return c.String(200, "OK")
}
