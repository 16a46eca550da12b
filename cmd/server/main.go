package main

import (
	"math/rand"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/EthanBrewster/potatodoro/internal/config"
	"github.com/EthanBrewster/potatodoro/internal/database"
	"github.com/EthanBrewster/potatodoro/internal/handlers"
	"github.com/EthanBrewster/potatodoro/internal/middleware"
	"github.com/EthanBrewster/potatodoro/internal/services"
	"github.com/EthanBrewster/potatodoro/internal/store"
	"github.com/EthanBrewster/potatodoro/internal/ws"
)

func main() {
	log.Logger = zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(level)
	}

	db := database.Connect(cfg.DatabaseURL)
	database.AutoMigrate(db)

	rooms := store.NewMemory(cfg.RoomTTL)
	defer rooms.Close()

	hub := ws.NewHub()

	accounting := services.NewAccountingService(db)
	scheduler := services.NewScheduler()
	reclaim := services.NewReclaimSupervisor(cfg.DisconnectGrace)
	resolver := services.NewTossResolver(rand.New(rand.NewSource(time.Now().UnixNano())))

	sessionService := services.NewSessionService(rooms, accounting, scheduler, reclaim, resolver, hub)
	roomService := services.NewRoomService(rooms, accounting, sessionService, hub,
		cfg.RoomCapacity, cfg.SessionDuration, cfg.RestDuration)

	roomHandler := handlers.NewRoomHandler(roomService)
	sessionHandler := handlers.NewSessionHandler(sessionService)
	userHandler := handlers.NewUserHandler(accounting)
	wsHandler := handlers.NewWSHandler(hub, sessionService, rooms)

	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.CORSOrigin},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", middleware.HeaderParticipantID},
		AllowCredentials: true,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "hot", "timestamp": time.Now().UnixMilli()})
	})
	r.GET("/ws/room/:code", wsHandler.HandleRoomWebSocket)

	api := r.Group("/api/v1")
	{
		kitchens := api.Group("/rooms")
		{
			kitchens.POST("", roomHandler.CreateRoom)
			kitchens.POST("/join", roomHandler.JoinRoom)
			kitchens.POST("/leave", middleware.RequireParticipant(), roomHandler.LeaveRoom)
		}

		session := api.Group("/session")
		session.Use(middleware.RequireParticipant())
		{
			session.POST("/start", sessionHandler.Start)
			session.POST("/toss", sessionHandler.Toss)
			session.POST("/cancel", sessionHandler.Cancel)
			session.GET("/state", sessionHandler.State)
		}

		api.POST("/reactions", middleware.RequireParticipant(), roomHandler.SendReaction)

		users := api.Group("/users")
		{
			users.GET("/:id/stats", userHandler.GetStats)
			users.GET("/:id/toppings", userHandler.GetToppings)
		}
	}

	log.Info().Str("port", cfg.Port).Msg("potatodoro server is cooking")
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("failed to start server")
	}
}
