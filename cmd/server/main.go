package main

import (
	"log"
	"os"
	"strconv"

	"bandhub/config"
	"bandhub/routes"
	"bandhub/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Environment variables override the YAML file, so a missing .env is fine
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment")
	}

	cfg, err := config.LoadConfig("./config/config.prod.yml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := services.InitGenerationService(cfg); err != nil {
		log.Fatalf("Failed to initialize generation service: %v", err)
	}
	services.InitTranscriptionService(cfg)
	services.InitQuestionBank(cfg.Bank.Path)
	services.InitEvaluationService()
	services.InitReferenceService()
	services.InitSpeechService(cfg)
	services.InitImageService(cfg)

	router := setupRouter()
	port := strconv.Itoa(cfg.Server.Port)
	log.Printf("Server starting on port %s", port)

	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func setupRouter() *gin.Engine {
	router := gin.Default()

	router.SetTrustedProxies([]string{"127.0.0.1", "localhost"})

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))
	router.OPTIONS("/*path", func(c *gin.Context) { c.Status(204) })

	routes.SetupPracticeRoutes(router)

	// Serve the built frontend when a dist directory ships alongside the binary
	if _, err := os.Stat("./dist"); err == nil {
		router.StaticFile("/", "./dist/index.html")
		router.Static("/assets", "./dist/assets")
		router.NoRoute(func(c *gin.Context) {
			c.File("./dist/index.html")
		})
	}

	return router
}
