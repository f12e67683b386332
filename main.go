package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"bizmap-server/handlers"
	"bizmap-server/middleware"
	"bizmap-server/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment as-is")
	}

	mongoURI := os.Getenv("MONGODB_URI")
	if mongoURI == "" {
		log.Fatal("MONGODB_URI environment variable is not set")
	}
	googleAPIKey := os.Getenv("GOOGLE_API_KEY")
	if googleAPIKey == "" {
		log.Fatal("GOOGLE_API_KEY environment variable is not set")
	}
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		log.Fatal("REDIS_ADDR environment variable is not set")
	}
	redisDB := 0
	if redisDBStr := os.Getenv("REDIS_DB"); redisDBStr != "" {
		parsed, err := strconv.Atoi(redisDBStr)
		if err != nil {
			log.Fatalf("Invalid REDIS_DB value: %v", err)
		}
		redisDB = parsed
	}

	// MongoDB
	client, err := mongo.Connect(context.Background(), options.Client().ApplyURI(mongoURI))
	if err != nil {
		log.Fatalf("MongoDB connection failed: %v", err)
	}
	if err := client.Ping(context.Background(), nil); err != nil {
		log.Fatalf("Failed to ping MongoDB: %v", err)
	}
	log.Println("Connected to MongoDB")
	db := client.Database("location_intelligence")

	// Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr: redisAddr,
		DB:   redisDB,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	log.Println("Connected to Redis")

	// Services and handlers
	geocodeService := services.NewGeocodeService(googleAPIKey, redisClient)
	placesService := services.NewPlacesService(googleAPIKey)
	demographicsService := services.NewDemographicsService(googleAPIKey)
	analysisService := services.NewAnalysisService(db, redisClient, geocodeService, placesService, demographicsService)
	analysisHandler := handlers.NewAnalysisHandler(analysisService)

	r := mux.NewRouter()

	// Middleware
	allowedOrigins := []string{"http://localhost:3000", "http://localhost:5173"}
	r.Use(middleware.CORSMiddleware(allowedOrigins))
	r.Use(middleware.ErrorMiddleware())

	// Routes
	r.HandleFunc("/api/health", analysisHandler.Health).Methods("GET")
	r.HandleFunc("/api/search-competitors-advanced", analysisHandler.SearchCompetitors).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/compare-locations", analysisHandler.CompareLocations).Methods("POST", "OPTIONS")
	r.HandleFunc("/api/search/{search_id}", analysisHandler.GetSearch).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/searches", analysisHandler.RecentSearches).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/comparisons", analysisHandler.RecentComparisons).Methods("GET", "OPTIONS")
	r.HandleFunc("/api/competitors/nearby", analysisHandler.NearbyCompetitors).Methods("GET", "OPTIONS")

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on :%s", port)
	log.Fatal(http.ListenAndServe(":"+port, r))
}
