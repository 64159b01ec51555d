package main

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"

	"huddle_server/pubsub"
	"huddle_server/routes"
	"huddle_server/services"
	"huddle_server/socket"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
)

func main() {
	// Initialize DynamoDB client and service
	log.Println("Initializing DynamoDB client...")
	dynamoClient := services.InitializeDynamoDBClient()
	dynamoService := &services.DynamoService{Client: dynamoClient}
	log.Println("DynamoDB client initialized.")

	// Initialize Redis client for typing presence
	log.Println("Initializing Redis client...")
	redisClient := services.InitializeRedisClient()
	log.Println("Redis client initialized.")

	// Event hub behind live subscriptions
	hub := pubsub.NewHub()

	// Initialize Services
	userProfileService := &services.UserProfileService{Dynamo: dynamoService}
	friendService := &services.FriendService{Dynamo: dynamoService, Profiles: userProfileService, Events: hub}
	groupService := &services.GroupService{Dynamo: dynamoService, Events: hub}
	chatService := &services.GroupChatService{Dynamo: dynamoService, Events: hub, Groups: groupService}
	groupService.Chat = chatService
	presenceService := &services.PresenceService{Redis: redisClient, Events: hub}
	pollService := &services.PollService{Dynamo: dynamoService, Events: hub, Chat: chatService}
	recommendationService := services.NewRecommendationService()

	// Set up the server port
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Printf("Using server port: %s\n", port)

	// Initialize the Socket.IO bridge
	socketServer := socket.NewServer(hub)
	go func() {
		if err := socketServer.Serve(); err != nil {
			log.Fatalf("Socket server error: %v", err)
		}
	}()
	defer socketServer.Close()

	// Initialize the router
	r := mux.NewRouter()

	// Register a welcome route
	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "Welcome to Huddle")
	}).Methods("GET")

	// Register a health check endpoint
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		response := map[string]string{"status": "healthy"}
		json.NewEncoder(w).Encode(response)
	}).Methods("GET")

	// Mount the Socket.IO endpoint
	r.Handle("/socket.io/", socketServer)

	// Register routes
	routes.RegisterUserProfileRoutes(r, userProfileService)
	routes.RegisterFriendRoutes(r, friendService)
	routes.RegisterGroupRoutes(r, groupService, recommendationService)
	routes.RegisterGroupChatRoutes(r, chatService, presenceService)
	routes.RegisterPollRoutes(r, pollService)
	routes.RegisterS3Routes(r)

	// Add CORS middleware
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"}, // Adjust for specific domains if needed
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler(r)

	// Start the HTTP server
	log.Printf("Starting server on port %s...\n", port)
	log.Fatal(http.ListenAndServe(":"+port, corsHandler))
}
