package main

import (
	"net/http"
	"os"

	"pressroom/config/database"
	"pressroom/pkg/logger"
	"pressroom/router"
	"pressroom/socket"

	"github.com/joho/godotenv"
)

func main() {
	envErr := godotenv.Load()

	logger.Init()
	defer logger.Sync()

	if envErr != nil {
		logger.Sugar.Info("No .env file found, using environment variables from OS")
	}

	db := database.Connect()
	defer db.Close()

	hub := socket.NewHub()
	go hub.Run()

	handler := router.Setup(db, hub)

	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = ":8080"
	}

	logger.Sugar.Infof("pressroom listening on %s", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		logger.Sugar.Fatalf("Server stopped: %v", err)
	}
}
