package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/bookshop-client/internal/apisim"
)

func main() {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8000"
	}
	secret := os.Getenv("APISIM_SECRET")
	if secret == "" {
		secret = "dev-only-secret-not-for-production!"
	}

	sim := apisim.New(secret)
	sim.Seed()

	server := &http.Server{
		Addr:    ":" + port,
		Handler: sim.Handler(),
	}

	go func() {
		log.Printf("[apisim] bookshop API simulator on :%s", port)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("[apisim] server error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[apisim] shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	server.Shutdown(shutdownCtx)
}
