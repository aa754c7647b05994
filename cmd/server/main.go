/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the POS engine server. Handles configuration,
  store selection, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env (optional) and parse command-line flags
  2. Pick the store: remote PostgREST if configured, else local SQLite
  3. Create API handler with dependencies
  4. Configure HTTP router
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port    HTTP server port (default: 8080)
  -db      SQLite database path (default: pos.db)
           Use ":memory:" for an in-memory database

ENVIRONMENT:
  POSTGREST_URL   Remote PostgREST root (e.g. https://x.example.co/rest/v1)
  POSTGREST_KEY   API key for the remote store
  When both are set the remote store is used and -db is ignored.
  A .env file in the working directory is loaded if present.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (30s timeout)
  3. Close the local database connection, if any
  4. Exit

EXAMPLES:
  # Local, file database
  ./server -db="./data/pos.db"

  # Local, in-memory (throwaway)
  ./server -db=":memory:"

  # Remote store
  POSTGREST_URL=https://x.example.co/rest/v1 POSTGREST_KEY=... ./server

SEE ALSO:
  - api/server.go: Router configuration
  - store/sqlite, store/postgrest: the two store implementations
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/elpredio/pos-engine/api"
	"github.com/elpredio/pos-engine/core"
	"github.com/elpredio/pos-engine/store/postgrest"
	"github.com/elpredio/pos-engine/store/sqlite"
)

func main() {
	// .env is optional; absence is not an error.
	_ = godotenv.Load()

	port := flag.Int("port", 8080, "HTTP server port")
	dbPath := flag.String("db", "pos.db", "SQLite database path")
	flag.Parse()

	// Pick the store
	var store core.Store
	if url, key := os.Getenv("POSTGREST_URL"), os.Getenv("POSTGREST_KEY"); url != "" && key != "" {
		log.Printf("Using remote store at %s", url)
		store = postgrest.New(url, key)
	} else {
		local, err := sqlite.New(*dbPath)
		if err != nil {
			log.Fatalf("Failed to initialize database: %v", err)
		}
		defer local.Close()
		log.Printf("Using local store at %s", *dbPath)
		store = local
	}

	handler := api.NewHandler(store)
	router := api.NewRouter(handler)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", *port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on http://localhost:%d", *port)
		log.Printf("API available at http://localhost:%d/api", *port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
