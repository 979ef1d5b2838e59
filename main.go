// Command direkt starts the Direkt puzzle server.
//
// It supports two modes:
//  1. "server" (default) – runs the HTTP server exposing REST API, WebSocket, and an /mcp HTTP endpoint
//  2. "stdio-mcp" – runs an MCP stdio server and spins up an internal HTTP API if none is available
//
// Flags control host/port, level directory, episode recording, debug logging,
// version output, and optional ngrok tunneling for external access during development.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	log "github.com/sirupsen/logrus"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/direkt/api"
	"github.com/wricardo/direkt/game/config"
	"github.com/wricardo/direkt/game/replay"
	"github.com/wricardo/direkt/game/results"
	"github.com/wricardo/direkt/game/service"
	"github.com/wricardo/direkt/game/session"
	"github.com/wricardo/direkt/transport/mcp"
	"github.com/wricardo/direkt/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Direkt Puzzle Server"
)

// Configuration flags control how the server starts and which services are enabled.
var (
	port         = flag.Int("port", 8080, "HTTP server port")
	host         = flag.String("host", "localhost", "HTTP server host")
	levelsDir    = flag.String("levels-dir", envOr("LEVELS_DIR", "levels"), "Directory containing level files (.json, .yaml)")
	replayDir    = flag.String("replay-dir", envOr("REPLAY_DIR", "episodes"), "Directory for recorded episodes (empty disables recording)")
	statsDB      = flag.String("stats-db", envOr("STATS_DB", "episodes/index.db"), "SQLite episode index for level stats (empty disables stats)")
	debug        = flag.Bool("debug", false, "Enable debug logging")
	version      = flag.Bool("version", false, "Show version information")
	ngrokEnabled = flag.Bool("ngrok", false, "Enable ngrok tunnel")
	ngrokAuth    = flag.String("ngrok-auth", "", "Ngrok auth token (or use NGROK_AUTHTOKEN env var)")
	ngrokDomain  = flag.String("ngrok-domain", "", "Custom ngrok domain (optional)")
)

// envOr returns the environment variable key, or fallback when it is unset.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS] [MODE]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "%s v%s\n\n", AppName, Version)
		fmt.Fprintf(os.Stderr, "Available modes:\n")
		fmt.Fprintf(os.Stderr, "  server, http     Run HTTP server with API, WebSocket, and MCP endpoint (default)\n")
		fmt.Fprintf(os.Stderr, "  stdio-mcp        Run MCP stdio server with internal HTTP server\n")
		fmt.Fprintf(os.Stderr, "  mcp-stdio        Alias for stdio-mcp\n")
		fmt.Fprintf(os.Stderr, "  mcp              Alias for stdio-mcp\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                          # Run HTTP server on default port 8080\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -port 9090               # Run HTTP server on port 9090\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -replay-dir '' stdio-mcp # Run MCP stdio server without recording\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s mcp -port 9090           # Run MCP stdio server with internal HTTP on port 9090\n", os.Args[0])
	}
}

// main parses flags, initializes services, and starts the selected mode.
func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			log.WithError(err).Warn("error loading .env file")
		}
	} else {
		log.Info("loaded environment variables from .env file")
	}

	flag.Parse()

	if *version {
		fmt.Printf("%s v%s\n", AppName, Version)
		os.Exit(0)
	}

	setupLogging(*debug)

	args := flag.Args()
	mode := "server"
	if len(args) > 0 {
		mode = args[0]
	}

	log.WithFields(log.Fields{"version": Version, "mode": mode}).Infof("starting %s", AppName)

	app, err := initializeServices()
	if err != nil {
		log.WithError(err).Fatal("failed to initialize services")
	}
	defer app.Close()

	go sessionCleanupRoutine(app.game)

	switch mode {
	case "stdio-mcp", "mcp-stdio", "mcp":
		runStdioMCPWithInternalServer(app.game)

	case "server", "http":
		runHTTPServer(app.game)

	default:
		app.Close()
		log.Fatalf("unknown mode: %s. Use 'server' (default) or 'stdio-mcp'", mode)
	}
}

func setupLogging(debug bool) {
	log.SetOutput(os.Stderr)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	if debug {
		log.SetLevel(log.DebugLevel)
		log.SetReportCaller(true)
	} else {
		log.SetLevel(log.InfoLevel)
	}
}

// services holds everything initializeServices wires together
type services struct {
	game     service.GameService
	sessions *session.Manager
	closers  []io.Closer
}

// Close flushes the episode log and the stats index
func (s *services) Close() {
	for _, c := range s.closers {
		if err := c.Close(); err != nil {
			log.WithError(err).Warn("failed to close episode sink")
		}
	}
	s.closers = nil
}

// initializeServices wires config and session managers, the episode sinks and
// the game service.
func initializeServices() (*services, error) {
	configManager, err := config.NewManager(*levelsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}

	app := &services{sessions: session.NewManager()}

	var opts []service.Option
	var sinks []service.EpisodeSink

	if *replayDir != "" {
		writer := replay.NewWriter(*replayDir)
		sinks = append(sinks, writer)
		app.closers = append(app.closers, writer)
		log.WithField("dir", *replayDir).Info("recording episodes")
	}

	if *statsDB != "" {
		index, err := results.OpenSQLite(*statsDB)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("failed to open stats index: %w", err)
		}
		sinks = append(sinks, index)
		app.closers = append(app.closers, index)
		opts = append(opts, service.WithStats(index))
		log.WithField("path", *statsDB).Info("episode index enabled")
	}

	if len(sinks) > 0 {
		opts = append(opts, service.WithEpisodeSinks(sinks...))
	}

	app.game = service.NewGameService(app.sessions, configManager, opts...)
	return app, nil
}

// sessionCleanupRoutine periodically removes sessions that have not been accessed
// within the retention window. Their unfinished episodes are recorded as abandoned.
func sessionCleanupRoutine(game service.GameService) {
	ticker := time.NewTicker(1 * time.Hour)
	defer ticker.Stop()

	for range ticker.C {
		game.ExpireSessions(context.Background(), 24*time.Hour)
	}
}

// mcpHandler answers single JSON-RPC MCP messages posted to /mcp
func mcpHandler(mcpServer *server.MCPServer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpServer.HandleMessage(r.Context(), body)
		if response == nil {
			// notifications have no reply
			w.WriteHeader(http.StatusAccepted)
			return
		}

		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(responseData)
	}
}

// newRouter combines the REST API, WebSocket endpoint and /mcp
func newRouter(gameService service.GameService, hub *websocket.Hub, baseURL string) http.Handler {
	apiServer := api.NewServer(gameService, hub)
	mcpClient := mcp.NewClient(baseURL)

	mainRouter := http.NewServeMux()
	mainRouter.Handle("/", apiServer)
	mainRouter.HandleFunc("/mcp", mcpHandler(mcpClient.GetMCPServer()))
	return mainRouter
}

// runHTTPServer starts the HTTP server with REST API, WebSocket hub, and an /mcp proxy endpoint.
// If ngrok is enabled (via flag or environment), it also provisions a public tunnel.
func runHTTPServer(gameService service.GameService) {
	hub := websocket.NewHub()
	go hub.Run()
	defer hub.Stop()

	addr := fmt.Sprintf("%s:%d", *host, *port)
	mainRouter := newRouter(gameService, hub, fmt.Sprintf("http://%s", addr))

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      mainRouter,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()

		log.WithFields(log.Fields{
			"rest":      fmt.Sprintf("http://%s/api", addr),
			"websocket": fmt.Sprintf("ws://%s/ws?session=<session_id>", addr),
			"mcp":       fmt.Sprintf("http://%s/mcp", addr),
		}).Infof("HTTP server listening on %s", addr)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("HTTP server failed")
		}
	}()

	ngrokShouldRun := *ngrokEnabled
	if !ngrokShouldRun {
		if envEnabled := os.Getenv("NGROK_ENABLED"); envEnabled == "true" || envEnabled == "1" {
			ngrokShouldRun = true
		}
	}

	if ngrokShouldRun {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrok(ctx, mainRouter)
		}()
	}

	sig := <-stop
	log.WithField("signal", sig).Info("shutting down")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("HTTP server shutdown error")
	}

	wg.Wait()
	log.Info("server stopped")
}

// runNgrok serves handler through an ngrok tunnel until ctx is cancelled
func runNgrok(ctx context.Context, handler http.Handler) {
	// Support both naming conventions for the token
	authToken := *ngrokAuth
	if authToken == "" {
		authToken = os.Getenv("NGROK_AUTHTOKEN")
		if authToken == "" {
			authToken = os.Getenv("NGROK_AUTH_TOKEN")
		}
	}

	if authToken == "" {
		log.Warn("ngrok enabled but no auth token provided (use -ngrok-auth, NGROK_AUTHTOKEN, or NGROK_AUTH_TOKEN env var)")
		return
	}

	domain := *ngrokDomain
	if domain == "" {
		domain = os.Getenv("NGROK_DOMAIN")
	}

	var tunnel ngrokConfig.Tunnel
	if domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain))
		log.WithField("domain", domain).Info("using custom ngrok domain")
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(authToken))
	if err != nil {
		log.WithError(err).Error("failed to start ngrok tunnel")
		return
	}
	go func() {
		<-ctx.Done()
		tun.Close()
	}()

	ngrokURL := tun.URL()
	log.WithFields(log.Fields{
		"rest":      ngrokURL + "/api",
		"websocket": ngrokURL + "/ws?session=<session_id>",
		"mcp":       ngrokURL + "/mcp",
	}).Infof("ngrok tunnel established: %s", ngrokURL)

	if err := http.Serve(tun, handler); err != nil && err != http.ErrServerClosed && ctx.Err() == nil {
		log.WithError(err).Warn("ngrok server error")
	}
	log.Info("ngrok tunnel closed")
}

// runStdioMCPWithInternalServer runs an MCP stdio server.
// It tries to reuse an external API at http://localhost:<port>; if unavailable, it
// starts an internal HTTP API bound to a random loopback port and targets that.
func runStdioMCPWithInternalServer(gameService service.GameService) {
	externalURL := fmt.Sprintf("http://localhost:%d", *port)
	baseURL := externalURL

	log.WithField("url", externalURL).Info("checking for external API server")

	testClient := &http.Client{Timeout: 2 * time.Second}
	resp, err := testClient.Get(externalURL + "/health")
	if err == nil && resp.StatusCode == http.StatusOK {
		resp.Body.Close()
		log.WithField("url", externalURL).Info("external API server found, using it for MCP")
	} else {
		if resp != nil {
			resp.Body.Close()
		}
		log.Info("no external API server found, starting internal HTTP server")

		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			log.WithError(err).Fatal("failed to get available port")
		}
		baseURL = "http://" + listener.Addr().String()

		hub := websocket.NewHub()
		go hub.Run()
		defer hub.Stop()

		httpServer := &http.Server{Handler: api.NewServer(gameService, hub)}
		go func() {
			if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
				log.WithError(err).Error("internal HTTP server error")
			}
		}()
		defer httpServer.Close()

		log.WithField("url", baseURL).Info("internal HTTP server started for MCP stdio")
	}

	mcpClient := mcp.NewClient(baseURL)
	log.WithField("api", baseURL).Info("MCP stdio server ready")

	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		log.WithError(err).Error("MCP stdio server error")
	}
}
