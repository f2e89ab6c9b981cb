// Package server hosts the turn engine's HTTP surface: turn submission
// plus a liveness probe. All wiring of the orchestrator and its
// collaborators happens here.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/riftholm/riftholm/internal/platform/config"
	platformerrors "github.com/riftholm/riftholm/internal/platform/errors"
	"github.com/riftholm/riftholm/internal/platform/timeouts"
	"github.com/riftholm/riftholm/internal/resilience"
	"github.com/riftholm/riftholm/internal/services/turns/gamestate"
	"github.com/riftholm/riftholm/internal/services/turns/narrative"
	"github.com/riftholm/riftholm/internal/services/turns/storage"
	redisstore "github.com/riftholm/riftholm/internal/services/turns/storage/redis"
	"github.com/riftholm/riftholm/internal/services/turns/storage/sqlite"
	"github.com/riftholm/riftholm/internal/turns/orchestrator"
	"github.com/riftholm/riftholm/internal/turns/outcome"
	"github.com/riftholm/riftholm/internal/turns/policy"
)

// serverEnv holds env-parsed configuration for the turns server.
type serverEnv struct {
	GameStateURL string `env:"RIFTHOLM_GAMESTATE_URL"`

	ModelResponsesURL string `env:"RIFTHOLM_MODEL_RESPONSES_URL"`
	ModelAPIKey       string `env:"RIFTHOLM_MODEL_API_KEY"`
	ModelName         string `env:"RIFTHOLM_MODEL_NAME" envDefault:"gpt-4o-mini"`

	QuestChance             float64       `env:"RIFTHOLM_QUEST_CHANCE" envDefault:"0.15"`
	QuestCooldownTurns      int           `env:"RIFTHOLM_QUEST_COOLDOWN_TURNS" envDefault:"10"`
	QuestCooldownWindow     time.Duration `env:"RIFTHOLM_QUEST_COOLDOWN_WINDOW" envDefault:"30m"`
	PoiChance               float64       `env:"RIFTHOLM_POI_CHANCE" envDefault:"0.2"`
	PoiCooldownTurns        int           `env:"RIFTHOLM_POI_COOLDOWN_TURNS" envDefault:"5"`
	MemorySparkChance       float64       `env:"RIFTHOLM_MEMORY_SPARK_CHANCE" envDefault:"0.25"`
	QuestPoiReferenceChance float64       `env:"RIFTHOLM_QUEST_POI_REFERENCE_CHANCE" envDefault:"0.5"`
	PolicySeed              string        `env:"RIFTHOLM_POLICY_SEED"`
	MemorySparks            bool          `env:"RIFTHOLM_MEMORY_SPARKS" envDefault:"true"`

	MaxModelCalls int           `env:"RIFTHOLM_MAX_MODEL_CALLS" envDefault:"4"`
	TurnRate      float64       `env:"RIFTHOLM_TURN_RATE" envDefault:"1"`
	ReadRetries   int           `env:"RIFTHOLM_READ_RETRIES" envDefault:"2"`
	ModelRetries  int           `env:"RIFTHOLM_MODEL_RETRIES" envDefault:"2"`
	RetryBase     time.Duration `env:"RIFTHOLM_RETRY_BASE" envDefault:"200ms"`
	RetryMax      time.Duration `env:"RIFTHOLM_RETRY_MAX" envDefault:"5s"`

	DBPath    string        `env:"RIFTHOLM_TURNS_DB_PATH"`
	RedisAddr string        `env:"RIFTHOLM_REDIS_ADDR"`
	RedisTTL  time.Duration `env:"RIFTHOLM_REDIS_TTL" envDefault:"720h"`
}

func loadServerEnv() (serverEnv, error) {
	var cfg serverEnv
	if err := config.ParseEnv(&cfg); err != nil {
		return serverEnv{}, err
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join("data", "turns.db")
	}
	return cfg, nil
}

// Server hosts the turns service.
type Server struct {
	listener   net.Listener
	httpServer *http.Server
	orch       *orchestrator.Orchestrator
	store      io.Closer
	closeOnce  sync.Once
}

// New creates a configured turns server listening on the provided port.
func New(port int) (*Server, error) {
	return NewWithAddr(fmt.Sprintf(":%d", port))
}

// NewWithAddr creates a configured turns server listening on the
// provided address.
func NewWithAddr(addr string) (*Server, error) {
	srvEnv, err := loadServerEnv()
	if err != nil {
		return nil, err
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	orch, store, err := buildOrchestrator(srvEnv)
	if err != nil {
		_ = listener.Close()
		return nil, err
	}

	server := &Server{
		listener: listener,
		orch:     orch,
		store:    store,
	}
	server.httpServer = &http.Server{
		Handler:           server.routes(),
		ReadHeaderTimeout: timeouts.ReadHeader,
	}
	return server, nil
}

func buildOrchestrator(srvEnv serverEnv) (*orchestrator.Orchestrator, io.Closer, error) {
	if strings.TrimSpace(srvEnv.GameStateURL) == "" {
		return nil, nil, errors.New("RIFTHOLM_GAMESTATE_URL is required")
	}

	engine, err := policy.NewEngine(policy.Config{
		QuestChance:             srvEnv.QuestChance,
		QuestCooldownTurns:      srvEnv.QuestCooldownTurns,
		QuestCooldownWindow:     srvEnv.QuestCooldownWindow,
		PoiChance:               srvEnv.PoiChance,
		PoiCooldownTurns:        srvEnv.PoiCooldownTurns,
		MemorySparkChance:       srvEnv.MemorySparkChance,
		QuestPoiReferenceChance: srvEnv.QuestPoiReferenceChance,
		Seed:                    srvEnv.PolicySeed,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("build policy engine: %w", err)
	}

	parser, err := outcome.NewParser()
	if err != nil {
		return nil, nil, fmt.Errorf("build outcome parser: %w", err)
	}

	game, err := gamestate.NewHTTPClient(srvEnv.GameStateURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("build game-state client: %w", err)
	}

	model, err := narrative.NewOpenAIGenerator(narrative.OpenAIConfig{
		ResponsesURL: srvEnv.ModelResponsesURL,
		APIKey:       srvEnv.ModelAPIKey,
		Model:        srvEnv.ModelName,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("build narrative generator: %w", err)
	}

	completions, closer, err := openCompletionStore(srvEnv)
	if err != nil {
		return nil, nil, err
	}

	orch, err := orchestrator.New(orchestrator.Deps{
		Engine:      engine,
		Parser:      parser,
		Game:        game,
		Model:       model,
		Completions: completions,
		Gate:        resilience.NewGate(srvEnv.MaxModelCalls),
		Limiter:     resilience.NewRateLimiter(srvEnv.TurnRate),
		ReadRetry: resilience.Policy{
			MaxRetries: srvEnv.ReadRetries,
			BaseDelay:  srvEnv.RetryBase,
			MaxDelay:   srvEnv.RetryMax,
			Classify:   gamestate.IsRetryable,
		},
		ModelRetry: resilience.Policy{
			MaxRetries: srvEnv.ModelRetries,
			BaseDelay:  srvEnv.RetryBase,
			MaxDelay:   srvEnv.RetryMax,
			Classify:   narrative.IsRetryable,
		},
	}, orchestrator.Config{
		MemorySparks: srvEnv.MemorySparks,
	})
	if err != nil {
		if closer != nil {
			_ = closer.Close()
		}
		return nil, nil, fmt.Errorf("build orchestrator: %w", err)
	}
	return orch, closer, nil
}

// openCompletionStore prefers Redis when configured so multiple engine
// instances share cooldown memory; otherwise it falls back to a local
// SQLite file.
func openCompletionStore(srvEnv serverEnv) (storage.CompletionStore, io.Closer, error) {
	if strings.TrimSpace(srvEnv.RedisAddr) != "" {
		store := redisstore.NewStore(redisstore.Config{
			Addr: srvEnv.RedisAddr,
			TTL:  srvEnv.RedisTTL,
		})
		return store, store, nil
	}

	if dir := filepath.Dir(srvEnv.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create storage dir: %w", err)
		}
	}
	store, err := sqlite.Open(srvEnv.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open turns sqlite store: %w", err)
	}
	return store, store, nil
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/turns", s.handleTurn)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return mux
}

type turnRequestBody struct {
	CharacterID  string `json:"character_id"`
	PlayerAction string `json:"player_action"`
	TraceID      string `json:"trace_id,omitempty"`
	DryRun       bool   `json:"dry_run,omitempty"`
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (s *Server) handleTurn(w http.ResponseWriter, r *http.Request) {
	var body turnRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, platformerrors.New(platformerrors.CodeTurnInvalidRequest, "invalid request body"))
		return
	}

	result, err := s.orch.Run(r.Context(), orchestrator.TurnRequest{
		CharacterID:  body.CharacterID,
		PlayerAction: body.PlayerAction,
		TraceID:      body.TraceID,
		DryRun:       body.DryRun,
	})
	if err != nil {
		log.Printf("turn failed: %v", err)
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(result); err != nil {
		log.Printf("encode turn response: %v", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func writeError(w http.ResponseWriter, err error) {
	code := platformerrors.CodeOf(err)

	var body errorBody
	body.Error.Code = string(code)
	body.Error.Message = err.Error()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code.HTTPStatus())
	if encodeErr := json.NewEncoder(w).Encode(body); encodeErr != nil {
		log.Printf("encode error response: %v", encodeErr)
	}
}

// Addr returns the listener address for the turns server.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Run creates and serves a turns server until the context ends.
func Run(ctx context.Context, port int) error {
	server, err := New(port)
	if err != nil {
		return err
	}
	return server.Serve(ctx)
}

// Serve starts the turns server and blocks until it stops or the
// context ends.
func (s *Server) Serve(ctx context.Context) error {
	if s == nil {
		return errors.New("server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	defer s.Close()

	log.Printf("turns server listening at %v", s.listener.Addr())
	serveErr := make(chan error, 1)
	go func() {
		serveErr <- s.httpServer.Serve(s.listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		err := <-serveErr
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	case err := <-serveErr:
		if err == nil || errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

// Close releases server resources.
func (s *Server) Close() {
	if s == nil {
		return
	}

	s.closeOnce.Do(func() {
		if s.httpServer != nil {
			_ = s.httpServer.Close()
		}
		if s.listener != nil {
			if err := s.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
				log.Printf("close turns listener: %v", err)
			}
		}
		if s.store != nil {
			if err := s.store.Close(); err != nil {
				log.Printf("close completion store: %v", err)
			}
		}
	})
}
