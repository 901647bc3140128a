package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/time/rate"

	"github.com/ZackMurry/cardtown-sub000/internal/audit"
	"github.com/ZackMurry/cardtown-sub000/internal/auth"
	"github.com/ZackMurry/cardtown-sub000/internal/crypto"
	"github.com/ZackMurry/cardtown-sub000/internal/digest"
	"github.com/ZackMurry/cardtown-sub000/internal/keyvault"
	"github.com/ZackMurry/cardtown-sub000/internal/storage"
	"github.com/ZackMurry/cardtown-sub000/internal/team"
)

type Server struct {
	cfg Config

	mux      *http.ServeMux
	logger   *log.Logger
	creds    auth.CredentialStore
	builder  *auth.Builder
	teams    *team.Manager
	entities storage.EntityStore
	audit    *audit.Log

	storageClient *mongo.Client

	rlLoginIP *limiterSet
	rlLoginID *limiterSet
}

// New connects to Mongo and wires the full stack. Configuration problems
// are fatal here, before the listener ever opens.
func New(ctx context.Context, cfg Config) (*Server, error) {
	cfg.setDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.MongoURI == "" {
		return nil, errors.New("server: MongoURI required")
	}

	cli, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := cli.Ping(pingCtx, nil); err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, err
	}
	db := cli.Database(cfg.MongoDB)

	creds, err := auth.NewMongoCredentialStore(ctx, db)
	if err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, err
	}
	teamStore, err := team.NewMongoStore(ctx, db)
	if err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, err
	}

	s, err := build(ctx, cfg, creds, teamStore, storage.NewMongoEntityStore(db))
	if err != nil {
		_ = cli.Disconnect(context.Background())
		return nil, err
	}
	s.storageClient = cli
	return s, nil
}

// NewWithStores wires the server over caller-supplied stores; tests and
// the dev mode use the in-memory implementations.
func NewWithStores(ctx context.Context, cfg Config, creds auth.CredentialStore, teamStore team.Store, entities storage.EntityStore) (*Server, error) {
	cfg.setDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return build(ctx, cfg, creds, teamStore, entities)
}

func build(ctx context.Context, cfg Config, creds auth.CredentialStore, teamStore team.Store, entities storage.EntityStore) (*Server, error) {
	logger := log.New(os.Stdout, "[cardvault] ", log.LstdFlags|log.Lshortfile)

	signer, err := auth.NewTokenSigner([]byte(cfg.JWTSecret), cfg.JWTIssuer, cfg.TokenTTL)
	if err != nil {
		return nil, err
	}
	teams := team.NewManager(teamStore, logger)

	s := &Server{
		cfg:      cfg,
		mux:      http.NewServeMux(),
		logger:   logger,
		creds:    creds,
		builder:  auth.NewBuilder(creds, keyvault.New(creds), teams, signer, cfg.Operator, logger),
		teams:    teams,
		entities: entities,
		audit:    audit.New(),
	}

	perWindow := func(n int, window time.Duration) float64 { return float64(n) / window.Seconds() }
	s.rlLoginIP = newLimiterSet(rate.Limit(perWindow(10, time.Minute)), 10, time.Hour)
	s.rlLoginID = newLimiterSet(rate.Limit(perWindow(5, time.Minute)), 5, time.Hour)

	if err := s.ensureOperatorAccount(ctx); err != nil {
		return nil, err
	}

	s.routes()
	return s, nil
}

// ensureOperatorAccount seeds the operator's credential record so the
// privileged path can run the same personal-key unwrap as any login. The
// password itself is never stored; only its argon2 hash and the wrapped
// personal key are.
func (s *Server) ensureOperatorAccount(ctx context.Context) error {
	op := s.cfg.Operator
	if _, err := s.creds.FindByEmail(ctx, op.Email); err == nil {
		return nil
	} else if !errors.Is(err, auth.ErrAccountNotFound) {
		return err
	}

	hash, err := auth.HashPassword(auth.DefaultArgon, op.Password)
	if err != nil {
		return err
	}
	derived := digest.SumString(op.Password)
	defer crypto.Zero(derived)
	personal, wrapped, err := keyvault.Create(derived)
	if err != nil {
		return err
	}
	crypto.Zero(personal)

	err = s.creds.Add(ctx, &auth.Account{
		ID:         uuid.New(),
		Email:      op.Email,
		FirstName:  "Card",
		LastName:   "Vault",
		PassHash:   hash,
		WrappedKey: wrapped,
		Roles:      []auth.Role{auth.RoleOperator},
		CreatedAt:  time.Now().UTC(),
	})
	if errors.Is(err, auth.ErrAccountExists) {
		return nil
	}
	if err == nil {
		s.logger.Printf("seeded operator account %s", op.Email)
	}
	return err
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Printf("panic: %v", rec)
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
	}()

	s.addDefaultHeaders(w, r)
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	path := r.URL.Path
	if strings.HasPrefix(path, "/api/") && !s.isPublic(path) {
		// Operator access is always audited, including failed attempts.
		if op := r.Header.Get(auth.OperatorHeader); op != "" {
			claimed, _, _ := strings.Cut(op, "|")
			s.audit.Record(audit.EventOperator, claimed)
		}
		auth.Required(s.builder)(s.mux).ServeHTTP(w, r)
		return
	}
	s.mux.ServeHTTP(w, r)
}

func (s *Server) Handler() http.Handler { return s }

func (s *Server) isPublic(path string) bool {
	switch path {
	case "/health", "/api/health", "/api/login", "/api/signup":
		return true
	default:
		return false
	}
}

func (s *Server) addDefaultHeaders(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, "+auth.OperatorHeader)
	w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
	if strings.HasPrefix(r.URL.Path, "/api/") {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
	}
}

// Audit exposes the event log, e.g. for an operator endpoint.
func (s *Server) Audit() *audit.Log { return s.audit }

func (s *Server) Close(ctx context.Context) error {
	if s.storageClient != nil {
		return s.storageClient.Disconnect(ctx)
	}
	return nil
}
