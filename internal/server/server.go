package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/JLSed/Novault/internal/audit"
	"github.com/JLSed/Novault/internal/auth"
	"github.com/JLSed/Novault/internal/storage"

	"golang.org/x/time/rate"
)

// Server exposes the encryption engine over HTTP. Uploads only need the
// recipient's public key; the account password crosses the wire solely
// on login and download, where it unlocks the stored identity for the
// duration of one request.
type Server struct {
	cfg Config

	mux     *http.ServeMux
	signer  *auth.JWTSigner
	users   auth.UserStore
	records storage.RecordStore
	blobs   storage.BlobStore
	audit   *audit.Log
	logger  *log.Logger

	rlLoginIP  *multiLimiter
	rlLoginID  *multiLimiter
	rlUnlockIP *multiLimiter
	rlUnlockID *multiLimiter
}

func New(ctx context.Context, cfg Config) (*Server, error) {
	cfg.setDefaults()
	if cfg.MongoURI == "" {
		return nil, errors.New("server: MongoURI required")
	}
	if cfg.MongoDB == "" {
		return nil, errors.New("server: MongoDB required")
	}

	users, err := auth.NewMongoUserStore(ctx, cfg.MongoURI, cfg.MongoDB, cfg.UsersCollection)
	if err != nil {
		return nil, err
	}
	records, err := storage.NewMongoRecordStore(ctx, cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		return nil, err
	}
	blobs, err := storage.NewMongoBlobStore(ctx, cfg.MongoURI, cfg.MongoDB, cfg.BlobsCollection)
	if err != nil {
		return nil, err
	}
	return NewWithStores(cfg, users, records, blobs)
}

// NewWithStores wires the server over caller-provided stores. Used by
// New once the Mongo stores are up, and directly by tests.
func NewWithStores(cfg Config, users auth.UserStore, records storage.RecordStore, blobs storage.BlobStore) (*Server, error) {
	cfg.setDefaults()

	priv, _, err := auth.GenerateEd25519()
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:     cfg,
		mux:     http.NewServeMux(),
		signer:  auth.NewJWTSigner(priv, cfg.JWTIssuer, cfg.TokenTTL),
		users:   users,
		records: records,
		blobs:   blobs,
		audit:   audit.New(),
		logger:  log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile),
	}

	perWindow := func(n int, window time.Duration) float64 { return float64(n) / window.Seconds() }

	s.rlLoginIP = newMultiLimiter(rate.Limit(perWindow(10, time.Minute)), 10, 1*time.Hour)
	s.rlLoginID = newMultiLimiter(rate.Limit(perWindow(5, time.Minute)), 5, 1*time.Hour)
	s.rlUnlockIP = newMultiLimiter(rate.Limit(perWindow(20, time.Minute)), 20, 30*time.Minute)
	s.rlUnlockID = newMultiLimiter(rate.Limit(perWindow(10, time.Minute)), 10, 30*time.Minute)

	s.routes()
	return s, nil
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
	if strings.HasPrefix(path, "/api/") {
		if s.isPublic(path) {
			s.mux.ServeHTTP(w, r)
			return
		}
		handler := auth.AuthRequired(s.signer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s.mux.ServeHTTP(w, r)
		}))
		handler.ServeHTTP(w, r)
		return
	}
	s.mux.ServeHTTP(w, r)
}

func (s *Server) Handler() http.Handler {
	return s
}

// Audit exposes the tamper-evident operation log.
func (s *Server) Audit() *audit.Log {
	return s.audit
}

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
	w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
	w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
	if strings.HasPrefix(r.URL.Path, "/api/") {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
	}
}
