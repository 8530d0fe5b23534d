package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/JLSed/Novault/internal/auth"
	"github.com/JLSed/Novault/internal/keyring"
	"github.com/JLSed/Novault/internal/wire"
)

type signupReq struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signupResp struct {
	Username  string `json:"username"`
	PublicKey string `json:"public_key"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req signupReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if username == "" {
		http.Error(w, "username required", http.StatusBadRequest)
		return
	}
	if !isValidEmail(email) {
		http.Error(w, "invalid email", http.StatusBadRequest)
		return
	}
	if err := validatePassword(req.Password); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if _, err := s.users.FindByUsername(username); err == nil {
		http.Error(w, "username taken", http.StatusConflict)
		return
	}

	hash, err := auth.HashPassword(auth.DefaultArgon, req.Password)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	salt, err := randomHex(16)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	id, err := keyring.SetupIdentity(req.Password, salt)
	if err != nil {
		s.logger.Printf("identity setup for %s failed: %v", username, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	rec := wire.NewIdentityRecord(username, id)

	user := &auth.User{
		Username: username,
		Email:    email,
		PassHash: hash,
		Roles:    []auth.Role{auth.RoleUser},
	}
	if err := s.users.Add(user); err != nil {
		http.Error(w, "username taken", http.StatusConflict)
		return
	}
	if err := s.records.PutIdentity(r.Context(), rec); err != nil {
		s.logger.Printf("identity store for %s failed: %v", username, err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	s.logger.Printf("signup %s", username)
	writeJSONStatus(w, http.StatusCreated, signupResp{Username: username, PublicKey: rec.PublicKey})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	ip := getClientIP(r)
	if !s.rlLoginIP.allow(ip) {
		tooMany(w, 60)
		return
	}

	var req auth.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	identifier := strings.TrimSpace(req.Identifier)
	if identifier == "" {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	if !s.rlLoginID.allow(strings.ToLower(identifier)) {
		tooMany(w, 60)
		return
	}

	u, err := s.users.FindByUsername(identifier)
	if err != nil {
		u, err = s.users.FindByEmail(strings.ToLower(identifier))
	}
	if err != nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	ok, err := auth.VerifyPassword(req.Password, u.PassHash)
	if err != nil || !ok {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	tok, exp, err := s.signer.IssueToken(u.Username, u.Roles)
	if err != nil {
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, auth.LoginResponse{Token: tok, ExpiresAt: exp})
}

// handleIdentity returns the caller's stored identity record. Every
// field is public or sealed, so handing it out lets a client unlock
// and decrypt locally without the password ever leaving the machine.
func (s *Server) handleIdentity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	claims, err := auth.MustClaims(r)
	if err != nil {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}
	rec, err := s.records.GetIdentity(r.Context(), claims.Sub)
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	writeJSON(w, rec)
}
