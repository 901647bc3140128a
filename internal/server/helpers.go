package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/ZackMurry/cardtown-sub000/internal/auth"
	"github.com/ZackMurry/cardtown-sub000/internal/crypto"
	"github.com/ZackMurry/cardtown-sub000/internal/keyvault"
	"github.com/ZackMurry/cardtown-sub000/internal/storage"
	"github.com/ZackMurry/cardtown-sub000/internal/team"
)

func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func tooMany(w http.ResponseWriter, retryAfterSeconds int) {
	if retryAfterSeconds > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(retryAfterSeconds))
	}
	http.Error(w, "too many requests", http.StatusTooManyRequests)
}

// httpError maps the error taxonomy onto status codes. Expected
// rejections get generic messages; unwrap and decrypt failures are
// internal and logged with context by the caller.
func (s *Server) httpError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, auth.ErrBadCredentials):
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
	case errors.Is(err, auth.ErrUnauthenticated):
		http.Error(w, "invalid token", http.StatusUnauthorized)
	case errors.Is(err, team.ErrBadInviteKey):
		http.Error(w, "invite key rejected", http.StatusUnprocessableEntity)
	case errors.Is(err, team.ErrAlreadyMember):
		http.Error(w, "already on a team", http.StatusConflict)
	case errors.Is(err, auth.ErrAccountExists):
		http.Error(w, "account already exists", http.StatusConflict)
	case errors.Is(err, team.ErrTeamNotFound), errors.Is(err, storage.ErrNotFound):
		http.NotFound(w, nil)
	case errors.Is(err, auth.ErrKeyUnwrap),
		errors.Is(err, crypto.ErrDecryptFailed),
		errors.Is(err, keyvault.ErrPrincipalNotFound):
		s.logger.Printf("internal crypto failure: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	default:
		s.logger.Printf("internal error: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

var (
	reUpper = regexp.MustCompile(`[A-Z]`)
	reLower = regexp.MustCompile(`[a-z]`)
	reDigit = regexp.MustCompile(`[0-9]`)
	reSym   = regexp.MustCompile(`[^A-Za-z0-9]`)
	reEmail = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

func validatePassword(pw string) error {
	switch {
	case len(pw) < 12:
		return errors.New("password must be at least 12 characters")
	case strings.Contains(pw, " "):
		return errors.New("password must not contain spaces")
	case !reUpper.MatchString(pw):
		return errors.New("password must include an uppercase letter")
	case !reLower.MatchString(pw):
		return errors.New("password must include a lowercase letter")
	case !reDigit.MatchString(pw):
		return errors.New("password must include a digit")
	case !reSym.MatchString(pw):
		return errors.New("password must include a special character")
	default:
		return nil
	}
}

func isValidEmail(email string) bool {
	return reEmail.MatchString(email)
}

// contentOwner is the id all entities for this principal live under: the
// team when the principal is on one, else the user. It moves together with
// the active content key.
func contentOwner(p *auth.Principal) uuid.UUID {
	if p.OnTeam() {
		return p.TeamID
	}
	return p.ID
}

// pathID extracts the uuid segment after prefix, e.g. /api/cards/{id}.
func pathID(path, prefix string) (uuid.UUID, string, bool) {
	rest := strings.TrimPrefix(path, prefix)
	rest = strings.Trim(rest, "/")
	if rest == "" {
		return uuid.Nil, "", false
	}
	head, tail, _ := strings.Cut(rest, "/")
	id, err := uuid.Parse(head)
	if err != nil {
		return uuid.Nil, "", false
	}
	return id, tail, true
}
