package api

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shaj13/go-guardian/auth"
	"github.com/shaj13/go-guardian/auth/strategies/basic"
	"github.com/shaj13/go-guardian/auth/strategies/bearer"
	"github.com/shaj13/go-guardian/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/linesmerrill/legal-case-api/casework"
	"github.com/linesmerrill/legal-case-api/databases"
)

// verified credentials and tokens are remembered this long before being checked again
const authCacheTTL = 5 * time.Minute

// expiresAtExtension carries a bearer token's exp claim on the cached auth info
const expiresAtExtension = "expires_at"

// MiddlewareDB holds what the authentication strategies need
type MiddlewareDB struct {
	DB     databases.UserDatabase
	Tokens *TokenIssuer

	authenticator auth.Authenticator
}

// SetupGoGuardian enables basic auth for token creation and bearer tokens for the api
func (m *MiddlewareDB) SetupGoGuardian() {
	m.authenticator = auth.New()
	basicCache := store.NewFIFO(context.Background(), authCacheTTL)
	tokenCache := &expiringCache{Cache: store.NewFIFO(context.Background(), authCacheTTL), now: m.Tokens.now}
	m.authenticator.EnableStrategy(basic.StrategyKey, basic.New(m.ValidateUser, basicCache))
	m.authenticator.EnableStrategy(bearer.CachedStrategyKey, bearer.New(m.ValidateToken, tokenCache))
}

// expiringCache drops a cached token once the token itself has expired, so an entry
// lives until the earlier of its exp claim and authCacheTTL
type expiringCache struct {
	store.Cache
	now func() time.Time
}

func (c *expiringCache) Load(key string, r *http.Request) (interface{}, bool, error) {
	v, ok, err := c.Cache.Load(key, r)
	if err != nil || !ok {
		return v, ok, err
	}
	info, isInfo := v.(auth.Info)
	if !isInfo || !tokenExpired(info, c.now()) {
		return v, ok, nil
	}
	if err := c.Cache.Delete(key, r); err != nil {
		return nil, false, err
	}
	return nil, false, nil
}

func tokenExpired(info auth.Info, now time.Time) bool {
	exp := info.Extensions()[expiresAtExtension]
	if len(exp) == 0 {
		return true
	}
	at, err := time.Parse(time.RFC3339Nano, exp[0])
	return err != nil || !now.Before(at)
}

// Middleware adds some basic header authentication around accessing the routes
func (m *MiddlewareDB) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		info, err := m.authenticator.Authenticate(r)
		if err != nil {
			zap.S().Infow("unauthorized",
				"url", r.URL.Path,
				"error", err)
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error": "unauthorized"}`))
			return
		}
		zap.S().Debugw("user authenticated", "userId", info.ID())
		next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principalFromInfo(info))))
	})
}

// CreateToken exchanges basic credentials for a signed access token
func (m *MiddlewareDB) CreateToken(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if _, _, ok := r.BasicAuth(); !ok {
		http.Error(w, "basic auth failed", http.StatusUnauthorized)
		return
	}
	info, err := m.authenticator.Authenticate(r)
	if err != nil {
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	p := principalFromInfo(info)
	token, expires, err := m.Tokens.Issue(p)
	if err != nil {
		zap.S().Errorw("failed to issue token", "error", err)
		http.Error(w, "failed to issue token", http.StatusInternalServerError)
		return
	}

	response := map[string]string{
		"token":     token,
		"_id":       p.ID,
		"name":      p.Name,
		"role":      p.ProfileRole,
		"expiresAt": expires.UTC().Format(time.RFC3339),
	}
	responseBody, err := json.Marshal(response)
	if err != nil {
		http.Error(w, "failed to marshal response", http.StatusInternalServerError)
		return
	}
	w.Write(responseBody)
}

// ValidateUser checks an email and password against the stored profile
func (m *MiddlewareDB) ValidateUser(ctx context.Context, r *http.Request, email, password string) (auth.Info, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	usernameHash := sha256.Sum256([]byte(email))

	qctx, cancel := WithQueryTimeout(ctx)
	defer cancel()
	dbEmailResp, err := m.DB.Find(qctx, bson.M{"user.email": email})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get user by email")
	}
	if len(dbEmailResp) == 0 {
		return nil, errors.New("no matching email found")
	}
	user := dbEmailResp[0]

	expectedUsernameHash := sha256.Sum256([]byte(strings.ToLower(user.Details.Email)))
	usernameMatch := subtle.ConstantTimeCompare(usernameHash[:], expectedUsernameHash[:]) == 1

	if err := bcrypt.CompareHashAndPassword([]byte(user.Details.Password), []byte(password)); err != nil {
		return nil, errors.New("failed to compare password")
	}
	if !usernameMatch {
		return nil, errors.New("invalid credentials")
	}
	return auth.NewDefaultUser(user.Details.Name, user.ID, []string{user.Details.Role}, nil), nil
}

// ValidateToken verifies a bearer token issued by CreateToken
func (m *MiddlewareDB) ValidateToken(ctx context.Context, r *http.Request, token string) (auth.Info, error) {
	p, expires, err := m.Tokens.Verify(token)
	if err != nil {
		return nil, err
	}
	extensions := map[string][]string{expiresAtExtension: {expires.UTC().Format(time.RFC3339Nano)}}
	return auth.NewDefaultUser(p.Name, p.ID, []string{p.ProfileRole}, extensions), nil
}

func principalFromInfo(info auth.Info) casework.Principal {
	p := casework.Principal{ID: info.ID(), Name: info.UserName()}
	if groups := info.Groups(); len(groups) > 0 {
		p.ProfileRole = groups[0]
	}
	return p
}
