// Package auth issues and verifies the signed bearer tokens of the API and
// provides the HTTP middleware that guards the task routes.
//
// Tokens are stateless HS256 JWTs: nothing is stored server side, so a token
// stays valid until it expires, whatever happens to the account meanwhile.
package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"

	"github.com/patric-chuzhbe/tareas/internal/logger"
	"github.com/patric-chuzhbe/tareas/internal/models"
)

// BearerPrefix is stripped from the Authorization header before verification.
const BearerPrefix = "Bearer "

var (
	ErrMissingToken = models.ErrMissingToken
	ErrInvalidToken = models.ErrInvalidToken
)

// Claims represents the JWT claims used by the system.
// It embeds standard JWT claims and adds the user name.
type Claims struct {
	jwt.RegisteredClaims
	Name string `json:"nombre"`
}

// ContextKey is a custom type for storing values in context to avoid collisions.
type ContextKey string

// UserNameKey is the context key holding the authenticated user's name.
const UserNameKey ContextKey = "userName"

// Auth is the token service: it signs claims with the process-wide secret
// and verifies tokens presented by clients.
type Auth struct {
	// signingSecretKey is the HMAC key tokens are signed with.
	signingSecretKey []byte

	// tokenTTL is the validity window counted from issuance.
	tokenTTL time.Duration

	// now is the clock used for issuance timestamps.
	now func() time.Time
}

type InitOption func(*Auth)

// WithClock replaces the clock used to stamp issued tokens.
func WithClock(now func() time.Time) InitOption {
	return func(a *Auth) {
		a.now = now
	}
}

// New creates a token service signing with signingSecretKey. Issued tokens
// expire tokenTTL after issuance.
func New(signingSecretKey []byte, tokenTTL time.Duration, optionsProto ...InitOption) *Auth {
	a := &Auth{
		signingSecretKey: signingSecretKey,
		tokenTTL:         tokenTTL,
		now:              time.Now,
	}
	for _, protoOption := range optionsProto {
		protoOption(a)
	}

	return a
}

// Issue signs claims, stamping issuance and expiry times.
func (a *Auth) Issue(claims Claims) (string, error) {
	issuedAt := a.now()
	claims.IssuedAt = jwt.NewNumericDate(issuedAt)
	claims.ExpiresAt = jwt.NewNumericDate(issuedAt.Add(a.tokenTTL))

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	tokenString, err := token.SignedString(a.signingSecretKey)
	if err != nil {
		return "", fmt.Errorf(
			"in internal/auth/auth.go/Issue(): error while `token.SignedString()` calling: %w",
			err,
		)
	}

	return tokenString, nil
}

// Verify checks a token as found in an Authorization header. The "Bearer "
// prefix is optional. It fails with ErrMissingToken when nothing was supplied
// and with ErrInvalidToken when the token is malformed, badly signed or expired.
func (a *Auth) Verify(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}
	tokenString = strings.TrimPrefix(tokenString, BearerPrefix)

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return a.signingSecretKey, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
	)
	if err != nil {
		return nil, errors.Join(ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.ExpiresAt == nil {
		return nil, errors.Join(ErrInvalidToken, errors.New("token has no expiry"))
	}

	return claims, nil
}

// AuthenticateUser is an HTTP middleware that admits only requests carrying a
// valid bearer token and stores the user name in the request context.
// A missing header is answered with 401, an unusable token with 400.
func (a *Auth) AuthenticateUser(h http.Handler) http.Handler {
	middleware := func(response http.ResponseWriter, request *http.Request) {
		claims, err := a.Verify(request.Header.Get("Authorization"))
		if errors.Is(err, ErrMissingToken) {
			writeMessage(response, http.StatusUnauthorized, "No tienes autorización")
			return
		}
		if err != nil {
			logger.Log.Debugln("Error calling the `a.Verify()`: ", zap.Error(err))
			writeMessage(response, http.StatusBadRequest, "Token inválido")
			return
		}

		ctx := context.WithValue(request.Context(), UserNameKey, claims.Name)
		h.ServeHTTP(response, request.WithContext(ctx))
	}

	return http.HandlerFunc(middleware)
}

// UserNameFromContext returns the name stored by AuthenticateUser.
func UserNameFromContext(ctx context.Context) (string, bool) {
	name, ok := ctx.Value(UserNameKey).(string)
	return name, ok && name != ""
}

func writeMessage(response http.ResponseWriter, status int, message string) {
	response.Header().Set("Content-Type", "application/json")
	response.WriteHeader(status)
	_ = json.NewEncoder(response).Encode(models.MessageResponse{Message: message})
}
