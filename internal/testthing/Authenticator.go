package testthing

import (
	"context"
	"crypto/ecdsa"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/wostzone/wostconsumer-go/api"
	"github.com/wostzone/wostconsumer-go/pkg/certs"
	"gopkg.in/square/go-jose.v2"
	"gopkg.in/square/go-jose.v2/jwt"
)

// Roles of users of the test thing
const (
	// RoleViewer can read properties and events
	RoleViewer = "viewer"
	// RoleOperator can also write properties and invoke actions
	RoleOperator = "operator"
)

// JWTIssuer is the issuer of tokens created by the test thing
const JWTIssuer = "testthing.Authenticator"

type contextKey string

const roleContextKey contextKey = "role"

// Authenticator verifies the credentials of requests to the test thing with the
// scheme of its TD: nosec, basic or bearer with ES256 signed JWT tokens.
type Authenticator struct {
	scheme      string
	jwtKey      *ecdsa.PrivateKey
	passwords   map[string]string
	roles       map[string]string
	updateMutex sync.RWMutex
}

// AddUser adds a user with password and role
func (auth *Authenticator) AddUser(username string, password string, role string) {
	auth.updateMutex.Lock()
	defer auth.updateMutex.Unlock()
	auth.passwords[username] = password
	auth.roles[username] = role
}

// CreateToken creates a JWT access token for a user that is valid for the given duration
func (auth *Authenticator) CreateToken(username string, validity time.Duration) (string, error) {
	signer, err := jose.NewSigner(
		jose.SigningKey{Algorithm: jose.ES256, Key: auth.jwtKey},
		(&jose.SignerOptions{}).WithType("JWT"))
	if err != nil {
		return "", err
	}
	claims := jwt.Claims{
		Issuer:   JWTIssuer,
		Subject:  username,
		IssuedAt: jwt.NewNumericDate(time.Now()),
		Expiry:   jwt.NewNumericDate(time.Now().Add(validity)),
	}
	return jwt.Signed(signer).Claims(claims).CompactSerialize()
}

// verifyToken returns the username of a valid token
func (auth *Authenticator) verifyToken(tokenString string) (string, bool) {
	token, err := jwt.ParseSigned(tokenString)
	if err != nil {
		logrus.Infof("Authenticator.verifyToken: Invalid token: %s", err)
		return "", false
	}
	claims := jwt.Claims{}
	if err = token.Claims(&auth.jwtKey.PublicKey, &claims); err != nil {
		logrus.Infof("Authenticator.verifyToken: Invalid token signature: %s", err)
		return "", false
	}
	err = claims.Validate(jwt.Expected{Issuer: JWTIssuer, Time: time.Now()})
	if err != nil {
		logrus.Infof("Authenticator.verifyToken: Invalid claims: %s", err)
		return "", false
	}
	return claims.Subject, true
}

// authenticate returns the role of the user making the request
func (auth *Authenticator) authenticate(req *http.Request) (role string, match bool) {
	auth.updateMutex.RLock()
	defer auth.updateMutex.RUnlock()
	var username string
	switch auth.scheme {
	case api.SecSchemeNoSec:
		return RoleOperator, true
	case api.SecSchemeBasic:
		var password string
		username, password, match = req.BasicAuth()
		if match {
			expected, found := auth.passwords[username]
			match = found && expected == password
		}
	case api.SecSchemeBearer:
		authHeader := req.Header.Get("Authorization")
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
			username, match = auth.verifyToken(parts[1])
		}
	}
	if !match {
		return "", false
	}
	return auth.roles[username], true
}

// Handler is the middleware that rejects unauthenticated requests and stores the role of the
// user in the request context
func (auth *Authenticator) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(resp http.ResponseWriter, req *http.Request) {
		role, match := auth.authenticate(req)
		if !match {
			logrus.Infof("Authenticator.Handler: %s %s from %s is unauthorized",
				req.Method, req.URL.Path, req.RemoteAddr)
			if auth.scheme == api.SecSchemeBasic {
				resp.Header().Set("WWW-Authenticate", `Basic realm="testthing"`)
			}
			http.Error(resp, "unauthorized", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(req.Context(), roleContextKey, role)
		next.ServeHTTP(resp, req.WithContext(ctx))
	})
}

// GetRole returns the role of the authenticated user of the request
func GetRole(req *http.Request) string {
	role, _ := req.Context().Value(roleContextKey).(string)
	return role
}

// NewAuthenticator creates an authenticator for the given scheme
//  scheme is one of api.SecSchemeNoSec, api.SecSchemeBasic or api.SecSchemeBearer
func NewAuthenticator(scheme string) *Authenticator {
	auth := &Authenticator{
		scheme:    scheme,
		jwtKey:    certs.CreateECDSAKeys(),
		passwords: make(map[string]string),
		roles:     make(map[string]string),
	}
	return auth
}
