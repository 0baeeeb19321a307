package utils

import (
	"errors"
	"fmt"
	"strings"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

type TokenData struct {
	Sub      string
	Email    string
	Username string
	Exp      int64
}

// TokenVerifier validates Cognito ID tokens locally against the pool signing keys.
type TokenVerifier struct {
	keyfunc  jwt.Keyfunc
	issuer   string
	clientID string
}

// NewTokenVerifier builds a verifier around an arbitrary key source.
// Empty issuer or clientID disable the respective claim check.
func NewTokenVerifier(kf jwt.Keyfunc, issuer, clientID string) *TokenVerifier {
	return &TokenVerifier{
		keyfunc:  kf,
		issuer:   issuer,
		clientID: clientID,
	}
}

func NewCognitoVerifier(region, poolID, clientID string) (*TokenVerifier, error) {
	issuer := fmt.Sprintf("https://cognito-idp.%s.amazonaws.com/%s", region, poolID)
	// URL where Cognito publishes its public keys
	jwksURL := issuer + "/.well-known/jwks.json"

	jwks, err := keyfunc.NewDefault([]string{jwksURL})
	if err != nil {
		return nil, fmt.Errorf("failed to create JWKS from resource at %s: %w", jwksURL, err)
	}

	log.Infof("JWKS initialized. Keys loaded from %s", jwksURL)
	return NewTokenVerifier(jwks.Keyfunc, issuer, clientID), nil
}

// Validate parses AND validates the signature locally.
// It returns the data if the token is an authentic, unexpired ID token.
func (v *TokenVerifier) Validate(tokenString string) (*TokenData, error) {
	if v == nil || v.keyfunc == nil {
		return nil, errors.New("token verifier not initialized")
	}

	opts := []jwt.ParserOption{jwt.WithExpirationRequired()}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}
	if v.clientID != "" {
		opts = append(opts, jwt.WithAudience(v.clientID))
	}

	clean := sanitizeToken(tokenString)
	token, err := jwt.Parse(clean, v.keyfunc, opts...)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	if !token.Valid {
		return nil, errors.New("token is not valid")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid claims format")
	}

	if use := getValue(claims, "token_use"); use != "id" {
		return nil, fmt.Errorf("unexpected token_use %q", use)
	}

	data := &TokenData{
		Sub:      getValue(claims, "sub"),
		Email:    getValue(claims, "email"),
		Username: getValue(claims, "cognito:username"),
		Exp:      getInt64(claims, "exp"),
	}
	if data.Sub == "" {
		return nil, errors.New("token has no subject")
	}
	return data, nil
}

func (v *TokenVerifier) ParseTokenDataCtx(ctx echo.Context) (*TokenData, error) {
	token := ctx.Request().Header.Get(echo.HeaderAuthorization)
	return v.Validate(token)
}

func sanitizeToken(token string) string {
	return strings.TrimSpace(strings.TrimPrefix(token, "Bearer "))
}

func getValue(claims jwt.MapClaims, key string) string {
	if val, ok := claims[key].(string); ok {
		return val
	}
	return ""
}

func getInt64(claims jwt.MapClaims, key string) int64 {
	val, ok := claims[key]
	if !ok {
		return 0
	}
	if f, ok := val.(float64); ok {
		return int64(f)
	}
	if i, ok := val.(int64); ok {
		return i
	}
	return 0
}
