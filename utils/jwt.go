package utils

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	redis "github.com/redis/go-redis/v9"
)

type contextKey string

const UserIDKey = contextKey("userID")
const UserRoleKey = contextKey("userRole")
const AdminIDKey = contextKey("adminID")
const RequestIDKey = contextKey("requestID")

// GetUserID extracts the authenticated user id placed on the request context
// by the auth middleware.
func GetUserID(r *http.Request) (uint, bool) {
	v := r.Context().Value(UserIDKey)
	id, ok := v.(uint)
	return id, ok
}

// GetAdminID extracts the authenticated admin id placed on the request
// context by the admin auth middleware.
func GetAdminID(r *http.Request) (int64, bool) {
	v := r.Context().Value(AdminIDKey)
	id, ok := v.(int64)
	return id, ok
}

// RedisClient is an optional shared Redis client used for token revocation.
// It is nil when REDIS_ADDR is not configured; revocation is then a no-op.
var RedisClient *redis.Client

func init() {
	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return
	}
	opts := &redis.Options{Addr: addr}
	if p := os.Getenv("REDIS_PASS"); p != "" {
		opts.Password = p
	}
	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		var dbn int
		_, _ = fmt.Sscanf(dbStr, "%d", &dbn)
		opts.DB = dbn
	}
	rc := redis.NewClient(opts)
	if err := rc.Ping(context.Background()).Err(); err != nil {
		fmt.Printf("warning: redis ping failed: %v\n", err)
		return
	}
	RedisClient = rc
}

func generateJTI(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// GenerateAccessToken issues a signed HS256 token with id and role claims.
// Admin tokens are shorter-lived than user tokens.
func GenerateAccessToken(id int64, role string) (string, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return "", errors.New("JWT_SECRET is not set")
	}

	expTime := 24 * time.Hour
	if role == "admin" {
		expTime = 6 * time.Hour
	}

	now := time.Now()
	jti, err := generateJTI(32)
	if err != nil {
		return "", err
	}
	claims := jwt.MapClaims{
		"id":   id,
		"role": role,
		"exp":  now.Add(expTime).Unix(),
		"iat":  now.Unix(),
		"nbf":  now.Unix(),
		"jti":  jti,
		"aud":  os.Getenv("JWT_AUD"),
		"iss":  os.Getenv("JWT_ISS"),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateAccessToken parses and validates an access token: exact HS256,
// registered claims, and the Redis revocation list when configured.
func ValidateAccessToken(tokenStr string) (jwt.MapClaims, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, errors.New("JWT_SECRET is not set")
	}
	token, err := jwt.ParseWithClaims(tokenStr, jwt.MapClaims{}, func(t *jwt.Token) (interface{}, error) {
		// Require exact HS256 to avoid algorithm confusion.
		if t.Method == nil || t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("invalid claims")
	}

	if aud := os.Getenv("JWT_AUD"); aud != "" {
		if got, _ := claims["aud"].(string); got != aud {
			return nil, errors.New("invalid audience")
		}
	}
	if iss := os.Getenv("JWT_ISS"); iss != "" {
		if got, _ := claims["iss"].(string); got != iss {
			return nil, errors.New("invalid issuer")
		}
	}

	if jti, _ := claims["jti"].(string); jti != "" {
		revoked, err := IsTokenRevoked(context.Background(), jti)
		if err == nil && revoked {
			return nil, errors.New("token revoked")
		}
	}
	return claims, nil
}

// RevokeToken blacklists a token's jti until it would have expired anyway.
// Without Redis this is a best-effort no-op; short token lifetimes bound the
// exposure.
func RevokeToken(ctx context.Context, jti string, until time.Time) error {
	if RedisClient == nil || jti == "" {
		return nil
	}
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	return RedisClient.Set(ctx, "revoked:"+jti, "1", ttl).Err()
}

// IsTokenRevoked reports whether a jti is on the revocation list.
func IsTokenRevoked(ctx context.Context, jti string) (bool, error) {
	if RedisClient == nil {
		return false, nil
	}
	n, err := RedisClient.Exists(ctx, "revoked:"+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ClaimID extracts a numeric id claim, tolerating the float64 that
// encoding/json produces for JSON numbers.
func ClaimID(claims jwt.MapClaims) int64 {
	switch v := claims["id"].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	case string:
		var n int64
		_, _ = fmt.Sscanf(v, "%d", &n)
		return n
	}
	return 0
}
