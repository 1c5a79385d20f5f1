package utils

import (
	"strings"
	"time"

	"github.com/golang-jwt/jwt"

	"movie-hub/infrastructure/logger"
)

func GetCurrentTime() time.Time {
	return time.Now().UTC()
}

// NormalizeQuery lowercases, trims and collapses inner whitespace. Every
// layer that keys on a query (fingerprints, dedup cache, pattern tables)
// goes through this single definition.
func NormalizeQuery(q string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(q))), " ")
}

// GenerateToken signs an HS256 token for the admin endpoints.
func GenerateToken(payload map[string]interface{}, secretKey string) (string, error) {
	var claims jwt.MapClaims = payload
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(secretKey))
	if err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while generate token")
		return "", err
	}
	return tokenString, nil
}
