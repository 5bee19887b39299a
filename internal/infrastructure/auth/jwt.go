package auth

import (
	"fmt"
	"strconv"
	"time"

	"github.com/St1cky1/task-tracker/internal/entity"
	"github.com/golang-jwt/jwt/v5"
)

// JWTManager verifies HS256 access tokens issued by the identity provider.
// Generation exists for tooling and tests.
type JWTManager struct {
	secretKey []byte
	ttl       time.Duration
}

func NewJWTManager(secretKey string) *JWTManager {
	return &JWTManager{
		secretKey: []byte(secretKey),
		ttl:       15 * time.Minute,
	}
}

// GenerateAccessToken генерирует access token на 15 минут
func (m *JWTManager) GenerateAccessToken(userID int, username string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub":      strconv.Itoa(userID),
		"user_id":  userID,
		"username": username,
		"exp":      now.Add(m.ttl).Unix(),
		"iat":      now.Unix(),
		"type":     "access",
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(m.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}

	return tokenString, nil
}

// ValidateAccessToken проверяет access token и возвращает пользователя
func (m *JWTManager) ValidateAccessToken(tokenString string) (*entity.Principal, error) {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	// Проверяем тип токена, если он указан
	if tokenType, ok := claims["type"].(string); ok && tokenType != "access" {
		return nil, fmt.Errorf("invalid token type")
	}

	userID, err := userIDFromClaims(claims)
	if err != nil {
		return nil, err
	}

	username, _ := claims["username"].(string)

	return &entity.Principal{
		UserID:   userID,
		Username: username,
	}, nil
}

// user_id wins over sub; both may be numeric or a decimal string.
func userIDFromClaims(claims jwt.MapClaims) (int, error) {
	for _, key := range []string{"user_id", "sub"} {
		switch v := claims[key].(type) {
		case float64:
			if v > 0 {
				return int(v), nil
			}
		case string:
			if id, err := strconv.Atoi(v); err == nil && id > 0 {
				return id, nil
			}
		}
	}
	return 0, fmt.Errorf("invalid user_id in token")
}
