package middleware

import (
	"context"
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v4"
)

// Имена JWT claims
const (
	jwtClaimUserID = "user_id"
	jwtClaimName   = "name"
)

func GetUserIDFromContext(ctx context.Context) (string, error) {
	claims, ok := ctx.Value(userContextKey).(jwt.MapClaims)
	if !ok {
		return "", errors.New("user claims not found in context or invalid type")
	}
	return userIDFromClaims(claims)
}

func GetUserNameFromContext(ctx context.Context) string {
	claims, ok := ctx.Value(userContextKey).(jwt.MapClaims)
	if !ok {
		return ""
	}
	name, _ := claims[jwtClaimName].(string)
	return name
}

// ContextWithUser кладёт в контекст те же claims, что и Authenticate.
func ContextWithUser(ctx context.Context, userID, name string) context.Context {
	return context.WithValue(ctx, userContextKey, jwt.MapClaims{
		jwtClaimUserID: userID,
		jwtClaimName:   name,
	})
}

func userIDFromClaims(claims jwt.MapClaims) (string, error) {
	userIDClaim, ok := claims[jwtClaimUserID]
	if !ok {
		return "", fmt.Errorf("missing '%s' claim in token", jwtClaimUserID)
	}
	userID, ok := userIDClaim.(string)
	if !ok {
		return "", fmt.Errorf("invalid type for '%s' claim: expected string, got %T", jwtClaimUserID, userIDClaim)
	}
	if userID == "" {
		return "", fmt.Errorf("empty '%s' claim in token", jwtClaimUserID)
	}
	return userID, nil
}
