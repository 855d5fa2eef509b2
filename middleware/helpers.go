package middleware

import (
	"context"
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v4"
)

const (
	jwtClaimUserID = "user_id"
	jwtClaimRole   = "role"
)

func GetUserIDFromContext(ctx context.Context) (int, error) {
	claims, ok := ctx.Value(userContextKey).(jwt.MapClaims)
	if !ok {
		return 0, errNoClaims
	}

	userIDClaim, ok := claims[jwtClaimUserID]
	if !ok {
		return 0, fmt.Errorf("missing '%s' claim in token", jwtClaimUserID)
	}

	var userID int
	switch v := userIDClaim.(type) {
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("'%s' claim is not an integer: %f", jwtClaimUserID, v)
		}
		userID = int(v)
	case string:
		id, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("invalid '%s' claim %q: %w", jwtClaimUserID, v, err)
		}
		userID = id
	default:
		return 0, fmt.Errorf("invalid type for '%s' claim: expected number or string, got %T", jwtClaimUserID, userIDClaim)
	}

	if userID <= 0 {
		return 0, fmt.Errorf("invalid user ID value in '%s' claim: %d", jwtClaimUserID, userID)
	}
	return userID, nil
}

func GetUserRoleFromContext(ctx context.Context) (string, error) {
	claims, ok := ctx.Value(userContextKey).(jwt.MapClaims)
	if !ok {
		return "", errNoClaims
	}

	roleClaim, ok := claims[jwtClaimRole]
	if !ok {
		return "", fmt.Errorf("missing '%s' claim in token", jwtClaimRole)
	}
	role, ok := roleClaim.(string)
	if !ok {
		return "", fmt.Errorf("invalid type for '%s' claim: expected string, got %T", jwtClaimRole, roleClaim)
	}
	return role, nil
}

func contextWithClaims(ctx context.Context, claims jwt.MapClaims) context.Context {
	return context.WithValue(ctx, userContextKey, claims)
}
