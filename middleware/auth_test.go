package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

func signToken(t *testing.T, secret []byte, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	require.NoError(t, err)
	return token
}

func protected(roles ...string) http.Handler {
	final := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := GetUserIDFromContext(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(strconv.Itoa(id)))
	})
	return Authenticate(testSecret)(RequireRole(roles...)(final))
}

func TestAuthenticateAndRequireRole(t *testing.T) {
	future := time.Now().Add(time.Hour).Unix()

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{name: "no header", header: "", wantStatus: http.StatusUnauthorized},
		{name: "not bearer", header: "Basic abc", wantStatus: http.StatusUnauthorized},
		{name: "garbage token", header: "Bearer not-a-jwt", wantStatus: http.StatusUnauthorized},
		{
			name:       "wrong secret",
			header:     "Bearer " + signToken(t, []byte("other"), jwt.MapClaims{"user_id": 1, "role": RoleAdmin, "exp": future}),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "expired",
			header:     "Bearer " + signToken(t, testSecret, jwt.MapClaims{"user_id": 1, "role": RoleAdmin, "exp": time.Now().Add(-time.Hour).Unix()}),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "player role",
			header:     "Bearer " + signToken(t, testSecret, jwt.MapClaims{"user_id": 1, "role": "player", "exp": future}),
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "missing role",
			header:     "Bearer " + signToken(t, testSecret, jwt.MapClaims{"user_id": 1, "exp": future}),
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "organizer",
			header:     "Bearer " + signToken(t, testSecret, jwt.MapClaims{"user_id": 7, "role": RoleOrganizer, "exp": future}),
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/advance", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			protected(RoleOrganizer, RoleAdmin).ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, "7", rec.Body.String())
			}
		})
	}
}

func TestGetUserIDFromContext(t *testing.T) {
	tests := []struct {
		name    string
		claims  jwt.MapClaims
		want    int
		wantErr bool
	}{
		{name: "number", claims: jwt.MapClaims{"user_id": float64(42)}, want: 42},
		{name: "string", claims: jwt.MapClaims{"user_id": "17"}, want: 17},
		{name: "fraction", claims: jwt.MapClaims{"user_id": 1.5}, wantErr: true},
		{name: "zero", claims: jwt.MapClaims{"user_id": float64(0)}, wantErr: true},
		{name: "missing", claims: jwt.MapClaims{}, wantErr: true},
		{name: "bool", claims: jwt.MapClaims{"user_id": true}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := contextWithClaims(httptest.NewRequest(http.MethodGet, "/", nil).Context(), tt.claims)

			got, err := GetUserIDFromContext(ctx)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := GetUserIDFromContext(httptest.NewRequest(http.MethodGet, "/", nil).Context())
	assert.ErrorIs(t, err, errNoClaims)
}
