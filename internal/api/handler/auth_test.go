package handler

import (
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailroom/backend/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRoleChecker(t *testing.T) {
	checker := RoleChecker{}

	tests := []struct {
		role    string
		edit    bool
		approve bool
	}{
		{"admin", true, true},
		{"approver", true, true},
		{"staff", true, false},
		{"viewer", false, false},
		{"", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			actor := models.Actor{ID: 1, Role: tt.role}
			assert.Equal(t, tt.edit, checker.Can(actor, models.CapabilityEdit))
			assert.Equal(t, tt.approve, checker.Can(actor, models.CapabilityApprove))
		})
	}
}

func TestParseToken(t *testing.T) {
	h := &Handler{JWTSecret: []byte("test-secret")}

	signed := func(claims jwt.MapClaims, secret []byte) string {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		s, err := token.SignedString(secret)
		require.NoError(t, err)
		return s
	}

	t.Run("valid token yields the actor", func(t *testing.T) {
		tok := signed(jwt.MapClaims{
			"sub":  float64(42),
			"role": "approver",
			"exp":  time.Now().Add(time.Hour).Unix(),
		}, h.JWTSecret)

		actor, err := h.actorFromHeader("Bearer " + tok)
		require.NoError(t, err)
		assert.Equal(t, uint(42), actor.ID)
		assert.Equal(t, "approver", actor.Role)
	})

	t.Run("missing bearer prefix", func(t *testing.T) {
		_, err := h.actorFromHeader("")
		assert.ErrorIs(t, err, errMissingToken)
	})

	t.Run("wrong secret", func(t *testing.T) {
		tok := signed(jwt.MapClaims{
			"sub": float64(1),
			"exp": time.Now().Add(time.Hour).Unix(),
		}, []byte("other-secret"))

		_, err := h.actorFromHeader("Bearer " + tok)
		assert.ErrorIs(t, err, errInvalidToken)
	})

	t.Run("expired token", func(t *testing.T) {
		tok := signed(jwt.MapClaims{
			"sub": float64(1),
			"exp": time.Now().Add(-time.Hour).Unix(),
		}, h.JWTSecret)

		_, err := h.actorFromHeader("Bearer " + tok)
		assert.ErrorIs(t, err, errInvalidToken)
	})
}
