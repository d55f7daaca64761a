package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	jwt "github.com/golang-jwt/jwt/v5"

	"mailroom/backend/internal/config"
	"mailroom/backend/internal/models"
)

const actorKey = "actor"

var (
	errMissingToken = errors.New("authorization token missing")
	errInvalidToken = errors.New("invalid or expired token")
)

// RoleChecker maps roles onto capabilities. It is the production
// implementation of the workflow's capability predicate.
type RoleChecker struct{}

// Can reports whether the actor's role grants the capability.
// Admin implies everything; approvers can also edit.
func (RoleChecker) Can(actor models.Actor, cap models.Capability) bool {
	switch actor.Role {
	case "admin":
		return true
	case "approver":
		return cap == models.CapabilityApprove || cap == models.CapabilityEdit
	case "staff":
		return cap == models.CapabilityEdit
	default:
		return false
	}
}

type tokenRequest struct {
	Email string `json:"email" binding:"required"`
	Role  string `json:"role"`
}

// IssueToken exchanges an email for a signed JWT. Accounts use the
// first-contact idiom; real credential checks live in front of this
// service and are out of scope here.
func (h *Handler) IssueToken(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email is required"})
		return
	}
	if req.Role == "" {
		req.Role = "staff"
	}

	user, err := h.Storage.SaveUserIfNotExists(req.Email, req.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load user"})
		return
	}

	claims := jwt.MapClaims{
		"sub":  float64(user.ID),
		"role": user.Role,
		"exp":  time.Now().Add(config.TokenTTL).Unix(),
		"iss":  "mailroom-service",
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(h.JWTSecret)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"token": signed, "user_id": user.ID, "role": user.Role})
}

// AuthRequired parses the bearer token and stores the Actor in the
// request context.
func (h *Handler) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, err := h.actorFromHeader(c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.Set(actorKey, actor)
		c.Next()
	}
}

func (h *Handler) actorFromHeader(header string) (models.Actor, error) {
	if !strings.HasPrefix(header, "Bearer ") {
		return models.Actor{}, errMissingToken
	}
	return h.parseToken(strings.TrimPrefix(header, "Bearer "))
}

func (h *Handler) parseToken(tokenString string) (models.Actor, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errInvalidToken
		}
		return h.JWTSecret, nil
	})
	if err != nil || !token.Valid {
		return models.Actor{}, errInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return models.Actor{}, errInvalidToken
	}

	sub, ok := claims["sub"].(float64)
	if !ok {
		return models.Actor{}, errInvalidToken
	}
	role, _ := claims["role"].(string)

	return models.Actor{ID: uint(sub), Role: role}, nil
}

// currentActor retrieves the Actor stored by AuthRequired.
func currentActor(c *gin.Context) models.Actor {
	actor, _ := c.Get(actorKey)
	a, _ := actor.(models.Actor)
	return a
}
