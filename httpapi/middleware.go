package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/gin-gonic/gin"

	"forgecd.dev/core/model"
)

// operatorClaims is the single-operator analog of the teacher's
// controllers.Claims — there is no user id here, since spec.md's
// Non-goals exclude multi-tenant auth; a valid, unexpired token is
// simply "the operator".
type operatorClaims struct {
	jwt.StandardClaims
}

// IssueToken handles POST /api/auth/token: trade the pre-shared
// operator secret from config for a bearer JWT, the way
// controllers.GenerateToken mints a token after authenticating a user,
// minus the user lookup this single-operator model doesn't need.
func (a *App) IssueToken(c *gin.Context) {
	var body struct {
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, model.Wrap(model.KindValidation, "invalid request body", err))
		return
	}
	if a.Config.OperatorToken == "" || body.Token != a.Config.OperatorToken {
		writeError(c, model.NewError(model.KindAuthRequired, "invalid operator token"))
		return
	}

	claims := &operatorClaims{
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(a.Config.JWTTTL).Unix(),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.Config.JWTSigningKey)
	if err != nil {
		writeError(c, model.Wrap(model.KindInternal, "signing token", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": signed})
}

// RequireOperator validates the bearer token on every /api route
// except the webhook receiver, which authenticates via its own HMAC
// secret instead (A.1's ambient auth concern, adapted from
// middleware.ValidateJWT).
func (a *App) RequireOperator(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		writeError(c, model.NewError(model.KindAuthRequired, "missing bearer token"))
		c.Abort()
		return
	}
	tokenStr := strings.TrimPrefix(header, "Bearer ")

	claims := &operatorClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(*jwt.Token) (interface{}, error) {
		return a.Config.JWTSigningKey, nil
	})
	if err != nil || !token.Valid {
		writeError(c, model.NewError(model.KindAuthRequired, "invalid or expired token"))
		c.Abort()
		return
	}
	c.Next()
}
