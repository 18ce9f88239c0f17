package middleware

import (
	"context"
	"strings"

	"ctchen222/Bookshelf/internal/api/models"
	"ctchen222/Bookshelf/internal/api/response"
	"ctchen222/Bookshelf/internal/apperr"

	"github.com/gin-gonic/gin"
)

const currentUserKey = "currentUser"

// IdentityResolver authenticates an access token.
type IdentityResolver interface {
	Resolve(ctx context.Context, accessToken string) (*models.User, error)
}

// RequireAuth rejects requests without a resolvable bearer token. The
// resolved user is available to handlers through CurrentUser.
func RequireAuth(resolver IdentityResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			response.AbortWithError(c, apperr.Unauthorized("Not authenticated"))
			return
		}

		user, err := resolver.Resolve(c.Request.Context(), token)
		if err != nil {
			response.AbortWithError(c, err)
			return
		}

		c.Set(currentUserKey, user)
		c.Next()
	}
}

// CurrentUser returns the user resolved by RequireAuth.
func CurrentUser(c *gin.Context) *models.User {
	user, _ := c.Get(currentUserKey)
	u, _ := user.(*models.User)
	return u
}

func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
