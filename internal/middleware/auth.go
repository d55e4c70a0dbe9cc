package middleware

import (
	"strings"

	"kitchen-collab/internal/auth"
	"kitchen-collab/internal/errors"
	"kitchen-collab/internal/user"

	"github.com/gin-gonic/gin"
)

type UserProvider interface {
	GetUserByID(id string) (*user.User, error)
}

type Auth struct {
	UserService UserProvider
}

// AuthMiddleWare resolves the caller identity and stores it in the
// request context. Downstream handlers read user_id/user_name/user_image/
// user_role; no session state is managed here.
func (m *Auth) AuthMiddleWare() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		authHeader := ctx.GetHeader("Authorization")
		var token string
		tokenQuery := ctx.Query("token")

		if authHeader != "" {
			token = strings.TrimPrefix(authHeader, "Bearer ")
		} else if tokenQuery != "" {
			token = tokenQuery
		} else {
			ctx.Error(errors.Unauthorized("Authorization is not found!", nil))
			ctx.Abort()
			return
		}

		parsedToken, err := auth.VerifyJWT(token)
		if err != nil {
			ctx.Error(errors.Unauthorized("Invalid token!", err))
			ctx.Abort()
			return
		}

		userID, tokenVersion, err := auth.GetDataFromToken(parsedToken)
		if err != nil {
			ctx.Error(errors.Unauthorized("Invalid token!", err))
			ctx.Abort()
			return
		}

		u, err := m.UserService.GetUserByID(userID)
		if err != nil {
			ctx.Error(errors.Unauthorized("Invalid User ID!", err))
			ctx.Abort()
			return
		}

		// Check token version
		if u.TokenVersion != tokenVersion {
			ctx.Error(errors.Unauthorized("Invalid token version!", nil))
			ctx.Abort()
			return
		}

		ctx.Set("user_id", u.ID)
		ctx.Set("user_name", u.Name)
		if u.Image != nil {
			ctx.Set("user_image", *u.Image)
		}
		ctx.Set("user_role", u.Role)
		ctx.Set("jwt_token", token)
		ctx.Next()
	}
}
