package httppresentation

import (
	"strings"

	"github.com/Zhima-Mochi/marketplace/internal/application"
	appOrder "github.com/Zhima-Mochi/marketplace/internal/application/order"
	"github.com/Zhima-Mochi/marketplace/internal/infrastructure/auth"
	"github.com/gin-gonic/gin"
)

const (
	cookieSellerToken = "seller_token"
	cookieUserToken   = "token"
	ctxActor          = "actor"
	roleAdmin         = "admin"
)

// TokenVerifier checks a session token and returns its principal.
type TokenVerifier interface {
	Verify(token string) (auth.Principal, error)
}

func tokenFrom(c *gin.Context, cookie string) string {
	if v, err := c.Cookie(cookie); err == nil && v != "" {
		return v
	}
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

// requireSeller authenticates the seller_token cookie; the id claim is the shop.
func requireSeller(v TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFrom(c, cookieSellerToken)
		if token == "" {
			writeError(c, errUnauthorized)
			return
		}
		p, err := v.Verify(token)
		if err != nil {
			writeError(c, err)
			return
		}
		c.Set(ctxActor, appOrder.Actor{Role: appOrder.RoleSeller, ID: p.ID})
		c.Next()
	}
}

// requireAdmin authenticates the token cookie and demands the admin role.
func requireAdmin(v TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := tokenFrom(c, cookieUserToken)
		if token == "" {
			writeError(c, errUnauthorized)
			return
		}
		p, err := v.Verify(token)
		if err != nil {
			writeError(c, err)
			return
		}
		if p.Role != roleAdmin {
			writeError(c, application.ErrForbidden)
			return
		}
		c.Set(ctxActor, appOrder.Actor{Role: appOrder.RoleAdmin, ID: p.ID})
		c.Next()
	}
}

// optionalBuyer attaches the buyer identity when a valid token cookie is sent
// and otherwise lets the request through anonymously.
func optionalBuyer(v TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := appOrder.Actor{Role: appOrder.RoleBuyer}
		if token := tokenFrom(c, cookieUserToken); token != "" {
			if p, err := v.Verify(token); err == nil {
				actor.ID = p.ID
			}
		}
		c.Set(ctxActor, actor)
		c.Next()
	}
}

func actorOf(c *gin.Context) appOrder.Actor {
	if v, ok := c.Get(ctxActor); ok {
		if a, ok := v.(appOrder.Actor); ok {
			return a
		}
	}
	return appOrder.Actor{Role: appOrder.RoleBuyer}
}
