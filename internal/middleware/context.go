package middleware

import (
	"github.com/labstack/echo/v4"

	"smp/internal/auth"
	"smp/internal/model"
)

// ClaimsKey is the context key the guard stores verified token claims under.
const ClaimsKey = "claims"

// actorKey is the context key a resolved actor of role is stored under.
func actorKey(role model.Role) string {
	return "actor:" + string(role)
}

func roleOf[T any, PT model.ActorPtr[T]]() model.Role {
	var zero T
	return PT(&zero).Role()
}

// Actor returns the actor the resolver attached to c, or nil.
func Actor[T any, PT model.ActorPtr[T]](c echo.Context) PT {
	actor, _ := c.Get(actorKey(roleOf[T, PT]())).(PT)
	return actor
}

// AdminFrom returns the resolved administrator.
func AdminFrom(c echo.Context) *model.Admin {
	return Actor[model.Admin](c)
}

// TeacherFrom returns the resolved teacher.
func TeacherFrom(c echo.Context) *model.Teacher {
	return Actor[model.Teacher](c)
}

// ClaimsFrom returns the claims of the token that passed the guard.
func ClaimsFrom(c echo.Context) *auth.Claims {
	claims, _ := c.Get(ClaimsKey).(*auth.Claims)
	return claims
}
