package middleware

import (
	"errors"
	"net/http"
	"time"

	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"

	"smp/internal/auth"
	apperrors "smp/internal/errors"
	"smp/internal/metrics"
	"smp/internal/model"
)

const (
	// MsgNotPermitted is the answer to every guard rejection other than an expired or
	// unreadable token.
	MsgNotPermitted = "Access not Permitted"
	// MsgDefaultPasswordPending is returned by DefaultPasswordGate.
	MsgDefaultPasswordPending = "Please change your default password first"
)

var (
	errRoleMismatch  = apperrors.Forbidden(MsgNotPermitted)
	errEmailMismatch = apperrors.Forbidden(MsgNotPermitted)
	errStaleToken    = apperrors.Forbidden(MsgNotPermitted)
	errNoActor       = apperrors.Forbidden(MsgNotPermitted)
)

// Guard admits a request only when its bearer token was issued for the resolved actor's role
// and current email, no earlier than the actor's last password change. It must run after
// Resolve for the same role.
func Guard[T any, PT model.ActorPtr[T]](tokens auth.TokenIssuer, m *metrics.Metrics) echo.MiddlewareFunc {
	role := roleOf[T, PT]()
	return echojwt.WithConfig(echojwt.Config{
		ContextKey:  ClaimsKey,
		TokenLookup: "header:" + echo.HeaderAuthorization + ":Bearer ",
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			claims, err := tokens.Verify(token)
			if err != nil {
				return nil, err
			}
			actor := Actor[T, PT](c)
			if actor == nil {
				return nil, errNoActor
			}
			return claims, checkClaims(claims, role, actor.Identity())
		},
		ErrorHandler: func(c echo.Context, err error) error {
			reason, msg := rejection(err)
			m.GuardRejected(string(role), reason)
			return apperrors.NewHTTPError(http.StatusForbidden, msg)
		},
	})
}

func checkClaims(claims *auth.Claims, role model.Role, acct *model.Account) error {
	if claims.Role != role {
		return errRoleMismatch
	}
	if claims.Email != acct.Email {
		return errEmailMismatch
	}
	issued := claims.IssueDate.Truncate(time.Millisecond)
	if issued.Before(acct.LastPasswordChangeAt.Truncate(time.Millisecond)) {
		return errStaleToken
	}
	return nil
}

func rejection(err error) (reason, msg string) {
	var parseErr *echojwt.TokenParsingError
	if !errors.As(err, &parseErr) {
		return metrics.ReasonMissingToken, MsgNotPermitted
	}
	switch {
	case errors.Is(err, auth.ErrTokenExpired):
		return metrics.ReasonExpired, auth.ErrTokenExpired.Message
	case errors.Is(err, auth.ErrTokenMalformed):
		return metrics.ReasonInvalid, auth.ErrTokenMalformed.Message
	case errors.Is(err, errRoleMismatch):
		return metrics.ReasonRoleMismatch, MsgNotPermitted
	case errors.Is(err, errEmailMismatch):
		return metrics.ReasonEmailMismatch, MsgNotPermitted
	case errors.Is(err, errStaleToken):
		return metrics.ReasonStale, MsgNotPermitted
	}
	return metrics.ReasonInvalid, MsgNotPermitted
}

// DefaultPasswordGate turns teachers away until they have replaced their default password.
func DefaultPasswordGate(m *metrics.Metrics) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			teacher := TeacherFrom(c)
			if teacher == nil {
				return apperrors.NewHTTPError(http.StatusForbidden, MsgNotPermitted)
			}
			if teacher.HasDefaultPassword {
				m.GuardRejected(string(model.RoleTeacher), metrics.ReasonDefaultPasswd)
				return apperrors.NewHTTPError(http.StatusForbidden, MsgDefaultPasswordPending)
			}
			return next(c)
		}
	}
}
