package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	apperrors "smp/internal/errors"
	"smp/internal/model"
	"smp/internal/repository"
)

// MaxBodyBytes caps how much of a request body FromBody buffers.
const MaxBodyBytes = 64 << 10

// IDSource extracts the id of the actor a request refers to.
type IDSource func(c echo.Context) string

// FromParam reads the id from a path parameter.
func FromParam(name string) IDSource {
	return func(c echo.Context) string {
		return c.Param(name)
	}
}

// FromBody reads the id from a top-level string field of a JSON body. The body is restored so
// the handler can bind it again.
func FromBody(field string) IDSource {
	return func(c echo.Context) string {
		req := c.Request()
		if req.Body == nil {
			return ""
		}
		raw, err := io.ReadAll(http.MaxBytesReader(c.Response(), req.Body, MaxBodyBytes))
		if err != nil {
			return ""
		}
		req.Body = io.NopCloser(bytes.NewReader(raw))

		var body map[string]any
		if err := json.Unmarshal(raw, &body); err != nil {
			return ""
		}
		id, _ := body[field].(string)
		return id
	}
}

// ResolverMessages are the failure messages of one resolver, formatted with the id.
type ResolverMessages struct {
	NotFound  string
	InvalidID string
}

var (
	// AdminMessages are the administrator resolver messages.
	AdminMessages = ResolverMessages{
		NotFound:  "Admin with admin _id: %s not found.",
		InvalidID: "Invalid Admin ID: %s",
	}
	// TeacherMessages are the teacher resolver messages.
	TeacherMessages = ResolverMessages{
		NotFound:  "Teacher with teacherId: %s not found.",
		InvalidID: "Invalid teacherId: %s provided",
	}
)

// Resolve loads the actor named by source and attaches it to the request context.
func Resolve[T any, PT model.ActorPtr[T]](store repository.Store[T, PT], source IDSource, msgs ResolverMessages, log zerolog.Logger) echo.MiddlewareFunc {
	key := actorKey(roleOf[T, PT]())
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := source(c)
			if id == "" {
				return apperrors.NewHTTPError(http.StatusBadRequest, fmt.Sprintf(msgs.NotFound, id))
			}
			if err := store.ParseID(id); err != nil {
				return apperrors.NewHTTPError(http.StatusBadRequest, fmt.Sprintf(msgs.InvalidID, id))
			}

			actor, err := store.FindByID(c.Request().Context(), id)
			if err != nil {
				if apperrors.KindOf(err) == apperrors.KindNotFound {
					return apperrors.NewHTTPError(http.StatusBadRequest, fmt.Sprintf(msgs.NotFound, id))
				}
				log.Error().Err(err).Str("id", id).Msg("resolve actor")
				return apperrors.MapErrorToHTTP(err, apperrors.SurfaceAuthorized)
			}

			c.Set(key, actor)
			return next(c)
		}
	}
}
