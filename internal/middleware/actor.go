package middleware

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/Eursukkul/restaurant-reservation/internal/auth"
	"github.com/Eursukkul/restaurant-reservation/internal/logger"
	"github.com/labstack/echo/v4"
)

const (
	ActorHeader = "X-User-ID"
	actorKey    = "actor"
)

type ActorResolver interface {
	Resolve(ctx context.Context, userID uint) (auth.Actor, error)
}

// Authenticate resolves the caller named by the X-User-ID header. Requests
// without the header continue as the anonymous actor; operations that need a
// user reject it themselves.
func Authenticate(resolver ActorResolver, log *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := c.Request().Header.Get(ActorHeader)
			if raw == "" {
				return next(c)
			}

			id, err := strconv.ParseUint(raw, 10, 64)
			if err != nil || id == 0 {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid "+ActorHeader+" header")
			}

			actor, err := resolver.Resolve(c.Request().Context(), uint(id))
			if err != nil {
				if errors.Is(err, auth.ErrUnknownUser) {
					return echo.NewHTTPError(http.StatusUnauthorized, "unknown user")
				}
				log.Error("failed to resolve actor", "user_id", id, "error", err)
				return echo.NewHTTPError(http.StatusServiceUnavailable, "service temporarily unavailable, please retry later")
			}

			c.Set(actorKey, actor)
			return next(c)
		}
	}
}

// ActorFrom returns the actor stored by Authenticate, or the anonymous actor.
func ActorFrom(c echo.Context) auth.Actor {
	actor, _ := c.Get(actorKey).(auth.Actor)
	return actor
}
