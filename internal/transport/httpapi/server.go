package httpapi

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/haeyeon/festabot/internal/core"
	"github.com/haeyeon/festabot/internal/storage/sqlite"
	"github.com/haeyeon/festabot/pkg/log"
)

type ChatService interface {
	Reply(ctx context.Context, userID, message string) (core.ChatResult, error)
}

type AuthService interface {
	Signup(ctx context.Context, username, password string) (*core.User, error)
	Login(ctx context.Context, username, password string) (string, error)
	VerifyToken(token string) (string, error)
}

type EventReader interface {
	List(ctx context.Context, f sqlite.ListFilter) ([]core.Event, error)
	Get(ctx context.Context, id int64) (*core.Event, error)
}

type LikeStore interface {
	FindByUsername(ctx context.Context, username string) (*core.User, error)
	Like(ctx context.Context, userID, eventID int64) error
	Unlike(ctx context.Context, userID, eventID int64) error
	LikedEventIDs(ctx context.Context, userID int64) ([]int64, error)
}

// Server is the HTTP front of the recommendation engine.
type Server struct {
	echo    *echo.Echo
	addr    string
	baseCtx context.Context

	chat   ChatService
	auth   AuthService
	events EventReader
	likes  LikeStore
}

func NewServer(ctx context.Context, addr string, chat ChatService, auth AuthService, events EventReader, likes LikeStore) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	s := &Server{
		echo:    e,
		addr:    addr,
		baseCtx: ctx,
		chat:    chat,
		auth:    auth,
		events:  events,
		likes:   likes,
	}

	e.Use(middleware.Recover())
	e.Use(s.requestContext)

	api := e.Group("/api")
	api.POST("/chat", s.handleChat)
	api.GET("/events", s.handleListEvents)
	api.GET("/events/:id", s.handleGetEvent)
	api.POST("/auth/signup", s.handleSignup)
	api.POST("/auth/login", s.handleLogin)
	api.POST("/events/:id/like", s.handleLike, s.requireAuth)
	api.DELETE("/events/:id/like", s.handleUnlike, s.requireAuth)
	api.GET("/me/likes", s.handleMyLikes, s.requireAuth)

	return s
}

func (s *Server) Start(ctx context.Context) error {
	log.FromCtx(ctx).Info().Str("addr", s.addr).Msg("starting http server")
	if err := s.echo.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// requestContext stamps every request with an id and a scoped logger,
// carried on the request context so lower layers log consistently.
func (s *Server) requestContext(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		requestID := c.Request().Header.Get(echo.HeaderXRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Response().Header().Set(echo.HeaderXRequestID, requestID)

		logger := log.FromCtx(s.baseCtx).With().
			Str("request_id", requestID).
			Str("method", c.Request().Method).
			Str("path", c.Request().URL.Path).
			Logger()
		ctx := logger.WithContext(c.Request().Context())
		c.SetRequest(c.Request().WithContext(ctx))

		err := next(c)
		if err != nil {
			logger.Error().Err(err).Msg("request failed")
		} else {
			logger.Debug().Int("status", c.Response().Status).Msg("request handled")
		}
		return err
	}
}

const userKey = "authenticated_user"

// requireAuth resolves the bearer token to a stored user.
func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		const prefix = "Bearer "
		if len(header) <= len(prefix) || header[:len(prefix)] != prefix {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing bearer token")
		}

		username, err := s.auth.VerifyToken(header[len(prefix):])
		if err != nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
		}

		user, err := s.likes.FindByUsername(c.Request().Context(), username)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "user lookup failed")
		}
		if user == nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "unknown user")
		}

		c.Set(userKey, user)
		return next(c)
	}
}

func currentUser(c echo.Context) *core.User {
	user, _ := c.Get(userKey).(*core.User)
	return user
}
