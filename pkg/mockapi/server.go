// Package mockapi replays canned search API responses for offline runs and tests
package mockapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// SearchRequest is the accepted request body
type SearchRequest struct {
	Query       string   `json:"query" validate:"required,max=1000"`
	Schemas     []string `json:"schemas" validate:"omitempty,dive,required"`
	Limit       int      `json:"limit" validate:"gte=0,lte=1000"`
	SearchTypes []string `json:"search_types"`
}

// ErrorResponse is the body returned for rejected requests
type ErrorResponse struct {
	Message   string         `json:"message"`
	RequestID string         `json:"request_id"`
	Meta      map[string]any `json:"meta"`
}

// Server is the mock search API
type Server struct {
	e        *echo.Echo
	fixtures *Fixtures
	token    string
	logger   ectologger.Logger
	requests atomic.Int64
}

// New creates a mock server. An empty token disables authentication.
func New(fixtures *Fixtures, token string, logger ectologger.Logger) *Server {
	if fixtures == nil {
		fixtures = NewFixtures()
	}
	s := &Server{
		e:        echo.New(),
		fixtures: fixtures,
		token:    token,
		logger:   logger,
	}
	s.e.HideBanner = true
	s.e.HidePort = true
	s.e.HTTPErrorHandler = errorHandler(logger)
	s.e.Use(requestLogger(logger))

	s.e.GET("/health", s.health)
	s.e.POST("/search", s.search, s.auth)
	return s
}

// ServeHTTP lets the server be mounted on httptest
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.e.ServeHTTP(w, r)
}

// Start listens on addr until Shutdown is called
func (s *Server) Start(addr string) error {
	s.logger.Infof("Mock search API listening on %s with %d fixtures", addr, s.fixtures.Len())
	if err := s.e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}

// Requests returns the number of search requests served
func (s *Server) Requests() int64 {
	return s.requests.Load()
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":   "healthy",
		"fixtures": s.fixtures.Len(),
	})
}

func (s *Server) auth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if s.token == "" {
			return next(c)
		}
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token != s.token {
			return httperror.NewHTTPError(http.StatusUnauthorized, "invalid or missing bearer token")
		}
		return next(c)
	}
}

func (s *Server) search(c echo.Context) error {
	s.requests.Add(1)

	var req SearchRequest
	if err := c.Bind(&req); err != nil {
		return httperror.WrapError(http.StatusBadRequest, err)
	}
	if err := validate.Struct(req); err != nil {
		return httperror.WrapError(http.StatusBadRequest, err)
	}

	resp, ok := s.fixtures.lookup(req.Query)
	if !ok {
		return c.JSON(http.StatusOK, map[string]any{"results": []any{}})
	}
	if resp.delay > 0 {
		select {
		case <-time.After(resp.delay):
		case <-c.Request().Context().Done():
			return c.Request().Context().Err()
		}
	}
	return c.JSONBlob(resp.status, resp.body)
}

func errorHandler(logger ectologger.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		ctx := c.Request().Context()
		logger.WithContext(ctx).WithError(err).Warn("mock api is returning an error")
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		message := "Internal Server Error"
		meta := map[string]any{}

		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if msg, ok := he.Message.(string); ok {
				message = msg
			}
		}
		if httperror.IsHTTPError(err) {
			httperr := httperror.ToHTTPError(err)
			code = httperr.Code
			message = httperr.Message
			meta = httperr.Meta
		}

		_ = c.JSON(code, ErrorResponse{
			Message:   message,
			RequestID: c.Response().Header().Get(echo.HeaderXRequestID),
			Meta:      meta,
		})
	}
}

func requestLogger(logger ectologger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			req := c.Request()
			res := c.Response()

			id := req.Header.Get(echo.HeaderXRequestID)
			if id == "" {
				id = uuid.New().String()
			}
			res.Header().Set(echo.HeaderXRequestID, id)

			start := time.Now()
			if err = next(c); err != nil {
				c.Error(err)
			}

			logger.WithContext(req.Context()).WithFields(map[string]any{
				"request_id":    id,
				"method":        req.Method,
				"uri":           req.RequestURI,
				"status":        res.Status,
				"response_time": time.Since(start),
				"response_size": strconv.FormatInt(res.Size, 10),
			}).Debug("Request")
			return nil
		}
	}
}
