package httpserver

import (
	"errors"
	"log"
	"net/http"
	"strconv"

	"ecommerce-backend/internal/domain"
	"github.com/gin-gonic/gin"
)

// envelope wraps every API response.
type envelope struct {
	Success    bool   `json:"success"`
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Data       any    `json:"data"`
}

func respond(c *gin.Context, status int, message string, data any) {
	c.JSON(status, envelope{Success: status < http.StatusBadRequest, StatusCode: status, Message: message, Data: data})
}

func respondError(c *gin.Context, logger *log.Logger, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Printf("http: %s %s error=%v", c.Request.Method, c.FullPath(), err)
		c.AbortWithStatusJSON(status, envelope{StatusCode: status, Message: "Server error", Data: err.Error()})
		return
	}
	c.AbortWithStatusJSON(status, envelope{StatusCode: status, Message: err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidArgument),
		errors.Is(err, domain.ErrInvalidState),
		errors.Is(err, domain.ErrInsufficientStock),
		errors.Is(err, domain.ErrAlreadyExists):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// bindJSON decodes the request body, answering 400 on malformed input.
func bindJSON(c *gin.Context, logger *log.Logger, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, logger, domain.Errorf(domain.ErrInvalidArgument, "Invalid request body: %v", err))
		return false
	}
	return true
}

func pageFromQuery(c *gin.Context) (domain.PageRequest, error) {
	page, err := queryInt(c, "page", 1)
	if err != nil {
		return domain.PageRequest{}, err
	}
	limit, err := queryInt(c, "limit", domain.DefaultPageLimit)
	if err != nil {
		return domain.PageRequest{}, err
	}
	return domain.PageRequest{Page: page, Limit: limit}.Normalize(), nil
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.Errorf(domain.ErrInvalidArgument, "Invalid %s: %q", key, raw)
	}
	return v, nil
}

func queryCents(c *gin.Context, key string) (*int64, error) {
	raw := c.Query(key)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		return nil, domain.Errorf(domain.ErrInvalidArgument, "Invalid %s: %q", key, raw)
	}
	return &v, nil
}
