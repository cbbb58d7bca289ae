package httpapi

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"canokart/internal/checkout"
	"canokart/internal/payment"
	"canokart/internal/pricing"
	"canokart/internal/repository"
	"canokart/internal/service"
)

func mapErrorToStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrNotEnoughStock),
		errors.Is(err, service.ErrCouponNotFound),
		errors.Is(err, service.ErrCouponUsageExceeded),
		errors.Is(err, service.ErrCouponMinOrder),
		errors.Is(err, checkout.ErrIncomplete),
		errors.Is(err, checkout.ErrUnknownAction),
		errors.Is(err, pricing.ErrInvalidAmount),
		errors.Is(err, pricing.ErrUnknownShipping):
		return http.StatusBadRequest
	case errors.Is(err, payment.ErrDeclined):
		return http.StatusPaymentRequired
	case errors.Is(err, service.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidState),
		errors.Is(err, checkout.ErrCompleted),
		errors.Is(err, repository.ErrDuplicate):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// fail writes {"error": message}. Store failures are logged and hidden.
func (s *Server) fail(c *gin.Context, err error) {
	status := mapErrorToStatus(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.log.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.String("requestId", c.GetString(ctxRequestID)),
			zap.Error(err))
		msg = "internal server error"
	}
	c.JSON(status, gin.H{"error": msg})
}

func badJSON(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
}

// queryParser reads numeric query parameters and keeps the first malformed one
type queryParser struct {
	c   *gin.Context
	err error
}

func (q *queryParser) number(key string) *float64 {
	v := q.c.Query(key)
	if v == "" {
		return nil
	}
	x, err := strconv.ParseFloat(v, 64)
	if err != nil {
		q.fail(key, "a number")
		return nil
	}
	return &x
}

func (q *queryParser) integer(key string) int {
	v := q.c.Query(key)
	if v == "" {
		return 0
	}
	x, err := strconv.Atoi(v)
	if err != nil {
		q.fail(key, "an integer")
		return 0
	}
	return x
}

func (q *queryParser) fail(key, want string) {
	if q.err == nil {
		q.err = errors.Wrapf(service.ErrInvalidInput, "%s must be %s", key, want)
	}
}

// parseExpiry accepts RFC 3339 or a bare date, which expires at midnight UTC
func parseExpiry(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.UTC(), nil
	}
	return time.Parse(time.DateOnly, v)
}
