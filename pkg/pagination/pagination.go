package pagination

import (
	"fmt"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
	MinLimit     = 1
)

// DateLayout is the wire format for date query parameters
const DateLayout = "2006-01-02"

// Params holds validated pagination parameters
type Params struct {
	Page   int
	Limit  int
	Offset int
}

// Parse extracts and validates page/limit from query parameters
func Parse(c *gin.Context) Params {
	page, _ := strconv.Atoi(c.DefaultQuery("page", strconv.Itoa(DefaultPage)))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(DefaultLimit)))

	if page < 1 {
		page = DefaultPage
	}
	if limit < MinLimit {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	return Params{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
}

// ParseDateRange reads from/to query parameters ("2006-01-02").
// Missing values fall back to the given defaults. The end of the range
// is extended to the last instant of its day so same-day ranges match.
func ParseDateRange(c *gin.Context, defaultFrom, defaultTo time.Time) (time.Time, time.Time, error) {
	from := defaultFrom
	to := defaultTo

	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse(DateLayout, raw)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid 'from' date: expected %s", DateLayout)
		}
		from = parsed
	}

	if raw := c.Query("to"); raw != "" {
		parsed, err := time.Parse(DateLayout, raw)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid 'to' date: expected %s", DateLayout)
		}
		to = parsed.Add(24*time.Hour - time.Nanosecond)
	}

	if to.Before(from) {
		return time.Time{}, time.Time{}, fmt.Errorf("'to' date must not be before 'from' date")
	}

	return from, to, nil
}
