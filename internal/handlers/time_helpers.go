package handlers

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// parseTimeQuery accepts RFC3339 or a bare YYYY-MM-DD, read in loc.
// A missing parameter yields the zero time.
func parseTimeQuery(c *gin.Context, key string, loc *time.Location) (time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.ParseInLocation("2006-01-02", raw, loc)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

func parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}
