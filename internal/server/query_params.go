package server

import (
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
)

// idParam parses a snowflake id from a path parameter.
func idParam(c *gin.Context, name string) (snowflake.ID, error) {
	raw := strings.TrimSpace(c.Param(name))
	if raw == "" {
		return 0, newValidationError(name, "invalid_id", "invalid id")
	}
	id, err := snowflake.ParseString(raw)
	if err != nil {
		return 0, newValidationError(name, "invalid_id", "invalid id")
	}
	return id, nil
}

// optionalIDQuery parses a snowflake id from a query parameter; empty means 0.
func optionalIDQuery(c *gin.Context, name string) (snowflake.ID, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, nil
	}
	id, err := snowflake.ParseString(raw)
	if err != nil {
		return 0, newValidationError(name, "invalid_id", "invalid id")
	}
	return id, nil
}
