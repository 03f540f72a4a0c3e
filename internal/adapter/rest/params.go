package rest

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simaogato/fraxion-backend/internal/domain"
)

const defaultPerPage = 20

func pathID(c *gin.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, domain.NewValidationError(name, "Invalid "+name+": must be a UUID")
	}
	return id, nil
}

func queryUUID(c *gin.Context, name string) (*uuid.UUID, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, domain.NewValidationError(name, "Invalid "+name+": must be a UUID")
	}
	return &id, nil
}

func queryInt64(c *gin.Context, name string) (*int64, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, domain.NewValidationError(name, "Invalid "+name+": must be an integer")
	}
	return &n, nil
}

func queryDecimal(c *gin.Context, name string) (*decimal.Decimal, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, domain.NewValidationError(name, "Invalid "+name+": must be a decimal")
	}
	return &d, nil
}

func queryTime(c *gin.Context, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, domain.NewValidationError(name, "Invalid "+name+": must be an RFC3339 timestamp")
	}
	return &t, nil
}

func queryBool(c *gin.Context, name string, fallback bool) (bool, error) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, domain.NewValidationError(name, "Invalid "+name+": must be a boolean")
	}
	return b, nil
}

// pagination reads page and per_page, both optional and positive
func pagination(c *gin.Context) (page, perPage int, err error) {
	page, perPage = 1, defaultPerPage
	if p, err := queryInt64(c, "page"); err != nil {
		return 0, 0, err
	} else if p != nil {
		if *p < 1 {
			return 0, 0, domain.NewValidationError("page", "page must be at least 1")
		}
		page = int(*p)
	}
	if pp, err := queryInt64(c, "per_page"); err != nil {
		return 0, 0, err
	} else if pp != nil {
		if *pp < 1 {
			return 0, 0, domain.NewValidationError("per_page", "per_page must be at least 1")
		}
		perPage = int(*pp)
	}
	return page, perPage, nil
}

func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return domain.NewValidationError("", "Invalid request body: "+err.Error())
	}
	return nil
}
