package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/peer-match-api/internal/models"
	appErrors "github.com/noah-isme/peer-match-api/pkg/errors"
)

const cacheControl = "no-store, no-cache, must-revalidate, private"

// Envelope represents the common response contract.
type Envelope struct {
	Data       interface{}            `json:"data,omitempty"`
	Error      *appErrors.Error       `json:"error,omitempty"`
	Pagination *models.Pagination     `json:"pagination,omitempty"`
	Meta       map[string]interface{} `json:"meta,omitempty"`
}

// NoCache marks the response as live matching state that intermediaries must not store.
func NoCache(c *gin.Context) {
	c.Header("Cache-Control", cacheControl)
	c.Header("Pragma", "no-cache")
	c.Header("Expires", "0")
}

// JSON sends a success response with optional pagination metadata.
func JSON(c *gin.Context, status int, data interface{}, pagination *models.Pagination, meta ...map[string]interface{}) {
	NoCache(c)
	envelope := Envelope{Data: data, Pagination: pagination}
	if len(meta) > 0 && meta[0] != nil {
		envelope.Meta = meta[0]
	}
	c.JSON(status, envelope)
}

// Created responds with HTTP 201 Created.
func Created(c *gin.Context, data interface{}) {
	JSON(c, http.StatusCreated, data, nil)
}

// Error sends an error response converting the error to the common structure.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	NoCache(c)
	c.JSON(appErr.Status, Envelope{Error: appErr})
}

// File streams a rendered attachment.
func File(c *gin.Context, filename, contentType string, body []byte) {
	NoCache(c)
	c.Header("Content-Disposition", "attachment; filename=\""+filename+"\"")
	c.Data(http.StatusOK, contentType, body)
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	NoCache(c)
	c.Status(http.StatusNoContent)
}

// ErrorWithData sends an error response that still carries a partial result.
func ErrorWithData(c *gin.Context, err error, data interface{}) {
	appErr := appErrors.FromError(err)
	NoCache(c)
	c.JSON(appErr.Status, Envelope{Data: data, Error: appErr})
}
