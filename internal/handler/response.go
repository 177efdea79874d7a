package handler

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	apperrors "github.com/jwalitptl/vetbook-api/pkg/errors"
)

type Response struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func NewSuccessResponse(data interface{}) *Response {
	return &Response{
		Status: "success",
		Data:   data,
	}
}

func NewErrorResponse(message string) *Response {
	return &Response{
		Status:  "error",
		Message: message,
	}
}

// Fail hands err to the error middleware, which picks the status and body.
func Fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// BindFailed reports a request that did not pass binding validation.
func BindFailed(c *gin.Context, err error) {
	Fail(c, apperrors.BadRequest("invalid request", err))
}

// ParamID parses the named path parameter as a UUID, failing the request
// when it is malformed.
func ParamID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		Fail(c, apperrors.BadRequest(fmt.Sprintf("invalid %s", name), nil))
		return uuid.Nil, false
	}
	return id, true
}

// QueryID parses an optional UUID query parameter. A missing parameter
// yields uuid.Nil; a malformed one fails the request.
func QueryID(c *gin.Context, name string) (uuid.UUID, bool) {
	raw := c.Query(name)
	if raw == "" {
		return uuid.Nil, true
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		Fail(c, apperrors.BadRequest(fmt.Sprintf("invalid %s", name), nil))
		return uuid.Nil, false
	}
	return id, true
}
