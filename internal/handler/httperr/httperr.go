package httperr

import (
	"net/http"

	"travel-booking/internal/pkg/errs"

	"github.com/gin-gonic/gin"
)

type Response struct {
	Status int `json:"-"`
	Error  struct {
		Message string `json:"message"`
	} `json:"error"`
	Detail any `json:"detail,omitempty"`
}

// Rule maps errors matching Target to a status and public message.
// Detail, when set, derives the response detail from the matched error.
type Rule struct {
	Target  error
	Status  int
	Message string
	Detail  func(err error) any
}

// preserves original error for future monitoring
func AbortWithError(c *gin.Context, status int, err error, msg string, detail any) {
	if err == nil {
		err = errs.New(msg)
	}

	resp := Response{Status: status}
	resp.Error.Message = msg
	resp.Detail = detail

	_ = c.Error(gin.Error{
		Err:  err,
		Type: gin.ErrorTypePublic,
		Meta: resp,
	})
	c.AbortWithStatusJSON(status, resp)
}

// Respond aborts with the first matching rule, or 500 when none matches.
func Respond(c *gin.Context, err error, rules []Rule) {
	for _, r := range rules {
		if !errs.Is(err, r.Target) {
			continue
		}
		var detail any
		if r.Detail != nil {
			detail = r.Detail(err)
		}
		AbortWithError(c, r.Status, err, r.Message, detail)
		return
	}
	AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
}
