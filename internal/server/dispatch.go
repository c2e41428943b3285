package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// paramMatcher claims a path parameter value for a handler.
type paramMatcher struct {
	name    string
	match   func(value string) bool
	handler gin.HandlerFunc
}

// paramDispatcher serves one parameterized route by trying its matchers in
// order; the first that claims the value handles the request.
type paramDispatcher struct {
	param    string
	matchers []paramMatcher
}

func dispatchOn(param string, matchers ...paramMatcher) gin.HandlerFunc {
	d := paramDispatcher{param: param, matchers: matchers}
	return d.handle
}

func (d paramDispatcher) handle(c *gin.Context) {
	value := c.Param(d.param)
	for _, m := range d.matchers {
		if m.match(value) {
			c.Set("dispatched_to", m.name)
			m.handler(c)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
}

func isNumericID(value string) bool {
	id, err := strconv.ParseInt(value, 10, 64)
	return err == nil && id > 0
}

func isUsername(value string) bool {
	return value != ""
}
