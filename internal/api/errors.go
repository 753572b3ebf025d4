package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) logError(err error) {
	s.logger.Println(err)
}

// errorResponse writes {"error": msg} with the given status.
func (s *Server) errorResponse(c *gin.Context, status int, msg any) {
	c.AbortWithStatusJSON(status, envelope{"error": msg})
}

// serverErrorResponse logs the detailed error and hides it from the client.
func (s *Server) serverErrorResponse(c *gin.Context, err error) {
	s.logError(err)
	message := "the server encountered a problem and could not process your request"
	s.errorResponse(c, http.StatusInternalServerError, message)
}

func (s *Server) notFoundResponse(c *gin.Context) {
	message := "the requested resource could not be found"
	s.errorResponse(c, http.StatusNotFound, message)
}

func (s *Server) methodNotAllowedResponse(c *gin.Context) {
	message := fmt.Sprintf("the %s method is not supported for this resource", c.Request.Method)
	s.errorResponse(c, http.StatusMethodNotAllowed, message)
}

func (s *Server) badRequestResponse(c *gin.Context, err error) {
	s.errorResponse(c, http.StatusBadRequest, err.Error())
}
