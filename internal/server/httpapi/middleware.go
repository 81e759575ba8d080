package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dmitrijs2005/wsdrive/internal/common"
	"github.com/dmitrijs2005/wsdrive/internal/logging"
	"github.com/dmitrijs2005/wsdrive/internal/server/auth"
	"github.com/dmitrijs2005/wsdrive/internal/server/services"
	"github.com/dmitrijs2005/wsdrive/internal/server/session"
)

const requestIDHeader = "X-Request-ID"

// requestID propagates the caller's request id or assigns a new one.
func (s *HTTPServer) requestID(c *gin.Context) {
	id := c.GetHeader(requestIDHeader)
	if id == "" || len(id) > 128 {
		id = uuid.NewString()
	}
	c.Header(requestIDHeader, id)
	c.Request = c.Request.WithContext(logging.ContextWithRequestID(c.Request.Context(), id))
	c.Next()
}

func (s *HTTPServer) accessLog(c *gin.Context) {
	start := time.Now()
	c.Next()
	s.logger.Debug(c.Request.Context(), "request",
		"method", c.Request.Method,
		"path", c.FullPath(),
		"status", c.Writer.Status(),
		"duration", time.Since(start).String())
}

// authenticate verifies the bearer token and stores the session in the
// request context.
func (s *HTTPServer) authenticate(c *gin.Context) {
	header := c.GetHeader(common.AuthorizationHeaderName)
	token, found := strings.CutPrefix(header, "Bearer ")
	if !found || strings.TrimSpace(token) == "" {
		s.abort(c, common.ErrorUnauthorized, "missing bearer token")
		return
	}

	claims, err := auth.ParseToken(strings.TrimSpace(token), s.jwtSecret)
	if err != nil {
		s.abort(c, common.ErrorUnauthorized, err.Error())
		return
	}

	ctx := session.NewContext(c.Request.Context(), session.FromClaims(claims))
	c.Request = c.Request.WithContext(ctx)
	c.Next()
}

// workspaceScope rejects requests for workspaces outside the session.
func (s *HTTPServer) workspaceScope(c *gin.Context) {
	sess, ok := session.FromContext(c.Request.Context())
	if !ok {
		s.abort(c, common.ErrorUnauthorized, "no session")
		return
	}
	if !sess.CanAccess(c.Param("ws")) {
		s.abort(c, common.ErrorForbidden, "workspace not accessible")
		return
	}
	c.Next()
}

func (s *HTTPServer) requireAdmin(c *gin.Context) {
	sess, ok := session.FromContext(c.Request.Context())
	if !ok || !sess.Admin {
		s.abort(c, common.ErrorForbidden, "admin only")
		return
	}
	c.Next()
}

func (s *HTTPServer) abort(c *gin.Context, kind error, msg string) {
	c.AbortWithStatusJSON(statusFor(kind), errorBody{Error: msg})
}

// CodeOrphanedTrashObject marks a file that was moved to the trash but has
// no trash record yet. TrashPath names the object; the next sweep or
// reconcile records it.
const CodeOrphanedTrashObject = "orphaned_trash_object"

type errorBody struct {
	Error     string `json:"error"`
	Code      string `json:"code,omitempty"`
	TrashPath string `json:"trashPath,omitempty"`
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, common.ErrorValidation):
		return http.StatusBadRequest
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound
	case errors.Is(err, common.ErrorConflict):
		return http.StatusConflict
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrTokenExpired):
		return http.StatusUnauthorized
	case errors.Is(err, common.ErrorForbidden):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err as JSON. Server-side failures are logged and their
// details are not sent to the client.
func (s *HTTPServer) fail(c *gin.Context, err error) {
	// already logged by the trash service
	var orphan *services.OrphanError
	if errors.As(err, &orphan) {
		c.AbortWithStatusJSON(http.StatusInternalServerError, errorBody{
			Error:     "file moved to trash but not recorded",
			Code:      CodeOrphanedTrashObject,
			TrashPath: orphan.TrashPath,
		})
		return
	}

	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Error(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err)
		msg = common.ErrorInternal.Error()
	}
	c.AbortWithStatusJSON(status, errorBody{Error: msg})
}
