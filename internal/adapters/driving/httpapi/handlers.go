package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/brokerdesk/connect/internal/core/domain"
	"github.com/brokerdesk/connect/internal/logger"
)

func (s *Server) handleAuthURL(c *gin.Context) {
	provider, ok := s.provider(c)
	if !ok {
		return
	}

	authURL, err := s.cfg.Connections.AuthURL(c.Request.Context(), userID(c), provider)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"auth_url": authURL})
}

// handleCallback completes the OAuth flow and sends the browser back to the
// frontend. Errors are reported through redirect query parameters; the user
// is mid-redirect here and JSON would go nowhere useful.
func (s *Server) handleCallback(c *gin.Context) {
	provider, ok := s.provider(c)
	if !ok {
		return
	}

	if providerErr := c.Query("error"); providerErr != "" {
		logger.Warn("%s callback: %v", provider, fmt.Errorf("%w: %s", domain.ErrAuthorizationDenied, providerErr))
		s.redirectAfterAuth(c, provider, "denied")
		return
	}

	code := c.Query("code")
	state := c.Query("state")
	if err := s.cfg.Connections.CompleteAuthorization(c.Request.Context(), provider, code, state); err != nil {
		logger.Warn("%s authorization failed: %v", provider, err)
		s.redirectAfterAuth(c, provider, "error")
		return
	}

	s.redirectAfterAuth(c, provider, "connected")
}

func (s *Server) redirectAfterAuth(c *gin.Context, provider domain.ProviderID, status string) {
	target := fmt.Sprintf("%s?provider=%s&status=%s", s.cfg.PostAuthRedirect, url.QueryEscape(string(provider)), status)
	c.Redirect(http.StatusFound, target)
}

func (s *Server) handleStatus(c *gin.Context) {
	statuses, err := s.cfg.Connections.Status(c.Request.Context(), userID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"providers": statuses})
}

func (s *Server) handleTestConnection(c *gin.Context) {
	provider, ok := s.provider(c)
	if !ok {
		return
	}
	alive := s.cfg.Connections.TestConnection(c.Request.Context(), userID(c), provider)
	c.JSON(http.StatusOK, gin.H{"provider": provider, "alive": alive})
}

func (s *Server) handleDisconnect(c *gin.Context) {
	provider, ok := s.provider(c)
	if !ok {
		return
	}
	if err := s.cfg.Connections.Disconnect(c.Request.Context(), userID(c), provider); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleAccounts(c *gin.Context) {
	provider, opts, ok := s.fetchArgs(c)
	if !ok {
		return
	}
	accounts, err := s.cfg.Fetch.Accounts(c.Request.Context(), userID(c), provider, opts)
	writeFetchResult(c, "accounts", accounts, err)
}

func (s *Server) handleContacts(c *gin.Context) {
	provider, opts, ok := s.fetchArgs(c)
	if !ok {
		return
	}
	contacts, err := s.cfg.Fetch.Contacts(c.Request.Context(), userID(c), provider, opts)
	writeFetchResult(c, "contacts", contacts, err)
}

func (s *Server) handleActivities(c *gin.Context) {
	provider, opts, ok := s.fetchArgs(c)
	if !ok {
		return
	}
	activities, err := s.cfg.Fetch.Activities(c.Request.Context(), userID(c), provider, opts)
	writeFetchResult(c, "activities", activities, err)
}

func (s *Server) handleEmails(c *gin.Context) {
	provider, opts, ok := s.fetchArgs(c)
	if !ok {
		return
	}
	emails, err := s.cfg.Fetch.Emails(c.Request.Context(), userID(c), provider, opts)
	writeFetchResult(c, "emails", emails, err)
}

func (s *Server) handleCalendarEvents(c *gin.Context) {
	provider, opts, ok := s.fetchArgs(c)
	if !ok {
		return
	}
	events, err := s.cfg.Fetch.CalendarEvents(c.Request.Context(), userID(c), provider, opts)
	writeFetchResult(c, "events", events, err)
}

// provider parses the :provider path parameter, writing the error response
// itself when the value is outside the closed set.
func (s *Server) provider(c *gin.Context) (domain.ProviderID, bool) {
	provider, err := domain.ParseProviderID(c.Param("provider"))
	if err != nil {
		writeError(c, err)
		return "", false
	}
	return provider, true
}

// fetchArgs parses the provider and the shared fetch query parameters:
// q, since, until (RFC 3339), parent_id, limit.
func (s *Server) fetchArgs(c *gin.Context) (domain.ProviderID, domain.FetchOptions, bool) {
	provider, ok := s.provider(c)
	if !ok {
		return "", domain.FetchOptions{}, false
	}

	opts := domain.FetchOptions{
		Query:    c.Query("q"),
		ParentID: c.Query("parent_id"),
	}

	if v := c.Query("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 0 {
			writeError(c, fmt.Errorf("%w: limit must be a non-negative integer", domain.ErrInvalidInput))
			return "", domain.FetchOptions{}, false
		}
		opts.Limit = limit
	}
	for param, dst := range map[string]*time.Time{"since": &opts.Since, "until": &opts.Until} {
		if v := c.Query(param); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				writeError(c, fmt.Errorf("%w: %s must be RFC 3339", domain.ErrInvalidInput, param))
				return "", domain.FetchOptions{}, false
			}
			*dst = t
		}
	}

	return provider, opts, true
}

// writeFetchResult renders a fetch outcome. Partial failures still carry
// the successful subset, with a partial block alongside.
func writeFetchResult(c *gin.Context, field string, data any, err error) {
	if err == nil {
		c.JSON(http.StatusOK, gin.H{field: data})
		return
	}
	if partial, ok := domain.AsPartial(err); ok {
		c.JSON(http.StatusOK, gin.H{
			field:     data,
			"partial": gin.H{"failed": partial.Failed},
		})
		return
	}
	writeError(c, err)
}

// writeError maps domain errors onto HTTP statuses.
func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	body := gin.H{"error": err.Error()}

	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrUnknownProvider), errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrProviderNotConfigured):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrAuthorizationDenied):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrReauthorizationRequired):
		status = http.StatusUnauthorized
		body["reauthorize"] = true
	case errors.Is(err, domain.ErrUnsupportedOperation):
		status = http.StatusNotImplemented
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		status = http.StatusBadGateway
	}

	c.JSON(status, body)
}
