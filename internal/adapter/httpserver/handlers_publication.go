package httpserver

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pscheid92/djmonitor/internal/app"
	"github.com/pscheid92/djmonitor/internal/domain"
)

type publicationResponse struct {
	Text      string `json:"text"`
	Color     string `json:"color"`
	BlinkMode bool   `json:"blink_mode"`
}

func newPublicationResponse(p domain.Publication) publicationResponse {
	return publicationResponse{Text: p.Text, Color: p.Color, BlinkMode: p.BlinkMode}
}

func (s *Server) registerPublicationRoutes(rateLimiter echo.MiddlewareFunc) {
	s.echo.GET("/api/config", s.handleGetConfig)
	s.echo.POST("/config/end-time", s.handleSetEndTime, rateLimiter)
	s.echo.POST("/publication", s.handleSetPublication, rateLimiter)
	s.echo.DELETE("/publication", s.handleClearPublication, rateLimiter)
	s.echo.POST("/blink", s.handleBlink, rateLimiter)
}

func (s *Server) handleGetConfig(c echo.Context) error {
	state := s.app.GetState(c.Request().Context())
	if err := c.JSON(http.StatusOK, state); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleSetEndTime(c echo.Context) error {
	fields, err := readFields(c)
	if err != nil {
		return err
	}

	var req app.SetEndTimeRequest
	if req.Date, err = fields.text("date"); err != nil {
		return err
	}
	if req.Time, err = fields.text("time"); err != nil {
		return err
	}
	if req.WarningMinutes, err = fields.text("warning_minutes"); err != nil {
		return err
	}

	if _, err := s.app.SetEndTime(c.Request().Context(), req); err != nil {
		return err
	}

	if err := c.JSON(http.StatusOK, map[string]string{"status": "OK"}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleSetPublication(c echo.Context) error {
	fields, err := readFields(c)
	if err != nil {
		return err
	}

	var req app.SetPublicationRequest
	if req.Text, err = fields.optString("text"); err != nil {
		return err
	}
	if req.Color, err = fields.optString("color"); err != nil {
		return err
	}
	if req.BlinkMode, err = fields.optBool("blink_mode"); err != nil {
		return err
	}

	p, err := s.app.SetPublication(c.Request().Context(), req)
	if err != nil {
		return err
	}

	if err := c.JSON(http.StatusOK, newPublicationResponse(p)); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleClearPublication(c echo.Context) error {
	fields, err := readFields(c)
	if err != nil {
		return err
	}

	var req app.ClearPublicationRequest
	if req.Color, err = fields.optString("color"); err != nil {
		return err
	}
	if req.BlinkMode, err = fields.optBool("blink_mode"); err != nil {
		return err
	}

	p, err := s.app.ClearPublication(c.Request().Context(), req)
	if err != nil {
		return err
	}

	if err := c.JSON(http.StatusOK, newPublicationResponse(p)); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleBlink(c echo.Context) error {
	fields, err := readFields(c)
	if err != nil {
		return err
	}

	color, err := fields.optString("color")
	if err != nil {
		return err
	}
	var value string
	if color != nil {
		value = *color
	}

	if err := s.app.TriggerBlink(c.Request().Context(), value); err != nil {
		return err
	}

	if err := c.JSON(http.StatusOK, struct{}{}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}
