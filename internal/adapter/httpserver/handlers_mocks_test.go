package httpserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"
	"github.com/pscheid92/djmonitor/internal/app"
	"github.com/pscheid92/djmonitor/internal/domain"
	"github.com/pscheid92/djmonitor/internal/platform/config"
)

// --- Mock types ---

type mockAppService struct {
	getStateFn         func(ctx context.Context) app.State
	setPublicationFn   func(ctx context.Context, req app.SetPublicationRequest) (domain.Publication, error)
	clearPublicationFn func(ctx context.Context, req app.ClearPublicationRequest) (domain.Publication, error)
	setEndTimeFn       func(ctx context.Context, req app.SetEndTimeRequest) (domain.Publication, error)
	triggerBlinkFn     func(ctx context.Context, color string) error
}

func (m *mockAppService) GetState(ctx context.Context) app.State {
	if m.getStateFn != nil {
		return m.getStateFn(ctx)
	}
	return app.State{}
}

func (m *mockAppService) SetPublication(ctx context.Context, req app.SetPublicationRequest) (domain.Publication, error) {
	if m.setPublicationFn != nil {
		return m.setPublicationFn(ctx, req)
	}
	return domain.Publication{}, nil
}

func (m *mockAppService) ClearPublication(ctx context.Context, req app.ClearPublicationRequest) (domain.Publication, error) {
	if m.clearPublicationFn != nil {
		return m.clearPublicationFn(ctx, req)
	}
	return domain.Publication{}, nil
}

func (m *mockAppService) SetEndTime(ctx context.Context, req app.SetEndTimeRequest) (domain.Publication, error) {
	if m.setEndTimeFn != nil {
		return m.setEndTimeFn(ctx, req)
	}
	return domain.Publication{}, nil
}

func (m *mockAppService) TriggerBlink(ctx context.Context, color string) error {
	if m.triggerBlinkFn != nil {
		return m.triggerBlinkFn(ctx, color)
	}
	return nil
}

type mockHub struct {
	registerFn   func(conn *websocket.Conn) (uuid.UUID, error)
	unregisterFn func(sessionID uuid.UUID)
	sendStateFn  func(sessionID uuid.UUID)
}

func (m *mockHub) Register(conn *websocket.Conn) (uuid.UUID, error) {
	if m.registerFn != nil {
		return m.registerFn(conn)
	}
	return uuid.New(), nil
}

func (m *mockHub) Unregister(sessionID uuid.UUID) {
	if m.unregisterFn != nil {
		m.unregisterFn(sessionID)
	}
}

func (m *mockHub) SendState(sessionID uuid.UUID) {
	if m.sendStateFn != nil {
		m.sendStateFn(sessionID)
	}
}

// --- Test helpers ---

func testConfig() *config.Config {
	return &config.Config{
		AppEnv:                "development",
		Port:                  "0",
		APIRateLimit:          1000,
		APIRateBurst:          1000,
		MaxConnectionsPerIP:   100,
		WebSocketConnectRate:  1000,
		WebSocketConnectBurst: 1000,
	}
}

func newTestServer(t *testing.T, app appService, opts ...Option) *Server {
	t.Helper()
	return newTestServerWithHub(t, app, &mockHub{}, opts...)
}

func newTestServerWithHub(t *testing.T, app appService, hub displayHub, opts ...Option) *Server {
	t.Helper()
	return NewServer(testConfig(), app, hub, clockwork.NewFakeClock(), opts...)
}

// doRequest routes a request through the full middleware chain.
func doRequest(srv *Server, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)
	return rec
}

// callHandler wraps a handler with error middleware, matching production behavior
func callHandler(handler echo.HandlerFunc, c echo.Context) error {
	return ErrorHandlingMiddleware()(handler)(c)
}
