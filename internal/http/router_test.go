package http_test

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"testing"

	"github.com/stretchr/testify/suite"

	router "inscrito/internal/http"
	"inscrito/pkg/testutil"
)

// =============================================================================
// Router Test Suite
// =============================================================================
// Pins the health endpoint contract: the database ping and the redis health
// check feed the report, only a postgres outage degrades the service, and
// absent dependencies read as disabled rather than down.

type pingStub struct {
	err error
}

func (p pingStub) PingContext(context.Context) error { return p.err }

type healthStub struct {
	err error
}

func (h healthStub) Health(context.Context) error { return h.err }

type RouterSuite struct {
	suite.Suite
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) newRouter(deps router.Deps) http.Handler {
	deps.Logger = slog.Default()
	return router.New(deps)
}

type healthReport struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func (s *RouterSuite) getHealth(deps router.Deps) (int, *healthReport) {
	rr := testutil.DoRequest(s.newRouter(deps), testutil.NewRequest(s.T(), http.MethodGet, "/healthz"))
	return rr.Code, testutil.UnmarshalResponse[healthReport](s.T(), rr)
}

func (s *RouterSuite) TestHealthz() {
	s.Run("reports up when both dependencies answer", func() {
		code, report := s.getHealth(router.Deps{DB: pingStub{}, Redis: healthStub{}})
		s.Equal(http.StatusOK, code)
		s.Equal("ok", report.Status)
		s.Equal("up", report.Checks["postgres"])
		s.Equal("up", report.Checks["redis"])
	})

	s.Run("degrades on a postgres outage", func() {
		code, report := s.getHealth(router.Deps{DB: pingStub{err: errors.New("connection refused")}})
		s.Equal(http.StatusServiceUnavailable, code)
		s.Equal("degraded", report.Status)
		s.Equal("down", report.Checks["postgres"])
	})

	s.Run("a redis outage does not degrade the service", func() {
		code, report := s.getHealth(router.Deps{DB: pingStub{}, Redis: healthStub{err: errors.New("connection refused")}})
		s.Equal(http.StatusOK, code)
		s.Equal("ok", report.Status)
		s.Equal("down", report.Checks["redis"])
	})

	s.Run("absent dependencies read as disabled", func() {
		code, report := s.getHealth(router.Deps{})
		s.Equal(http.StatusOK, code)
		s.Equal("disabled", report.Checks["postgres"])
		s.Equal("disabled", report.Checks["redis"])
	})
}
