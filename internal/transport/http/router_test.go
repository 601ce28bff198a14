package httptransport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"examreg/internal/assertion"
	"examreg/internal/examsession"
	examsessionhandler "examreg/internal/examsession/handler"
	"examreg/internal/importer"
	"examreg/internal/otp"
	otphandler "examreg/internal/otp/handler"
	"examreg/internal/ratelimit"
	"examreg/internal/registration"
	registrationhandler "examreg/internal/registration/handler"
	"examreg/internal/student"
	studenthandler "examreg/internal/student/handler"
	"examreg/pkg/domain"
)

const adminToken = "test-admin-token"

type captureSender struct {
	lastCode string
}

func (c *captureSender) Send(_ context.Context, _, code string) error {
	c.lastCode = code
	return nil
}

// RouterSuite exercises the assembled HTTP surface against in-memory stores.
type RouterSuite struct {
	suite.Suite
	server   *httptest.Server
	sender   *captureSender
	sessions *examsession.Service
	students *student.Service
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s.sender = &captureSender{}

	assertions := assertion.NewService("router-test-key-0123456789", 10*time.Minute, assertion.NewInMemoryUsedStore())
	otpService := otp.NewService(
		otp.NewInMemoryStore(), ratelimit.NewInMemoryLimiter(), s.sender, assertions,
		otp.Config{TTL: 5 * time.Minute, CodeLength: 6, IssueLimit: 10, IssueWindow: 15 * time.Minute},
		otp.WithLogger(logger),
	)

	s.students = student.NewService(student.NewInMemoryStore(), student.WithLogger(logger))
	s.sessions = examsession.NewService(examsession.NewInMemoryStore(), 7*24*time.Hour,
		examsession.WithLogger(logger))
	registrations := registration.NewService(
		registration.NewInMemoryStore(), s.sessions, s.students, assertions,
		registration.WithLogger(logger))
	pipeline := importer.NewPipeline(s.students, 200, importer.WithLogger(logger))

	otpH := otphandler.New(otpService, logger)
	studentH := studenthandler.New(s.students, pipeline, logger)
	sessionH := examsessionhandler.New(s.sessions, logger)
	registrationH := registrationhandler.New(registrations, logger)

	router := NewRouter(RouterConfig{
		Logger:     logger,
		AdminToken: adminToken,
		Public:     []FeatureHandler{otpH, studentH, sessionH, registrationH},
		Admin:      []AdminHandler{studentH, sessionH, registrationH},
	})
	s.server = httptest.NewServer(router)
}

func (s *RouterSuite) TearDownTest() {
	s.server.Close()
}

func (s *RouterSuite) do(method, path string, body any, admin bool) (*http.Response, map[string]any) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequest(method, s.server.URL+path, reader)
	s.Require().NoError(err)
	req.Header.Set("Content-Type", "application/json")
	if admin {
		req.Header.Set("X-Admin-Token", adminToken)
	}

	resp, err := s.server.Client().Do(req)
	s.Require().NoError(err)
	defer resp.Body.Close()

	var decoded map[string]any
	raw, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	if len(raw) > 0 {
		s.Require().NoError(json.Unmarshal(raw, &decoded), "body: %s", raw)
	}
	return resp, decoded
}

func (s *RouterSuite) seedStudent() {
	s.Require().NoError(s.students.Upsert(context.Background(), student.Profile{
		StudentID: domain.StudentID("20123456"),
		FullName:  "Nguyen Van A",
		Email:     "a@student.edu.vn",
	}))
}

func (s *RouterSuite) seedSession(capacity int) domain.SessionID {
	session, err := s.sessions.Create(context.Background(), &examsession.ExamSession{
		Name:     "Dot 1 2026",
		ExamDate: time.Now().Add(60 * 24 * time.Hour),
		Capacity: capacity,
		Fee:      500000,
		Status:   examsession.StatusActive,
	})
	s.Require().NoError(err)
	return session.ID
}

func (s *RouterSuite) verifyContact(email string) string {
	resp, _ := s.do(http.MethodPost, "/api/registrations/send-otp", map[string]string{"email": email}, false)
	s.Require().Equal(http.StatusAccepted, resp.StatusCode)
	s.Require().NotEmpty(s.sender.lastCode)

	resp, body := s.do(http.MethodPost, "/api/registrations/verify-otp",
		map[string]string{"email": email, "code": s.sender.lastCode}, false)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	token, _ := body["assertion"].(string)
	s.Require().NotEmpty(token)
	return token
}

func (s *RouterSuite) TestFullRegistrationFlow() {
	s.seedStudent()
	sessionID := s.seedSession(10)

	resp, body := s.do(http.MethodGet, "/api/students/20123456", nil, false)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal("Nguyen Van A", body["full_name"])

	token := s.verifyContact("a@student.edu.vn")

	resp, body = s.do(http.MethodPost, "/api/registrations", map[string]string{
		"student_id": "20123456",
		"session_id": sessionID.String(),
		"email":      "a@student.edu.vn",
		"phone":      "0901234567",
		"assertion":  token,
	}, false)
	s.Require().Equal(http.StatusCreated, resp.StatusCode)

	payment, _ := body["payment"].(map[string]any)
	s.Require().NotNil(payment)
	s.Contains(payment["reference"], "20123456")

	resp, body = s.do(http.MethodGet, "/api/students/20123456/registrations", nil, false)
	s.Equal(http.StatusOK, resp.StatusCode)
	registrations, _ := body["registrations"].([]any)
	s.Len(registrations, 1)
}

func (s *RouterSuite) TestVerifyWithWrongCode() {
	resp, _ := s.do(http.MethodPost, "/api/registrations/send-otp",
		map[string]string{"email": "a@student.edu.vn"}, false)
	s.Require().Equal(http.StatusAccepted, resp.StatusCode)

	resp, body := s.do(http.MethodPost, "/api/registrations/verify-otp",
		map[string]string{"email": "a@student.edu.vn", "code": "0000000"}, false)
	s.Equal(http.StatusBadRequest, resp.StatusCode)
	s.Equal("otp_mismatch", body["error"])
}

func (s *RouterSuite) TestRegisterWithoutAssertion() {
	s.seedStudent()
	sessionID := s.seedSession(10)

	resp, body := s.do(http.MethodPost, "/api/registrations", map[string]string{
		"student_id": "20123456",
		"session_id": sessionID.String(),
		"email":      "a@student.edu.vn",
		"assertion":  "not-a-token",
	}, false)
	s.Equal(http.StatusUnauthorized, resp.StatusCode)
	s.Equal("assertion_invalid", body["error"])
}

func (s *RouterSuite) TestDuplicateRegistrationReturnsExisting() {
	s.seedStudent()
	sessionID := s.seedSession(10)

	payload := map[string]string{
		"student_id": "20123456",
		"session_id": sessionID.String(),
		"email":      "a@student.edu.vn",
		"assertion":  s.verifyContact("a@student.edu.vn"),
	}
	resp, _ := s.do(http.MethodPost, "/api/registrations", payload, false)
	s.Require().Equal(http.StatusCreated, resp.StatusCode)

	payload["assertion"] = s.verifyContact("a@student.edu.vn")
	resp, body := s.do(http.MethodPost, "/api/registrations", payload, false)
	s.Equal(http.StatusConflict, resp.StatusCode)
	s.Equal("already_registered", body["error"])

	existing, _ := body["existing"].(map[string]any)
	s.Require().NotNil(existing)
	reg, _ := existing["registration"].(map[string]any)
	s.Require().NotNil(reg)
	s.Equal(sessionID.String(), reg["session_id"])
}

func (s *RouterSuite) TestListOpenSessionsFlags() {
	full := s.seedSession(0)

	resp, body := s.do(http.MethodGet, "/api/sessions/open", nil, false)
	s.Equal(http.StatusOK, resp.StatusCode)

	sessions, _ := body["sessions"].([]any)
	s.Require().Len(sessions, 1)
	entry, _ := sessions[0].(map[string]any)
	s.Equal(full.String(), entry["id"])
	s.Equal(true, entry["is_full"])
	s.Equal(false, entry["is_expired"])
}

func (s *RouterSuite) TestAdminRoutesRequireToken() {
	resp, _ := s.do(http.MethodGet, "/api/admin/sessions", nil, false)
	s.Equal(http.StatusForbidden, resp.StatusCode)

	resp, _ = s.do(http.MethodGet, "/api/admin/sessions", nil, true)
	s.Equal(http.StatusOK, resp.StatusCode)
}

func (s *RouterSuite) TestAdminImport() {
	rows := make([]map[string]string, 0, 3)
	for i := 0; i < 3; i++ {
		rows = append(rows, map[string]string{
			"student_id": fmt.Sprintf("2100000%d", i),
			"full_name":  "Imported Student",
		})
	}
	rows = append(rows, map[string]string{"full_name": "No ID"})

	resp, body := s.do(http.MethodPost, "/api/admin/students/import",
		map[string]any{"rows": rows}, true)
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	s.EqualValues(3, body["total_submitted"])
	s.EqualValues(3, body["total_accepted"])
	rejected, _ := body["rejected"].([]any)
	s.Len(rejected, 1)

	resp, _ = s.do(http.MethodGet, "/api/students/21000001", nil, false)
	s.Equal(http.StatusOK, resp.StatusCode)
}

func (s *RouterSuite) TestAdminTransferAndStatus() {
	s.seedStudent()
	from := s.seedSession(10)
	to := s.seedSession(10)
	token := s.verifyContact("a@student.edu.vn")

	resp, _ := s.do(http.MethodPost, "/api/registrations", map[string]string{
		"student_id": "20123456",
		"session_id": from.String(),
		"email":      "a@student.edu.vn",
		"assertion":  token,
	}, false)
	s.Require().Equal(http.StatusCreated, resp.StatusCode)

	resp, body := s.do(http.MethodPost, "/api/admin/registrations/transfer", map[string]string{
		"student_id":      "20123456",
		"from_session_id": from.String(),
		"to_session_id":   to.String(),
	}, true)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	moved, _ := body["registration"].(map[string]any)
	s.Equal(to.String(), moved["session_id"])

	resp, body = s.do(http.MethodPut, "/api/admin/registrations/status", map[string]string{
		"student_id": "20123456",
		"session_id": to.String(),
		"status":     "paid",
	}, true)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	s.Equal("paid", body["status"])

	resp, _ = s.do(http.MethodDelete, "/api/admin/registrations", map[string]string{
		"student_id": "20123456",
		"session_id": to.String(),
	}, true)
	s.Equal(http.StatusNoContent, resp.StatusCode)
}

func (s *RouterSuite) TestHealthz() {
	resp, body := s.do(http.MethodGet, "/healthz", nil, false)
	s.Equal(http.StatusOK, resp.StatusCode)
	s.Equal("ok", body["status"])
}
