package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"clearport/internal/member"
	"clearport/internal/member/store"
	"clearport/internal/review"
	"clearport/internal/review/handler/mocks"
	id "clearport/pkg/domain"
	dErrors "clearport/pkg/domain-errors"
	"clearport/pkg/platform/audit"
	"clearport/pkg/requestcontext"
	"clearport/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/review-mocks.go -package=mocks Service
type ReviewHandlerSuite struct {
	suite.Suite
	ctx context.Context
}

func (s *ReviewHandlerSuite) SetupSuite() {
	s.ctx = context.Background()
}

func TestReviewHandlerSuite(t *testing.T) {
	suite.Run(t, new(ReviewHandlerSuite))
}

func newTestHandler(t *testing.T) (*chi.Mux, *mocks.MockService) {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	mockService := mocks.NewMockService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	r := chi.NewRouter()
	New(mockService, logger).Register(r)
	return r, mockService
}

func (s *ReviewHandlerSuite) TestHandleReject() {
	router, mockService := newTestHandler(s.T())
	applicationID := id.NewApplicationID()
	memberID := id.NewMemberID()

	mockService.EXPECT().Reject(gomock.Any(), review.Command{
		ApplicationID: applicationID,
		MemberID:      memberID,
		Reason:        "incomplete KYC documents",
	}).Return(review.Result{CompanyName: "Acme Clearing Ltd", NotificationSent: true}, nil)

	body, err := json.Marshal(DecisionRequest{
		ApplicationID: applicationID.String(),
		MemberID:      memberID.String(),
		Reason:        "incomplete KYC documents",
	})
	require.NoError(s.T(), err)

	req := httptest.NewRequest(http.MethodPost, "/admin/applications/reject", bytes.NewReader(body))
	req, _ = testutil.WithAdmin(req)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusOK, w.Code)
	var resp DecisionResponse
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(s.T(), resp.Success)
	assert.Equal(s.T(), "Application rejected successfully", resp.Message)
	assert.True(s.T(), resp.EmailSent)
}

func (s *ReviewHandlerSuite) TestHandleApproveReportsDegradedNotification() {
	router, mockService := newTestHandler(s.T())
	applicationID := id.NewApplicationID()
	memberID := id.NewMemberID()

	mockService.EXPECT().Approve(gomock.Any(), gomock.Any()).
		Return(review.Result{CompanyName: "Acme Clearing Ltd", NotificationSent: false}, nil)

	body, err := json.Marshal(DecisionRequest{
		ApplicationID: applicationID.String(),
		MemberID:      memberID.String(),
	})
	require.NoError(s.T(), err)

	req := httptest.NewRequest(http.MethodPost, "/admin/applications/approve", bytes.NewReader(body))
	req, _ = testutil.WithAdmin(req)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusOK, w.Code)
	var resp DecisionResponse
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(s.T(), resp.Success)
	assert.False(s.T(), resp.EmailSent)
}

func (s *ReviewHandlerSuite) TestHandleRejectValidation() {
	cases := []struct {
		name string
		body string
	}{
		{"malformed json", `{"applicationId": `},
		{"missing applicationId", `{"memberId": "` + id.NewMemberID().String() + `"}`},
		{"missing memberId", `{"applicationId": "` + id.NewApplicationID().String() + `"}`},
		{"non-uuid applicationId", `{"applicationId": "abc", "memberId": "` + id.NewMemberID().String() + `"}`},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			// No service expectation: invalid payloads never reach it.
			router, _ := newTestHandler(s.T())

			req := httptest.NewRequest(http.MethodPost, "/admin/applications/reject", bytes.NewReader([]byte(tc.body)))
			req, _ = testutil.WithAdmin(req)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(s.T(), http.StatusBadRequest, w.Code)
			var resp map[string]any
			require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
			assert.NotEmpty(s.T(), resp["error"])
		})
	}
}

func (s *ReviewHandlerSuite) TestHandleDecisionAuthorizationPrecedesValidation() {
	invalidBody := `{"applicationId": "` + id.NewApplicationID().String() + `"}`

	s.Run("unauthenticated caller gets 401 even with an invalid body", func() {
		// No service expectation: the gate fires before decode and dispatch.
		router, _ := newTestHandler(s.T())

		req := httptest.NewRequest(http.MethodPost, "/admin/applications/reject", bytes.NewReader([]byte(invalidBody)))
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), http.StatusUnauthorized, w.Code)
		var resp map[string]any
		require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(s.T(), string(dErrors.CodeUnauthorized), resp["error"])
	})

	s.Run("non-admin caller gets 403 even with an invalid body", func() {
		router, _ := newTestHandler(s.T())

		req := httptest.NewRequest(http.MethodPost, "/admin/applications/reject", bytes.NewReader([]byte(invalidBody)))
		req = testutil.WithPrincipal(req, id.NewUserID(), requestcontext.RoleMember)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), http.StatusForbidden, w.Code)
	})
}

func (s *ReviewHandlerSuite) TestHandleRejectErrorStatuses() {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"not found", dErrors.New(dErrors.CodeNotFound, "application not found"), http.StatusNotFound, "application not found"},
		{"already decided", dErrors.New(dErrors.CodeConflict, "application has already been decided"), http.StatusConflict, "application has already been decided"},
		{"repository failure", dErrors.Wrap(errors.New("pq: down"), dErrors.CodeInternal, "Failed to reject application"), http.StatusInternalServerError, "Failed to reject application"},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			router, mockService := newTestHandler(s.T())
			mockService.EXPECT().Reject(gomock.Any(), gomock.Any()).Return(review.Result{}, tc.err)

			body, err := json.Marshal(DecisionRequest{
				ApplicationID: id.NewApplicationID().String(),
				MemberID:      id.NewMemberID().String(),
				Reason:        "incomplete KYC documents",
			})
			require.NoError(s.T(), err)

			req := httptest.NewRequest(http.MethodPost, "/admin/applications/reject", bytes.NewReader(body))
			req, _ = testutil.WithAdmin(req)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(s.T(), tc.wantStatus, w.Code)
			var resp map[string]any
			require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(s.T(), tc.wantMsg, resp["message"])
		})
	}
}

func (s *ReviewHandlerSuite) TestHandleList() {
	router, mockService := newTestHandler(s.T())
	applicationID := id.NewApplicationID()
	memberID := id.NewMemberID()
	submitted := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

	mockService.EXPECT().ListByStatus(gomock.Any(), member.ApplicationPending).
		Return([]store.ApplicationView{{
			Application: member.Application{
				ID:        applicationID,
				MemberID:  memberID,
				Status:    member.ApplicationPending,
				CreatedAt: submitted,
			},
			CompanyName: "Acme Clearing Ltd",
		}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/admin/applications", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusOK, w.Code)
	var resp ListResponse
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(s.T(), resp.Applications, 1)
	assert.Equal(s.T(), applicationID.String(), resp.Applications[0].ApplicationID)
	assert.Equal(s.T(), "pending", resp.Applications[0].Status)
}

func (s *ReviewHandlerSuite) TestHandleListRejectsUnknownStatus() {
	router, _ := newTestHandler(s.T())

	req := httptest.NewRequest(http.MethodGet, "/admin/applications?status=archived", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
}

func (s *ReviewHandlerSuite) TestHandleRecentAudit() {
	router, mockService := newTestHandler(s.T())

	mockService.EXPECT().RecentAudit(gomock.Any(), 2).
		Return([]audit.Event{
			{Action: string(audit.ActionNotificationSent), EntityType: audit.EntityApplication},
			{Action: string(audit.ActionApplicationRejected), EntityType: audit.EntityApplication},
		}, nil)

	req := httptest.NewRequest(http.MethodGet, "/admin/audit/recent?limit=2", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), http.StatusOK, w.Code)
	var resp AuditListResponse
	require.NoError(s.T(), json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(s.T(), resp.Events, 2)
	assert.Equal(s.T(), string(audit.ActionNotificationSent), resp.Events[0].Action)
}

func (s *ReviewHandlerSuite) TestHandleRecentAuditRejectsBadLimit() {
	router, _ := newTestHandler(s.T())

	for _, limit := range []string{"0", "-1", "9999", "abc"} {
		req := httptest.NewRequest(http.MethodGet, "/admin/audit/recent?limit="+limit, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(s.T(), http.StatusBadRequest, w.Code)
	}
}
