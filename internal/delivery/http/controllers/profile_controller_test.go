package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"partyhub/internal/delivery/http/helpers"
	"partyhub/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeProfileService implements domain.ProfileService for handler tests.
type fakeProfileService struct {
	profile    *domain.Profile
	user       *domain.User
	snapshot   *domain.ProfileSnapshot
	report     *domain.ImportReport
	profileErr error
	updateErr  error
	importErr  error
	lastUserID string
	lastName   string
	lastSnap   *domain.ProfileSnapshot
}

func (f *fakeProfileService) Profile(ctx context.Context, userID string) (*domain.Profile, error) {
	f.lastUserID = userID
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	return f.profile, nil
}

func (f *fakeProfileService) UpdateProfile(ctx context.Context, userID, name, company, jobRole string) (*domain.User, error) {
	f.lastUserID = userID
	f.lastName = name
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return f.user, nil
}

func (f *fakeProfileService) Export(ctx context.Context, userID string) (*domain.ProfileSnapshot, error) {
	f.lastUserID = userID
	return f.snapshot, nil
}

func (f *fakeProfileService) Import(ctx context.Context, userID string, snap *domain.ProfileSnapshot) (*domain.ImportReport, error) {
	f.lastUserID = userID
	f.lastSnap = snap
	if f.importErr != nil {
		return nil, f.importErr
	}
	return f.report, nil
}

func TestProfileController_GetProfile(t *testing.T) {
	tests := []struct {
		name       string
		fakeErr    error
		wantStatus int
	}{
		{name: "found", wantStatus: http.StatusOK},
		{name: "unknown user", fakeErr: domain.ErrUserNotFound, wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeProfileService{
				profile: &domain.Profile{
					User:            &domain.User{ID: "user-1", Email: "me@example.com", Name: "Alex"},
					InviteBudget:    &domain.InviteBudget{UserID: "user-1", Remaining: 5, TotalGranted: 5},
					SavedPartyIDs:   []string{"p1", "p2"},
					ConnectionCount: 3,
				},
				profileErr: tt.fakeErr,
			}
			ctrl := NewProfileController(testLogger, fake)

			req := httptest.NewRequest(http.MethodGet, "http://test/api/profile", nil)
			req = req.WithContext(testClaims(req.Context(), "user-1", "attendee"))
			rr := httptest.NewRecorder()

			ctrl.GetProfile(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantStatus == http.StatusOK {
				var envelope helpers.APIResponse
				require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
				require.Nil(t, envelope.Error)
				dataBytes, err := json.Marshal(envelope.Data)
				require.NoError(t, err)
				var profile domain.Profile
				require.NoError(t, json.Unmarshal(dataBytes, &profile))
				assert.Equal(t, "Alex", profile.User.Name)
				assert.Equal(t, []string{"p1", "p2"}, profile.SavedPartyIDs)
				assert.Equal(t, 3, profile.ConnectionCount)
			}
		})
	}
}

func TestProfileController_UpdateProfile(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		fakeErr    error
		wantStatus int
	}{
		{name: "success", body: `{"name":"Alex","company":"IndieCo","job_role":"gameplay programmer"}`, wantStatus: http.StatusOK},
		{name: "blank name", body: `{"name":"   "}`, wantStatus: http.StatusBadRequest},
		{name: "unknown user", body: `{"name":"Alex"}`, fakeErr: domain.ErrUserNotFound, wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeProfileService{
				user:      &domain.User{ID: "user-1", Email: "me@example.com", Name: "Alex", Company: "IndieCo"},
				updateErr: tt.fakeErr,
			}
			ctrl := NewProfileController(testLogger, fake)

			req := httptest.NewRequest(http.MethodPut, "http://test/api/profile", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			req = req.WithContext(testClaims(req.Context(), "user-1", "attendee"))
			rr := httptest.NewRecorder()

			ctrl.UpdateProfile(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code, "status code")
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, "Alex", fake.lastName)
			}
		})
	}
}

func TestProfileController_Export(t *testing.T) {
	now := time.Date(2025, 8, 19, 12, 0, 0, 0, time.UTC)
	fake := &fakeProfileService{
		snapshot: &domain.ProfileSnapshot{
			Version:    domain.SnapshotVersion,
			ExportedAt: now,
			User:       &domain.User{ID: "user-1", Email: "me@example.com", Name: "Alex"},
			Saves:      []*domain.Save{{ID: "s1", PartyID: "p1", UserID: "user-1", Status: domain.SaveStatusGoing}},
		},
	}
	ctrl := NewProfileController(testLogger, fake)

	req := httptest.NewRequest(http.MethodGet, "http://test/api/profile/export", nil)
	req = req.WithContext(testClaims(req.Context(), "user-1", "attendee"))
	rr := httptest.NewRecorder()

	ctrl.Export(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var envelope helpers.APIResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
	require.Nil(t, envelope.Error)
	dataBytes, err := json.Marshal(envelope.Data)
	require.NoError(t, err)
	var snap domain.ProfileSnapshot
	require.NoError(t, json.Unmarshal(dataBytes, &snap))
	assert.Equal(t, domain.SnapshotVersion, snap.Version)
	require.Len(t, snap.Saves, 1)
	assert.Equal(t, domain.SaveStatusGoing, snap.Saves[0].Status)
}

func TestProfileController_Import(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		fakeErr    error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "success",
			body:       `{"version":"2","exported_at":"2025-08-19T12:00:00Z","user":{"id":"user-1","email":"me@example.com","name":"Alex"}}`,
			wantStatus: http.StatusOK,
		},
		{
			name: "unknown fields tolerated",
			// A "2.1" export may carry fields this server does not know.
			body:       `{"version":"2.1","exported_at":"2025-08-19T12:00:00Z","user":{"id":"user-1","email":"me@example.com","name":"Alex"},"badges":["early-bird"]}`,
			wantStatus: http.StatusOK,
		},
		{
			name:       "major version mismatch",
			body:       `{"version":"1","exported_at":"2024-08-19T12:00:00Z"}`,
			fakeErr:    domain.ErrSnapshotVersion,
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   helpers.ErrCodeUnprocessable,
		},
		{
			name:       "malformed body",
			body:       `{"version":`,
			wantStatus: http.StatusBadRequest,
			wantCode:   helpers.ErrCodeBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeProfileService{
				report:    &domain.ImportReport{SavesImported: 2, SavesSkipped: 1, ProfileUpdated: true},
				importErr: tt.fakeErr,
			}
			ctrl := NewProfileController(testLogger, fake)

			req := httptest.NewRequest(http.MethodPost, "http://test/api/profile/import", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			req = req.WithContext(testClaims(req.Context(), "user-1", "attendee"))
			rr := httptest.NewRecorder()

			ctrl.Import(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code, "status code")
			var envelope helpers.APIResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
			if tt.wantStatus == http.StatusOK {
				require.Nil(t, envelope.Error)
				require.NotNil(t, fake.lastSnap)
				dataBytes, err := json.Marshal(envelope.Data)
				require.NoError(t, err)
				var report domain.ImportReport
				require.NoError(t, json.Unmarshal(dataBytes, &report))
				assert.Equal(t, 2, report.SavesImported)
				assert.Equal(t, 1, report.SavesSkipped)
				assert.True(t, report.ProfileUpdated)
			} else {
				require.NotNil(t, envelope.Error)
				assert.Equal(t, tt.wantCode, envelope.Error.Code)
			}
		})
	}
}
