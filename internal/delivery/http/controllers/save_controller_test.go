package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"partyhub/internal/delivery/http/helpers"
	"partyhub/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSaveService implements domain.SaveService for handler tests.
type fakeSaveService struct {
	save        *domain.Save
	created     bool
	saved       []*domain.SavedParty
	saveErr     error
	unsaveErr   error
	listErr     error
	lastPartyID string
	lastUserID  string
	lastStatus  string
}

func (f *fakeSaveService) SaveParty(ctx context.Context, partyID, userID, status string) (*domain.Save, bool, error) {
	f.lastPartyID = partyID
	f.lastUserID = userID
	f.lastStatus = status
	if f.saveErr != nil {
		return nil, false, f.saveErr
	}
	return f.save, f.created, nil
}

func (f *fakeSaveService) UnsaveParty(ctx context.Context, partyID, userID string) error {
	f.lastPartyID = partyID
	f.lastUserID = userID
	return f.unsaveErr
}

func (f *fakeSaveService) ListSavedParties(ctx context.Context, userID string) ([]*domain.SavedParty, error) {
	f.lastUserID = userID
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.saved, nil
}

func TestSaveController_SaveParty(t *testing.T) {
	now := time.Date(2025, 8, 19, 12, 0, 0, 0, time.UTC)
	existing := &domain.Save{ID: "s1", PartyID: "p1", UserID: "user-1", Status: domain.SaveStatusGoing, CreatedAt: now, UpdatedAt: now}

	tests := []struct {
		name       string
		body       io.Reader
		authed     bool
		created    bool
		fakeErr    error
		wantStatus int
		wantSaved  string
	}{
		{
			name:       "empty body defaults to saved",
			body:       nil,
			authed:     true,
			created:    true,
			wantStatus: http.StatusCreated,
			wantSaved:  domain.SaveStatusSaved,
		},
		{
			name:       "rsvp going",
			body:       bytes.NewBufferString(`{"status":"going"}`),
			authed:     true,
			created:    true,
			wantStatus: http.StatusCreated,
			wantSaved:  domain.SaveStatusGoing,
		},
		{
			name:       "empty status in body defaults to saved",
			body:       bytes.NewBufferString(`{"status":""}`),
			authed:     true,
			created:    true,
			wantStatus: http.StatusCreated,
			wantSaved:  domain.SaveStatusSaved,
		},
		{
			name:       "existing save returns 200",
			body:       bytes.NewBufferString(`{"status":"going"}`),
			authed:     true,
			created:    false,
			wantStatus: http.StatusOK,
			wantSaved:  domain.SaveStatusGoing,
		},
		{
			name:       "invalid status",
			body:       bytes.NewBufferString(`{"status":"maybe"}`),
			authed:     true,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown party",
			body:       nil,
			authed:     true,
			fakeErr:    domain.ErrNotFound,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "no auth",
			body:       nil,
			authed:     false,
			wantStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeSaveService{save: existing, created: tt.created, saveErr: tt.fakeErr}
			ctrl := NewSaveController(testLogger, fake)

			req := httptest.NewRequest(http.MethodPost, "http://test/api/parties/p1/save", tt.body)
			req.Header.Set("Content-Type", "application/json")
			req.SetPathValue("partyID", "p1")
			if tt.authed {
				req = req.WithContext(testClaims(req.Context(), "user-1", "attendee"))
			}
			rr := httptest.NewRecorder()

			ctrl.SaveParty(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code, "status code")
			if tt.wantSaved != "" && tt.fakeErr == nil {
				assert.Equal(t, "p1", fake.lastPartyID)
				assert.Equal(t, "user-1", fake.lastUserID)
				assert.Equal(t, tt.wantSaved, fake.lastStatus)
			}
			if tt.wantStatus == http.StatusUnauthorized {
				assert.Empty(t, fake.lastPartyID, "service must not be called without auth")
			}
		})
	}
}

func TestSaveController_UnsaveParty(t *testing.T) {
	tests := []struct {
		name       string
		fakeErr    error
		wantStatus int
		wantCode   string
	}{
		{name: "removed", wantStatus: http.StatusOK},
		{name: "never saved", fakeErr: domain.ErrNotFound, wantStatus: http.StatusNotFound, wantCode: helpers.ErrCodeNotFound},
		{name: "service error", fakeErr: errors.New("db down"), wantStatus: http.StatusInternalServerError, wantCode: helpers.ErrCodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeSaveService{unsaveErr: tt.fakeErr}
			ctrl := NewSaveController(testLogger, fake)

			req := httptest.NewRequest(http.MethodDelete, "http://test/api/parties/p1/save", nil)
			req.SetPathValue("partyID", "p1")
			req = req.WithContext(testClaims(req.Context(), "user-1", "attendee"))
			rr := httptest.NewRecorder()

			ctrl.UnsaveParty(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			var envelope helpers.APIResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
			if tt.wantStatus == http.StatusOK {
				require.Nil(t, envelope.Error)
				dataBytes, err := json.Marshal(envelope.Data)
				require.NoError(t, err)
				var resp UnsavePartyResponse
				require.NoError(t, json.Unmarshal(dataBytes, &resp))
				assert.Equal(t, "removed", resp.Status)
			} else {
				require.NotNil(t, envelope.Error)
				assert.Equal(t, tt.wantCode, envelope.Error.Code)
			}
		})
	}
}

func TestSaveController_ListSavedParties(t *testing.T) {
	saved := []*domain.SavedParty{
		{Save: &domain.Save{ID: "s1", PartyID: "p1", UserID: "user-1", Status: domain.SaveStatusGoing}, Party: testPartyView("p1", "Indie Mixer").Party},
	}

	t.Run("success", func(t *testing.T) {
		fake := &fakeSaveService{saved: saved}
		ctrl := NewSaveController(testLogger, fake)

		req := httptest.NewRequest(http.MethodGet, "http://test/api/me/parties", nil)
		req = req.WithContext(testClaims(req.Context(), "user-1", "attendee"))
		rr := httptest.NewRecorder()

		ctrl.ListSavedParties(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "user-1", fake.lastUserID)

		var envelope helpers.APIResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
		require.Nil(t, envelope.Error)
		dataBytes, err := json.Marshal(envelope.Data)
		require.NoError(t, err)
		var resp SavedPartiesResponse
		require.NoError(t, json.Unmarshal(dataBytes, &resp))
		require.Len(t, resp.Parties, 1)
		assert.Equal(t, domain.SaveStatusGoing, resp.Parties[0].Save.Status)
		assert.Equal(t, "Indie Mixer", resp.Parties[0].Party.Title)
	})

	t.Run("no auth", func(t *testing.T) {
		fake := &fakeSaveService{}
		ctrl := NewSaveController(testLogger, fake)

		req := httptest.NewRequest(http.MethodGet, "http://test/api/me/parties", nil)
		rr := httptest.NewRecorder()

		ctrl.ListSavedParties(rr, req)

		require.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}
