package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"partyhub/internal/domain"
)

func TestSaveService_SaveParty(t *testing.T) {
	now := time.Now()
	party := testParty("p1", "Indie Mixer", now.Add(24*time.Hour))

	tests := []struct {
		name        string
		setup       func(*fakePartyRepo, *fakeSaveRepo)
		partyID     string
		status      string
		wantStatus  string
		wantCreated bool
		wantErr     error
	}{
		{
			name:        "new save defaults to saved",
			setup:       func(pr *fakePartyRepo, sr *fakeSaveRepo) { pr.parties["p1"] = party },
			partyID:     "p1",
			status:      "",
			wantStatus:  domain.SaveStatusSaved,
			wantCreated: true,
		},
		{
			name:        "new rsvp",
			setup:       func(pr *fakePartyRepo, sr *fakeSaveRepo) { pr.parties["p1"] = party },
			partyID:     "p1",
			status:      domain.SaveStatusGoing,
			wantStatus:  domain.SaveStatusGoing,
			wantCreated: true,
		},
		{
			name: "saving twice returns existing row",
			setup: func(pr *fakePartyRepo, sr *fakeSaveRepo) {
				pr.parties["p1"] = party
				sr.put(&domain.Save{ID: "s1", PartyID: "p1", UserID: "u1", Status: domain.SaveStatusSaved})
			},
			partyID:     "p1",
			status:      domain.SaveStatusSaved,
			wantStatus:  domain.SaveStatusSaved,
			wantCreated: false,
		},
		{
			name: "upgrade saved to going",
			setup: func(pr *fakePartyRepo, sr *fakeSaveRepo) {
				pr.parties["p1"] = party
				sr.put(&domain.Save{ID: "s1", PartyID: "p1", UserID: "u1", Status: domain.SaveStatusSaved})
			},
			partyID:     "p1",
			status:      domain.SaveStatusGoing,
			wantStatus:  domain.SaveStatusGoing,
			wantCreated: false,
		},
		{
			name: "downgrade going to saved",
			setup: func(pr *fakePartyRepo, sr *fakeSaveRepo) {
				pr.parties["p1"] = party
				sr.put(&domain.Save{ID: "s1", PartyID: "p1", UserID: "u1", Status: domain.SaveStatusGoing})
			},
			partyID:     "p1",
			status:      domain.SaveStatusSaved,
			wantStatus:  domain.SaveStatusSaved,
			wantCreated: false,
		},
		{
			name:    "unknown status",
			setup:   func(pr *fakePartyRepo, sr *fakeSaveRepo) { pr.parties["p1"] = party },
			partyID: "p1",
			status:  "maybe",
			wantErr: domain.ErrInvalidInput,
		},
		{
			name:    "party not found",
			setup:   func(pr *fakePartyRepo, sr *fakeSaveRepo) {},
			partyID: "missing",
			status:  domain.SaveStatusSaved,
			wantErr: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			partyRepo := newFakePartyRepo()
			saveRepo := newFakeSaveRepo()
			tt.setup(partyRepo, saveRepo)
			svc := NewSaveService(saveRepo, partyRepo)

			save, created, err := svc.SaveParty(context.Background(), tt.partyID, "u1", tt.status)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if created != tt.wantCreated {
				t.Errorf("created = %v, want %v", created, tt.wantCreated)
			}
			if save.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", save.Status, tt.wantStatus)
			}
		})
	}
}

func TestSaveService_SaveParty_CreateRace(t *testing.T) {
	now := time.Now()
	partyRepo := newFakePartyRepo()
	partyRepo.parties["p1"] = testParty("p1", "Indie Mixer", now.Add(24*time.Hour))
	saveRepo := newFakeSaveRepo()
	// Create loses the race; the concurrent winner's row appears on re-fetch.
	saveRepo.dupOnCreate = &domain.Save{ID: "s-race", PartyID: "p1", UserID: "u1", Status: domain.SaveStatusSaved}

	svc := NewSaveService(saveRepo, partyRepo)
	save, created, err := svc.SaveParty(context.Background(), "p1", "u1", domain.SaveStatusGoing)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created {
		t.Error("expected created=false after losing the create race")
	}
	if save.ID != "s-race" {
		t.Errorf("expected the winner's row, got %q", save.ID)
	}
	if save.Status != domain.SaveStatusGoing {
		t.Errorf("expected requested status applied to existing row, got %q", save.Status)
	}
}

func TestSaveService_UnsaveParty(t *testing.T) {
	saveRepo := newFakeSaveRepo()
	saveRepo.put(&domain.Save{ID: "s1", PartyID: "p1", UserID: "u1", Status: domain.SaveStatusSaved})
	svc := NewSaveService(saveRepo, newFakePartyRepo())

	if err := svc.UnsaveParty(context.Background(), "p1", "u1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.UnsaveParty(context.Background(), "p1", "u1"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveService_ListSavedParties(t *testing.T) {
	now := time.Now()
	partyRepo := newFakePartyRepo()
	partyRepo.parties["p1"] = testParty("p1", "Later Party", now.Add(48*time.Hour))
	partyRepo.parties["p2"] = testParty("p2", "Sooner Party", now.Add(24*time.Hour))

	saveRepo := newFakeSaveRepo()
	saveRepo.put(&domain.Save{ID: "s1", PartyID: "p1", UserID: "u1", Status: domain.SaveStatusSaved})
	saveRepo.put(&domain.Save{ID: "s2", PartyID: "p2", UserID: "u1", Status: domain.SaveStatusGoing})
	// A save pointing at a deleted party is dropped from the result.
	saveRepo.put(&domain.Save{ID: "s3", PartyID: "gone", UserID: "u1", Status: domain.SaveStatusSaved})
	saveRepo.put(&domain.Save{ID: "s4", PartyID: "p1", UserID: "other", Status: domain.SaveStatusSaved})

	svc := NewSaveService(saveRepo, partyRepo)
	got, err := svc.ListSavedParties(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 saved parties, got %d", len(got))
	}
	if got[0].Party.ID != "p2" || got[1].Party.ID != "p1" {
		t.Errorf("expected soonest-first order p2,p1, got %s,%s", got[0].Party.ID, got[1].Party.ID)
	}
	if got[0].Save.Status != domain.SaveStatusGoing {
		t.Errorf("expected going status on p2, got %q", got[0].Save.Status)
	}
}

func TestSaveService_ListSavedParties_Empty(t *testing.T) {
	svc := NewSaveService(newFakeSaveRepo(), newFakePartyRepo())
	got, err := svc.ListSavedParties(context.Background(), "u1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %v", got)
	}
}
