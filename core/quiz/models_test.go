package quiz

import (
	"testing"
	"time"
)

func TestUpdateQuiz_Validate_partialUpdate(t *testing.T) {
	orig := Quiz{
		Title:            "Indépendance du Congo",
		Description:      "Chapitre 3",
		OpenAt:           time.Date(2021, 5, 10, 8, 0, 0, 0, time.UTC),
		CloseAt:          time.Date(2021, 5, 10, 18, 0, 0, 0, time.UTC),
		TimeLimitMinutes: 30,
		AttemptsAllowed:  2,
		Status:           StatusOpen,
	}

	tests := []struct {
		name     string
		uq       UpdateQuiz
		wantDesc string
		wantErr  bool
	}{
		{name: "omitted fields keep the original values", uq: UpdateQuiz{Title: "Nouveau titre"}, wantDesc: "Chapitre 3"},
		{name: "provided description replaces", uq: UpdateQuiz{Description: "Chapitre 4"}, wantDesc: "Chapitre 4"},
		{name: "close_at before open_at", uq: UpdateQuiz{CloseAt: orig.OpenAt.Add(-time.Hour)}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.uq.Validate(orig)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if tt.uq.Description != tt.wantDesc {
				t.Errorf("Validate() description = %q, want %q", tt.uq.Description, tt.wantDesc)
			}
			if tt.uq.TimeLimitMinutes != orig.TimeLimitMinutes || tt.uq.AttemptsAllowed != orig.AttemptsAllowed || tt.uq.Status != orig.Status {
				t.Errorf("Validate() dropped original values: %+v", tt.uq)
			}
		})
	}
}
