package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/steamcup/tournament-engine/brackets"
	"github.com/steamcup/tournament-engine/repositories"
	"github.com/steamcup/tournament-engine/services"
)

func TestMapServiceErrorToHTTP(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"tournament not found", repositories.ErrTournamentNotFound, http.StatusNotFound},
		{"validation", fmt.Errorf("%w: bad seed", services.ErrValidation), http.StatusBadRequest},
		{"too few seeded teams", fmt.Errorf("generate: %w", brackets.ErrNotEnoughSeedings), http.StatusBadRequest},
		{"ambiguous result", services.ErrAmbiguousResult, http.StatusUnprocessableEntity},
		{"capacity exceeded", services.ErrCapacityExceeded, http.StatusConflict},
		{"slot unavailable", services.ErrSlotUnavailable, http.StatusConflict},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			mapServiceErrorToHTTP(rec, req, tt.err)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
