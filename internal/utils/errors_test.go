package utils

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/aristath/horizon/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestStatusForError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil", nil, http.StatusOK},
		{"invalid parameter", fmt.Errorf("run: %w", domain.ErrInvalidParameter), http.StatusBadRequest},
		{"invalid panel", fmt.Errorf("load: %w", domain.ErrInvalidPanel), http.StatusBadRequest},
		{"misaligned horizon", domain.ErrMisalignedHorizon, http.StatusBadRequest},
		{"not found", fmt.Errorf("load AGG: %w", domain.ErrNotFound), http.StatusNotFound},
		{"storage", fmt.Errorf("save: %w", domain.ErrStorage), http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, StatusForError(tt.err))
		})
	}
}
