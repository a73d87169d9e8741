package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseAssetList(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"nothing given", "", nil},
		{"only separators", " , ,", nil},
		{"refresh default", "IWDA.L, AGG , GLD", []string{"IWDA.L", "AGG", "GLD"}},
		{"index ticker", "^GSPC,^IRX", []string{"^GSPC", "^IRX"}},
		{"repeat keeps first position", "GLD,AGG,GLD", []string{"GLD", "AGG"}},
		{"case matters", "gld,GLD", []string{"gld", "GLD"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseAssetList(tt.input))
		})
	}
}
