package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stwalsh4118/prompter/internal/models"
)

func TestGetSettings_Defaults(t *testing.T) {
	env := setupTestEnv(t, nil)

	w := env.do(t, http.MethodGet, "/api/settings", nil)
	requireStatus(t, w, http.StatusOK)

	resp := decode[models.Settings](t, w)
	assert.Equal(t, models.DefaultScrollSpeed, resp.ScrollSpeed)
	assert.Equal(t, models.DefaultFontSize, resp.FontSize)
	assert.Equal(t, models.DefaultPaddingX, resp.PaddingX)
	assert.True(t, resp.IsDarkMode)
	assert.False(t, resp.IsMirrored)
}

func TestUpdateSettings(t *testing.T) {
	env := setupTestEnv(t, nil)

	t.Run("Partial update keeps other fields", func(t *testing.T) {
		w := env.do(t, http.MethodPut, "/api/settings", map[string]interface{}{
			"font_size":    72,
			"is_dark_mode": false,
		})
		requireStatus(t, w, http.StatusOK)

		resp := decode[models.Settings](t, w)
		assert.Equal(t, 72, resp.FontSize)
		assert.False(t, resp.IsDarkMode)
		assert.Equal(t, models.DefaultScrollSpeed, resp.ScrollSpeed)
	})

	tests := []struct {
		name  string
		patch map[string]interface{}
	}{
		{"Speed below range", map[string]interface{}{"scroll_speed": 0}},
		{"Speed above range", map[string]interface{}{"scroll_speed": 101}},
		{"Font too small", map[string]interface{}{"font_size": 19}},
		{"Font too large", map[string]interface{}{"font_size": 151}},
		{"Padding too wide", map[string]interface{}{"padding_x": 46}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPut, "/api/settings", tt.patch)
			requireStatus(t, w, http.StatusBadRequest)
			assert.Equal(t, "invalid_settings", decode[ErrorResponse](t, w).Error)
		})
	}

	t.Run("Malformed body", func(t *testing.T) {
		w := env.do(t, http.MethodPut, "/api/settings", map[string]string{"scroll_speed": "fast"})
		requireStatus(t, w, http.StatusBadRequest)
		assert.Equal(t, "invalid_request", decode[ErrorResponse](t, w).Error)
	})
}
