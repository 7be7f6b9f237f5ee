package api

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestSortParamAllowList(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		name  string
		query string
		want  string
	}{
		{"allowed field", "sortBy=like_count", "like_count"},
		{"unknown field falls back", "sortBy=password_hash", "created_at"},
		{"missing falls back", "", "created_at"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest("GET", "/?"+tc.query, nil)

			got := sortParam(c, "created_at", "created_at", "like_count")
			if got != tc.want {
				t.Errorf("sortParam(%q) = %q, want %q", tc.query, got, tc.want)
			}
		})
	}
}
