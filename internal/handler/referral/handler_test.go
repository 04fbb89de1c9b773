package referral

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhouzirui/lumi/backend/internal/model/referral"
)

func setupRouter() (*chi.Mux, referral.Directory) {
	dir := referral.Seed()
	r := chi.NewRouter()
	New(referral.NewMemoryStore(dir)).RegisterRoutes(r)
	return r, dir
}

func TestDirectory(t *testing.T) {
	r, dir := setupRouter()

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/therapists", nil))
	require.Equal(t, http.StatusOK, resp.Code)

	var got referral.Directory
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &got))
	assert.Len(t, got.Therapists, len(dir.Therapists))
	assert.Len(t, got.Hotlines, len(dir.Hotlines))
}

func TestTherapistLookup(t *testing.T) {
	r, dir := setupRouter()

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/therapists/"+dir.Therapists[0].ID, nil))
	require.Equal(t, http.StatusOK, resp.Code)

	var got referral.Therapist
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &got))
	assert.Equal(t, dir.Therapists[0].Name, got.Name)

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/therapists/nobody", nil))
	assert.Equal(t, http.StatusNotFound, resp.Code)
}
