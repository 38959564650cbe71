//go:build !integration

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/startupbase/fundmatch/internal/catalog"
	"github.com/startupbase/fundmatch/internal/engine"
)

// stubStore serves a fixed catalog for handler tests.
type stubStore struct {
	cat *catalog.Catalog
	err error
}

func (s *stubStore) LoadCatalog(context.Context, catalog.Domain) (*catalog.Catalog, error) {
	return s.cat, s.err
}

func (s *stubStore) UpsertEntities(context.Context, catalog.Domain, []engine.TargetEntity) (int, error) {
	return 0, nil
}

func (s *stubStore) UpsertRecords(context.Context, catalog.Domain, []engine.CandidateRecord) (int, error) {
	return 0, nil
}

func (s *stubStore) SaveResults(context.Context, catalog.Domain, *engine.Profile, []engine.MatchResult) error {
	return nil
}

func (s *stubStore) Counts(context.Context) (map[catalog.Domain]catalog.Counts, error) {
	return nil, nil
}

func (s *stubStore) Migrate(context.Context) error { return nil }
func (s *stubStore) Close() error                  { return nil }

func testCatalog() *catalog.Catalog {
	min := int64(1_000_000)
	max := int64(5_000_000)
	return &catalog.Catalog{
		Entities: []engine.TargetEntity{
			{ID: "e-ka", Name: "Karnataka", Abbreviation: "KA"},
			{ID: "e-mh", Name: "Maharashtra", Abbreviation: "MH"},
		},
		Records: []engine.CandidateRecord{
			{
				ID: "r-1", TargetEntityID: "e-ka", Name: "Elevate",
				Sector: "AI", FundingType: engine.FundingGrant,
				FundingMin: &min, FundingMax: &max,
				Verified: true, PopularityScore: 80,
			},
			{
				ID: "r-2", TargetEntityID: "e-mh", Name: "EV Fund",
				Sector: "electric vehicles", FundingType: engine.FundingLoan,
				PopularityScore: 60,
			},
		},
	}
}

func testDeps(store catalog.Store) serverDeps {
	return serverDeps{
		store:     store,
		groups:    engine.DefaultSectorGroups(),
		bodyLimit: 64 * 1024,
		limiter:   rate.NewLimiter(rate.Inf, 0),
		origins:   []string{"*"},
	}
}

func postJSON(t *testing.T, router http.Handler, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestRouter_Health(t *testing.T) {
	router := buildRouter(testDeps(&stubStore{cat: testCatalog()}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Content-Type"), "application/json")

	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestRouter_MatchSchemes(t *testing.T) {
	router := buildRouter(testDeps(&stubStore{cat: testCatalog()}))

	rr := postJSON(t, router, "/match/schemes", map[string]any{
		"industry":         "AI",
		"stage":            "seed",
		"required_funding": 2_000_000,
		"registered_state": "Karnataka",
		"prefers_grant":    true,
	})

	require.Equal(t, http.StatusOK, rr.Code)

	var resp matchResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "schemes", resp.Domain)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "Karnataka", resp.Results[0].TargetName)
	assert.Greater(t, resp.Results[0].Score, resp.Results[1].Score)
	assert.NotEmpty(t, resp.Results[0].Explanation)
	require.Len(t, resp.Results[0].TopRecords, 1)
	assert.Equal(t, "Elevate", resp.Results[0].TopRecords[0].Name)
}

func TestRouter_MatchSchemes_StringFunding(t *testing.T) {
	router := buildRouter(testDeps(&stubStore{cat: testCatalog()}))

	rr := postJSON(t, router, "/match/schemes", map[string]any{
		"industry":         "AI",
		"required_funding": "₹20,00,000",
	})

	require.Equal(t, http.StatusOK, rr.Code)

	var resp matchResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 2)

	// The formatted amount parses and scores as an in-range request.
	var funding engine.FactorScore
	for _, fs := range resp.Results[0].Explanation {
		if fs.Factor == "funding" {
			funding = fs
		}
	}
	assert.Equal(t, 20.0, funding.Value)
}

func TestRouter_MatchSchemes_TopParam(t *testing.T) {
	router := buildRouter(testDeps(&stubStore{cat: testCatalog()}))

	body, _ := json.Marshal(map[string]any{"industry": "AI"})
	req := httptest.NewRequest(http.MethodPost, "/match/schemes?top=1", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp matchResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Len(t, resp.Results, 1)
}

func TestRouter_MatchSchemes_BadTopParam(t *testing.T) {
	router := buildRouter(testDeps(&stubStore{cat: testCatalog()}))

	body, _ := json.Marshal(map[string]any{"industry": "AI"})
	req := httptest.NewRequest(http.MethodPost, "/match/schemes?top=lots", bytes.NewReader(body))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "top must be")
}

func TestRouter_MatchBanks(t *testing.T) {
	store := &stubStore{cat: &catalog.Catalog{
		Entities: []engine.TargetEntity{{ID: "b-sbi", Name: "State Bank of India", Abbreviation: "SBI"}},
		Records: []engine.CandidateRecord{{
			ID: "r-1", TargetEntityID: "b-sbi", Name: "MSME Term Loan",
			FundingType: engine.FundingLoan, BankType: "public",
			Criteria: []string{"msme registration"}, Verified: true, PopularityScore: 70,
		}},
	}}
	router := buildRouter(testDeps(store))

	rr := postJSON(t, router, "/match/banks", map[string]any{
		"industry":             "manufacturing",
		"preferred_bank_types": []string{"public"},
		"special_criteria":     []string{"msme registration"},
	})

	require.Equal(t, http.StatusOK, rr.Code)

	var resp matchResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "banks", resp.Domain)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "State Bank of India", resp.Results[0].TargetName)
}

func TestRouter_Match_UnknownDomain(t *testing.T) {
	router := buildRouter(testDeps(&stubStore{cat: testCatalog()}))

	rr := postJSON(t, router, "/match/everything", map[string]any{"industry": "AI"})

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "unknown match domain")
}

func TestRouter_Match_InvalidJSON(t *testing.T) {
	router := buildRouter(testDeps(&stubStore{cat: testCatalog()}))

	req := httptest.NewRequest(http.MethodPost, "/match/schemes", bytes.NewReader([]byte("not json")))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "invalid request body")
}

func TestRouter_Match_EmptyProfile(t *testing.T) {
	router := buildRouter(testDeps(&stubStore{cat: testCatalog()}))

	rr := postJSON(t, router, "/match/schemes", map[string]any{})

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "profile is empty")
}

func TestRouter_Match_StoreError(t *testing.T) {
	router := buildRouter(testDeps(&stubStore{err: assert.AnError}))

	rr := postJSON(t, router, "/match/schemes", map[string]any{"industry": "AI"})

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, rr.Body.String(), "catalog unavailable")
}

func TestRouter_RateLimit(t *testing.T) {
	deps := testDeps(&stubStore{cat: testCatalog()})
	deps.limiter = rate.NewLimiter(rate.Limit(0.001), 1)
	router := buildRouter(deps)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Contains(t, rr.Body.String(), "rate limit")
}
