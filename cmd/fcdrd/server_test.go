package main

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jmittaz/FCDR-HIRS/core"
	"github.com/jmittaz/FCDR-HIRS/internal/demo"
	"github.com/jmittaz/FCDR-HIRS/internal/logging"
	"github.com/jmittaz/FCDR-HIRS/internal/observability"
)

func testServer(t *testing.T) *server {
	t.Helper()

	cat, err := core.NewHIRSCatalogue(logging.Noop())
	if err != nil {
		t.Fatalf("NewHIRSCatalogue: %v", err)
	}
	g, err := demo.NewGranule(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), 40, 10)
	if err != nil {
		t.Fatalf("NewGranule: %v", err)
	}
	collector, err := observability.NewCatalogueCollector(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("NewCatalogueCollector: %v", err)
	}
	return &server{
		catalogue: cat,
		granule:   g,
		collector: collector,
		log:       logging.Noop(),
	}
}

func TestHealthz(t *testing.T) {
	srv := testServer(t)
	rec := httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		Status  string `json:"status"`
		Effects int    `json:"effects"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "ok" || body.Effects != 18 {
		t.Errorf("body = %+v", body)
	}
}

func TestEffectsListing(t *testing.T) {
	srv := testServer(t)
	rec := httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/effects", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var views []effectView
	if err := json.Unmarshal(rec.Body.Bytes(), &views); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(views) != 18 {
		t.Fatalf("listed %d effects, want 18", len(views))
	}

	byName := make(map[string]effectView, len(views))
	for _, v := range views {
		byName[v.Name] = v
	}
	earth, ok := byName["C_Earth"]
	if !ok {
		t.Fatal("C_Earth missing from listing")
	}
	if earth.Classification != "independent" || earth.RModel != "random" {
		t.Errorf("C_Earth view = %+v", earth)
	}
	if earth.CorrelationType["across_time"] != "random" {
		t.Errorf("C_Earth correlation_type = %v", earth.CorrelationType)
	}

	typeB, ok := byName["O_TPRT"]
	if !ok {
		t.Fatal("O_TPRT missing from listing")
	}
	if typeB.Magnitude == nil || typeB.Magnitude.Value != 0.1 || typeB.Magnitude.Units != "K" {
		t.Errorf("O_TPRT magnitude view = %+v", typeB.Magnitude)
	}

	// Fully systematic effects carry unbounded scales, which must survive
	// the JSON round trip instead of breaking the encoder.
	srf, ok := byName["SRF_calib"]
	if !ok {
		t.Fatal("SRF_calib missing from listing")
	}
	for axis, v := range srf.CorrelationScale {
		if !math.IsInf(float64(v), 1) {
			t.Errorf("SRF_calib scale on %s = %v, want +Inf", axis, v)
		}
	}
}

func TestScaleValueJSON(t *testing.T) {
	raw, err := json.Marshal(map[string]scaleValue{
		"bounded":   scaleValue(40),
		"unbounded": scaleValue(math.Inf(1)),
	})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(raw), `"unbounded":"inf"`) {
		t.Errorf("unbounded scale rendered as %s", raw)
	}

	var back map[string]scaleValue
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !math.IsInf(float64(back["unbounded"]), 1) {
		t.Errorf("unbounded scale decoded as %v", back["unbounded"])
	}
	if back["bounded"] != 40 {
		t.Errorf("bounded scale decoded as %v", back["bounded"])
	}
}

func TestCorrelationEndpoint(t *testing.T) {
	srv := testServer(t)
	mux := srv.routes()

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/effects/correlation?effect=C_Earth&kind=cross_element", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Effect     string      `json:"effect"`
		Kind       string      `json:"kind"`
		Dims       []string    `json:"dims"`
		Shape      []int       `json:"shape"`
		FirstBlock [][]float64 `json:"first_block"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	wantShape := []int{19, 40, 56, 56}
	for i, n := range wantShape {
		if body.Shape[i] != n {
			t.Fatalf("shape = %v, want %v", body.Shape, wantShape)
		}
	}
	if body.FirstBlock[0][0] != 1 || body.FirstBlock[0][1] != 0 {
		t.Errorf("first block of a random effect should be identity, got %v", body.FirstBlock[0][:2])
	}
}

func TestCorrelationErrorMapping(t *testing.T) {
	srv := testServer(t)
	mux := srv.routes()

	cases := []struct {
		url  string
		code int
	}{
		// Fully systematic effects have no finite correlation matrix.
		{"/effects/correlation?effect=SRF_calib", http.StatusConflict},
		// Reserved models are distinguishable from the common rejection.
		{"/effects/correlation?effect=extraneous_periodic", http.StatusNotImplemented},
		{"/effects/correlation?effect=nope", http.StatusNotFound},
		{"/effects/correlation?effect=C_Earth&kind=diagonal", http.StatusBadRequest},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.url, nil))
		if rec.Code != tc.code {
			t.Errorf("%s: status = %d, want %d", tc.url, rec.Code, tc.code)
		}
	}
}

func TestCorrelationSubsampling(t *testing.T) {
	srv := testServer(t)
	rec := httptest.NewRecorder()
	srv.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/effects/correlation?effect=C_space&kind=cross_line&sampling_l=2", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	var body struct {
		Shape []int `json:"shape"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	// 40 scanlines at stride 2.
	want := []int{19, 56, 20, 20}
	for i, n := range want {
		if body.Shape[i] != n {
			t.Fatalf("shape = %v, want %v", body.Shape, want)
		}
	}
}

func TestMetricsEndpointCountsComputations(t *testing.T) {
	srv := testServer(t)
	mux := srv.routes()

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/effects/correlation?effect=C_Earth", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("correlation status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "fcdr_matrix_computations_total") {
		t.Error("metrics output missing fcdr_matrix_computations_total")
	}
}
