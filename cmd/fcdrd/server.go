package main

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/jmittaz/FCDR-HIRS/core"
	"github.com/jmittaz/FCDR-HIRS/internal/logging"
	"github.com/jmittaz/FCDR-HIRS/internal/observability"
	"github.com/jmittaz/FCDR-HIRS/model"
)

// server exposes the effect catalogue over HTTP: listings for harmonisation
// tooling, correlation matrices against the demo granule, and metrics.
type server struct {
	catalogue *core.Catalogue
	granule   *model.Granule
	collector *observability.CatalogueCollector
	log       logging.Logger
}

func (s *server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /effects", s.handleEffects)
	mux.HandleFunc("GET /effects/correlation", s.handleCorrelation)
	mux.Handle("GET /metrics", s.collector.Handler())
	return mux
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"effects": s.catalogue.Len(),
	})
}

// effectView is the JSON shape of one catalogue entry.
type effectView struct {
	Name             string                `json:"name"`
	Description      string                `json:"description"`
	Parameter        string                `json:"parameter"`
	Units            string                `json:"units"`
	PDFShape         string                `json:"pdf_shape"`
	ChannelsAffected string                `json:"channels_affected"`
	Dimensions       []string              `json:"dimensions,omitempty"`
	Classification   string                `json:"classification"`
	RModel           string                `json:"rmodel"`
	CorrelationType  map[string]string     `json:"correlation_type"`
	CorrelationScale map[string]scaleValue `json:"correlation_scale"`
	Sensitivity      string                `json:"sensitivity_coefficient,omitempty"`
	Magnitude        *magnitudeView        `json:"magnitude,omitempty"`
}

// scaleValue renders a correlation scale in JSON. Unbounded axes are common
// in the catalogue, and encoding/json has no representation for infinity, so
// those are written as the strings "inf" and "-inf".
type scaleValue float64

func (v scaleValue) MarshalJSON() ([]byte, error) {
	switch {
	case math.IsInf(float64(v), 1):
		return []byte(`"inf"`), nil
	case math.IsInf(float64(v), -1):
		return []byte(`"-inf"`), nil
	}
	return json.Marshal(float64(v))
}

func (v *scaleValue) UnmarshalJSON(b []byte) error {
	switch string(b) {
	case `"inf"`:
		*v = scaleValue(math.Inf(1))
		return nil
	case `"-inf"`:
		*v = scaleValue(math.Inf(-1))
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*v = scaleValue(f)
	return nil
}

type magnitudeView struct {
	Name  string  `json:"name"`
	Units string  `json:"units"`
	Value float64 `json:"value,omitempty"`
}

func (s *server) handleEffects(w http.ResponseWriter, r *http.Request) {
	ctx, log := logging.WithRequestLogger(r.Context(), s.log)

	var views []effectView
	snapshot := s.catalogue.Effects()
	for _, sym := range s.catalogue.Parameters() {
		for _, e := range snapshot[sym] {
			views = append(views, viewOf(e))
		}
	}

	log.Debug(ctx, "catalogue listed", logging.Int("effects", len(views)))
	s.writeJSON(w, http.StatusOK, views)
}

func viewOf(e *core.Effect) effectView {
	shapes := e.CorrelationType.Slots()
	scales := e.CorrelationScale.Slots()
	ct := make(map[string]string, 4)
	cs := make(map[string]scaleValue, 4)
	for i, axis := range model.CorrelationAxes {
		ct[axis] = string(shapes[i])
		cs[axis] = scaleValue(scales[i])
	}

	v := effectView{
		Name:             e.Name,
		Description:      e.Description,
		Parameter:        string(e.Parameter),
		Units:            e.Units,
		PDFShape:         e.PDFShape,
		ChannelsAffected: e.ChannelsAffected,
		Dimensions:       e.Dimensions,
		Classification:   e.Classification(),
		RModel:           core.RModelName(e.RModel),
		CorrelationType:  ct,
		CorrelationScale: cs,
	}
	if expr, err := e.Sensitivity(); err == nil {
		v.Sensitivity = expr.String()
	}
	if mag, ok := e.Magnitude(); ok {
		mv := &magnitudeView{Name: mag.Name, Units: mag.Units}
		if mag.IsScalar() {
			mv.Value = mag.Scalar()
		}
		v.Magnitude = mv
	}
	return v
}

// handleCorrelation derives a correlation matrix for one effect against the
// demo granule. Matrices are large, so the response carries the labelled
// shape plus the first block only.
func (s *server) handleCorrelation(w http.ResponseWriter, r *http.Request) {
	ctx, log := logging.WithRequestLogger(r.Context(), s.log)

	name := r.URL.Query().Get("effect")
	kind := r.URL.Query().Get("kind")
	if kind == "" {
		kind = "cross_line"
	}
	if kind != "cross_line" && kind != "cross_element" {
		s.httpError(w, http.StatusBadRequest, "kind must be cross_line or cross_element")
		return
	}
	samplingL := intQuery(r, "sampling_l", 1)
	samplingE := intQuery(r, "sampling_e", 1)

	e := findEffect(s.catalogue, name)
	if e == nil {
		s.httpError(w, http.StatusNotFound, "unknown effect "+name)
		return
	}

	tracer := otel.Tracer("fcdrd")
	ctx, span := tracer.Start(ctx, "correlation_matrix")
	span.SetAttributes(
		attribute.String("effect", e.Name),
		attribute.String("kind", kind),
		attribute.String("rmodel", core.RModelName(e.RModel)),
	)
	defer span.End()

	start := time.Now()
	var (
		da  *model.DataArray
		err error
	)
	switch kind {
	case "cross_element":
		da, err = e.CrossElementCorrelation(s.granule, samplingL, samplingE)
	default:
		da, err = e.CrossLineCorrelation(s.granule, samplingL, samplingE)
	}
	elapsed := time.Since(start)

	rmodel := core.RModelName(e.RModel)
	switch {
	case errors.Is(err, core.ErrCommonCorrelation):
		s.collector.ObserveComputation(rmodel, kind, "rejected", elapsed)
		s.httpError(w, http.StatusConflict, err.Error())
		return
	case errors.Is(err, core.ErrNotImplemented):
		s.collector.ObserveComputation(rmodel, kind, "unimplemented", elapsed)
		s.httpError(w, http.StatusNotImplemented, err.Error())
		return
	case err != nil:
		s.collector.ObserveComputation(rmodel, kind, "error", elapsed)
		log.Error(ctx, "correlation matrix failed",
			logging.String("effect", e.Name), logging.String("error", err.Error()))
		s.httpError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.collector.ObserveComputation(rmodel, kind, "ok", elapsed)

	nb := da.Data.Shape[2]
	block := make([][]float64, nb)
	for i := 0; i < nb; i++ {
		block[i] = make([]float64, nb)
		for j := 0; j < nb; j++ {
			block[i][j] = da.At(0, 0, i, j)
		}
	}

	log.Info(ctx, "correlation matrix derived",
		logging.String("effect", e.Name),
		logging.String("kind", kind),
		logging.Float64("elapsed_seconds", elapsed.Seconds()),
	)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"effect":      e.Name,
		"kind":        kind,
		"dims":        da.Dims,
		"shape":       da.Data.Shape,
		"first_block": block,
	})
}

func findEffect(cat *core.Catalogue, name string) *core.Effect {
	for _, list := range cat.Effects() {
		for _, e := range list {
			if e.Name == name {
				return e
			}
		}
	}
	return nil
}

func intQuery(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return def
	}
	return v
}

func (s *server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		// The status header is already out; all that is left is to record
		// the failure.
		s.log.Error(context.Background(), "response encoding failed",
			logging.String("error", err.Error()))
	}
}

func (s *server) httpError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}
