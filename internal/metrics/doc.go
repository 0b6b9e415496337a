// Package metrics provides observability hooks for the layout state core.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics collection needs no nil checks at call sites:
//
//	st := store.New(store.WithRecorder(metrics.NewPrometheusRecorder(reg)))
//
// PrometheusRecorder registers its collectors on the given registry and
// NewMux exposes that registry for scraping next to a readiness check.
package metrics
