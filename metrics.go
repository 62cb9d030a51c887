// metrics.go: Operation and persistence metrics
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package exampleplugin

import (
	"errors"

	prom "github.com/prometheus/client_golang/prometheus"
)

// Outcome labels reported to a Recorder.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
)

// Recorder receives plugin metrics. Implementations must be safe for
// concurrent use.
type Recorder interface {
	// OperationCompleted is called once per Execute call
	OperationCompleted(operation, outcome string)

	// PersistenceFailed is called when writing a persisted file fails;
	// file is "config" or "data"
	PersistenceFailed(file string)
}

// NoopRecorder discards all metrics.
type NoopRecorder struct{}

func (NoopRecorder) OperationCompleted(string, string) {}
func (NoopRecorder) PersistenceFailed(string)          {}

// PrometheusRecorder implements Recorder using Prometheus counters.
//
// Registered metrics:
//   - example_plugin_operations_total{operation,outcome}
//   - example_plugin_persistence_failures_total{file}
type PrometheusRecorder struct {
	operations  *prom.CounterVec
	persistence *prom.CounterVec
}

// NewPrometheusRecorder constructs the counters and registers them on reg.
// A nil reg gets a private registry. When reg already holds the counters,
// for example from an earlier recorder, the registered ones are shared.
func NewPrometheusRecorder(reg prom.Registerer) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	return &PrometheusRecorder{
		operations: registerCounterVec(reg, prom.NewCounterVec(prom.CounterOpts{
			Namespace: "example_plugin",
			Name:      "operations_total",
			Help:      "Plugin operations by name and outcome",
		}, []string{"operation", "outcome"})),
		persistence: registerCounterVec(reg, prom.NewCounterVec(prom.CounterOpts{
			Namespace: "example_plugin",
			Name:      "persistence_failures_total",
			Help:      "Failed writes of persisted plugin files",
		}, []string{"file"})),
	}
}

func registerCounterVec(reg prom.Registerer, cv *prom.CounterVec) *prom.CounterVec {
	err := reg.Register(cv)
	if err == nil {
		return cv
	}
	var are prom.AlreadyRegisteredError
	if errors.As(err, &are) {
		if existing, ok := are.ExistingCollector.(*prom.CounterVec); ok {
			return existing
		}
	}
	panic(err)
}

// OperationCompleted implements Recorder.
func (p *PrometheusRecorder) OperationCompleted(operation, outcome string) {
	p.operations.WithLabelValues(operation, outcome).Inc()
}

// PersistenceFailed implements Recorder.
func (p *PrometheusRecorder) PersistenceFailed(file string) {
	p.persistence.WithLabelValues(file).Inc()
}
