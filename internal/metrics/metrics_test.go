package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func gaugeValue(t *testing.T, g prometheus.Gauge) float64 {
	t.Helper()
	var m dto.Metric
	if err := g.Write(&m); err != nil {
		t.Fatal(err)
	}
	return m.GetGauge().GetValue()
}

func TestSessionStartedStopped(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.SessionStarted()
	m.SessionStarted()
	if got := gaugeValue(t, m.ActiveSessions); got != 2 {
		t.Fatalf("expected 2 active sessions, got %v", got)
	}

	m.SessionStopped()
	if got := gaugeValue(t, m.ActiveSessions); got != 1 {
		t.Fatalf("expected 1 active session, got %v", got)
	}
}

func TestAccessUnitSentLabelsByCodec(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.AccessUnitSent("h264")
	m.AccessUnitSent("h264")
	m.AccessUnitSent("aac")

	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	var found bool
	for _, f := range families {
		if f.GetName() != "rtspvod_access_units_total" {
			continue
		}
		found = true
		if len(f.GetMetric()) != 2 {
			t.Fatalf("expected 2 label combinations, got %d", len(f.GetMetric()))
		}
	}
	if !found {
		t.Fatal("expected rtspvod_access_units_total metric family")
	}
}

func TestSetCacheHandles(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.SetCacheHandles(3)
	if got := gaugeValue(t, m.CacheHandles); got != 3 {
		t.Fatalf("expected 3, got %v", got)
	}
}
