package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creamcroissant/v2mng/internal/subscribe"
)

// gathered 返回 name 下每个样本的 label 值与数值。
func gathered(t *testing.T, reg *prometheus.Registry, name string) map[string]float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	out := map[string]float64{}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			label := ""
			if pairs := m.GetLabel(); len(pairs) > 0 {
				label = pairs[0].GetValue()
			}
			switch {
			case m.GetCounter() != nil:
				out[label] = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				out[label] = m.GetGauge().GetValue()
			}
		}
	}
	return out
}

func TestFetchCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewFetch(reg)

	m.SourceDone(subscribe.SourceResult{Index: 0})
	m.SourceDone(subscribe.SourceResult{Index: 1, Err: errors.New("timeout")})
	m.SourceDone(subscribe.SourceResult{Index: 1, Err: errors.New("timeout")})
	m.LinkRejected("malformed")
	m.RunDone(5)
	m.RunDone(3)

	assert.Equal(t, map[string]float64{"1": 2}, gathered(t, reg, "v2mng_fetch_source_failures_total"))
	assert.Equal(t, map[string]float64{"malformed": 1}, gathered(t, reg, "v2mng_link_rejections_total"))
	assert.Equal(t, map[string]float64{"": 2}, gathered(t, reg, "v2mng_fetch_runs_total"))
	assert.Equal(t, map[string]float64{"": 3}, gathered(t, reg, "v2mng_fetch_entries"))
	assert.Positive(t, gathered(t, reg, "v2mng_fetch_last_success_timestamp_seconds")[""])
}

func TestNewFetchWithoutRegistry(t *testing.T) {
	assert.NotPanics(t, func() {
		NewFetch(nil)
		NewFetch(nil)
	})
}
