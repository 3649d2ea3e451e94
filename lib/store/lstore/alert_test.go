package lstore

import (
	"bytes"
	"testing"

	"github.com/ValentinKolb/kvds/lib/common"
	"github.com/ValentinKolb/kvds/lib/db"
	"github.com/rcrowley/go-metrics"
	"github.com/stretchr/testify/assert"
)

func TestLogAlerter(t *testing.T) {
	var buf bytes.Buffer
	prev := common.SetOutput(&buf)
	defer common.SetOutput(prev)

	registry := metrics.NewRegistry()
	alerter := NewLogAlerter(registry)

	alerter.Alert(AlertCategory, "opening database /data/chain failed")
	alerter.Alert(AlertCategory, "closing database /data/chain failed")

	assert.Contains(t, buf.String(), "opening database /data/chain failed")
	assert.Contains(t, buf.String(), AlertCategory)
	assert.EqualValues(t, 2, metrics.GetOrRegisterCounter(MetricAlerts, registry).Count())
}

func TestAlerterFunc(t *testing.T) {
	var got []string
	var alerter Alerter = AlerterFunc(func(category, message string) {
		got = append(got, category+": "+message)
	})

	alerter.Alert("kvds", "boom")
	assert.Equal(t, []string{"kvds: boom"}, got)
}

func TestDefaultAlerterCountsIntoStoreMetrics(t *testing.T) {
	var buf bytes.Buffer
	prev := common.SetOutput(&buf)
	defer common.SetOutput(prev)

	f := &faults{}
	s, err := NewStore("test", testConfig(t, db.ImplPebble), WithProvider(newFaultyProvider(f)))
	assert.NoError(t, err)

	f.openErr = assert.AnError
	assert.Error(t, s.Init())

	assert.EqualValues(t, 1, metrics.GetOrRegisterCounter(MetricAlerts, s.Metrics()).Count())
	assert.Contains(t, buf.String(), assert.AnError.Error())
}
