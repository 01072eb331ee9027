package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)

	_, err = New(reg)
	assert.Error(t, err, "second registration on the same registry must fail")
}

func TestRecorders(t *testing.T) {
	m, err := New(prometheus.NewRegistry())
	require.NoError(t, err)

	m.MediaUpload("cloudinary", nil)
	m.MediaUpload("cloudinary", nil)
	m.MediaUpload("cloudinary", errors.New("boom"))
	m.MediaDelete("minio", nil)
	m.ContentWrite("hero", "create")
	m.ContentPruned("hero", 2)
	m.ContentPruned("hero", 0)
	m.CacheLookup("hit")
	m.Login("invalid")
	m.BreakerStateChange("media-cloudinary", gobreaker.StateClosed, gobreaker.StateOpen)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.mediaUploads.WithLabelValues("cloudinary", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.mediaUploads.WithLabelValues("cloudinary", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.mediaDeletes.WithLabelValues("minio", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.contentWrites.WithLabelValues("hero", "create")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.contentPruned.WithLabelValues("hero")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.authLogins.WithLabelValues("invalid")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.breakerState.WithLabelValues("media-cloudinary")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.MediaUpload("x", nil)
		m.MediaDelete("x", nil)
		m.ContentWrite("x", "create")
		m.ContentPruned("x", 1)
		m.CacheLookup("miss")
		m.Login("ok")
		m.BreakerStateChange("x", gobreaker.StateClosed, gobreaker.StateOpen)
	})
}
