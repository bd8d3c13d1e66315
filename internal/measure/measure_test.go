package measure

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const serviceBody = `{
  "success": true,
  "measurements": {"height": 175.2, "shoulderWidth": 44.8, "chestWidth": 38.5, "waistWidth": 32.1, "confidence": 0.89, "landmarks_detected": 33},
  "uniform_recommendations": {"recommended_size": "M", "shirt_size": "M", "pants_size": "M", "blazer_size": "M", "fit_confidence": "high"},
  "message": "Body measurements calculated successfully"
}`

func TestDecodeResponse(t *testing.T) {
	resp, err := DecodeResponse(200, strings.NewReader(serviceBody))
	require.NoError(t, err)
	require.NotNil(t, resp.Measurements)
	assert.InDelta(t, 175.2, resp.Measurements.Height, 1e-4)
	assert.InDelta(t, 44.8, resp.Measurements.ShoulderWidth, 1e-4)
	assert.Equal(t, 33, resp.Measurements.LandmarksDetected)
	assert.Equal(t, "M", resp.Recommendations.RecommendedSize)
	assert.Equal(t, "high", resp.Recommendations.FitConfidence)
}

func TestDecodeResponse_Unsuccessful(t *testing.T) {
	_, err := DecodeResponse(200, strings.NewReader(`{"success": false, "message": "nope"}`))
	assert.ErrorIs(t, err, ErrUnsuccessful)
}

func TestDecodeResponse_ServiceError(t *testing.T) {
	_, err := DecodeResponse(422, strings.NewReader(`{"detail": "No pose landmarks detected in the image"}`))
	var se *ServiceError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 422, se.StatusCode)
	assert.Equal(t, "No pose landmarks detected in the image", se.Detail)
	assert.Contains(t, se.Error(), "No pose landmarks")
}

func TestDecodeError_NotJSON(t *testing.T) {
	err := DecodeError(502, strings.NewReader("<html>bad gateway</html>"))
	var se *ServiceError
	require.True(t, errors.As(err, &se))
	assert.Empty(t, se.Detail)
	assert.Contains(t, se.Error(), "Bad Gateway")
}

func TestDegenerate(t *testing.T) {
	assert.False(t, Mock().Degenerate())
	assert.True(t, (&Record{Height: 170, ShoulderWidth: 0}).Degenerate())
	assert.True(t, (&Record{Height: -1, ShoulderWidth: 45}).Degenerate())
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	bare := filepath.Join(dir, "bare.json")
	require.NoError(t, os.WriteFile(bare, []byte(`{"height": 180, "shoulderWidth": 50}`), 0644))
	rec, err := Load(bare)
	require.NoError(t, err)
	assert.Equal(t, float32(180), rec.Height)
	assert.Equal(t, float32(50), rec.ShoulderWidth)

	full := filepath.Join(dir, "full.json")
	require.NoError(t, os.WriteFile(full, []byte(serviceBody), 0644))
	rec, err = Load(full)
	require.NoError(t, err)
	assert.InDelta(t, 175.2, rec.Height, 1e-4)

	broken := filepath.Join(dir, "broken.json")
	require.NoError(t, os.WriteFile(broken, []byte(`{"height":`), 0644))
	_, err = Load(broken)
	assert.Error(t, err)

	_, err = Load(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "measurements.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"height": 170, "shoulderWidth": 45}`), 0644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan *Record, 8)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, zaptest.NewLogger(t), func(r *Record) { got <- r })
	}()

	select {
	case r := <-got:
		assert.Equal(t, float32(170), r.Height)
	case <-time.After(5 * time.Second):
		t.Fatal("initial record not delivered")
	}

	require.NoError(t, os.WriteFile(path, []byte(`{"height": 340, "shoulderWidth": 45}`), 0644))
	deadline := time.After(5 * time.Second)
	for {
		select {
		case r := <-got:
			// A single write may surface as several events; wait for the new content.
			if r.Height == 340 {
				cancel()
				require.NoError(t, <-done)
				return
			}
		case <-deadline:
			t.Fatal("updated record not delivered")
		}
	}
}
