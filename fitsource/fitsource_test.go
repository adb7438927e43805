package fitsource

import (
	"errors"
	"os"
	"reflect"
	"testing"

	"github.com/epochtools/actinorm"
)

func TestSupportedMetrics(t *testing.T) {
	want := []string{"cadence", "heart_rate", "power"}
	if got := SupportedMetrics(); !reflect.DeepEqual(got, want) {
		t.Errorf("SupportedMetrics() = %v, want %v", got, want)
	}
}

func TestObservationsRejectsUnknownMetric(t *testing.T) {
	// Metric validation happens before the file is touched.
	_, _, err := Observations("does-not-exist.fit", "pim")
	if !errors.Is(err, actinorm.ErrSchemaNotFound) {
		t.Fatalf("error = %v, want ErrSchemaNotFound", err)
	}
}

func TestObservationsFromSample(t *testing.T) {
	const sample = "testdata/activity.fit"
	if _, err := os.Stat(sample); err != nil {
		t.Skipf("sample fit file not available: %v", err)
	}

	obs, skipped, err := Observations(sample, "heart_rate")
	if err != nil {
		t.Fatalf("Observations() error: %v", err)
	}
	if len(obs) == 0 {
		t.Fatal("no observations extracted from sample activity")
	}
	if skipped < 0 {
		t.Fatalf("skipped = %d", skipped)
	}
	for i := 1; i < len(obs); i++ {
		if obs[i].Row <= obs[i-1].Row {
			t.Fatalf("observations out of record order at %d", i)
		}
	}
}
