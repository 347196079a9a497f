package metrics

import (
	"math"
	"testing"
)

func TestMean(t *testing.T) {
	if _, ok := Mean(nil); ok {
		t.Error("Expected ok=false for empty input")
	}

	mean, ok := Mean([]float64{1, 2, 3, 4})
	if !ok || mean != 2.5 {
		t.Errorf("Expected mean 2.5, got %v (ok=%v)", mean, ok)
	}
}

func TestSampleStddev(t *testing.T) {
	// Sample stddev of 2, 4, 4, 4, 5, 5, 7, 9 with n-1 denominator
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	mean, _ := Mean(values)
	stddev, ok := SampleStddev(values, mean)
	if !ok {
		t.Fatal("Expected ok=true")
	}
	expected := math.Sqrt(32.0 / 7.0)
	if math.Abs(stddev-expected) > 1e-12 {
		t.Errorf("Expected %v, got %v", expected, stddev)
	}

	if _, ok := SampleStddev([]float64{5}, 5); ok {
		t.Error("Expected ok=false for a single sample")
	}
}

func TestCoefficientOfVariation(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   *float64
	}{
		{"empty", nil, nil},
		{"single value", []float64{10}, nil},
		{"zero mean", []float64{-1, 1}, nil},
		{"constant", []float64{3, 3, 3}, ptr(0)},
		{"spread", []float64{8, 12}, ptr(math.Sqrt(8) / 10)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CoefficientOfVariation(tt.values)
			if tt.want == nil {
				if got != nil {
					t.Errorf("Expected nil, got %v", *got)
				}
				return
			}
			if got == nil {
				t.Fatalf("Expected %v, got nil", *tt.want)
			}
			if math.Abs(*got-*tt.want) > 1e-12 {
				t.Errorf("Expected %v, got %v", *tt.want, *got)
			}
		})
	}
}

func TestMeanOfPresent(t *testing.T) {
	if MeanOfPresent(nil, nil) != nil {
		t.Error("Expected nil when all values are nil")
	}

	got := MeanOfPresent(ptr(10), nil, ptr(20))
	if got == nil || *got != 15 {
		t.Errorf("Expected 15, got %v", got)
	}
}

func TestPercentile(t *testing.T) {
	values := []float64{5, 1, 4, 2, 3}
	if p := Percentile(values, 0.5); p != 3 {
		t.Errorf("Expected median 3, got %v", p)
	}
	if p := Percentile(values, 0.9); math.Abs(p-4.6) > 1e-12 {
		t.Errorf("Expected p90 4.6, got %v", p)
	}
	if values[0] != 5 {
		t.Error("Percentile must not reorder its input")
	}
}

func TestRound(t *testing.T) {
	tests := []struct {
		in     float64
		places int32
		want   float64
	}{
		{12.3456, 2, 12.35},
		{0.12349, 3, 0.123},
		{2.675, 2, 2.68},
		{-1.005, 2, -1.01},
		{7, 2, 7},
	}
	for _, tt := range tests {
		if got := Round(tt.in, tt.places); got != tt.want {
			t.Errorf("Round(%v, %d) = %v, want %v", tt.in, tt.places, got, tt.want)
		}
	}

	if RoundPtr(nil, 2) != nil {
		t.Error("Expected nil for nil input")
	}
	nan := math.NaN()
	if RoundPtr(&nan, 2) != nil {
		t.Error("Expected nil for NaN input")
	}
}

func ptr(v float64) *float64 { return &v }
