package embedder

import (
	"errors"
	"math"
	"testing"
)

func TestComputeHash(t *testing.T) {
	// Fixed vectors pin the hash function; stored chunk hashes would be
	// orphaned if it ever changed.
	want := map[string]string{
		"":            "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		"hello world": "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9",
	}
	for text, hash := range want {
		if got := ComputeHash(text); got != hash {
			t.Errorf("ComputeHash(%q) = %s, want %s", text, got, hash)
		}
	}

	if ComputeHash("expense policy") != ComputeHash("expense policy") {
		t.Error("ComputeHash is not deterministic")
	}
	if ComputeHash("expense policy") == ComputeHash("travel policy") {
		t.Error("ComputeHash collided on different texts")
	}
}

func TestValidateRequest(t *testing.T) {
	if err := ValidateRequest(EmbeddingRequest{Text: "remote work policy"}); err != nil {
		t.Errorf("ValidateRequest() error = %v, want nil", err)
	}
	if err := ValidateRequest(EmbeddingRequest{Text: "x", Model: "custom"}); err != nil {
		t.Errorf("ValidateRequest() with model override error = %v, want nil", err)
	}
	if err := ValidateRequest(EmbeddingRequest{}); !errors.Is(err, ErrEmptyText) {
		t.Errorf("ValidateRequest() on empty text = %v, want ErrEmptyText", err)
	}
}

func TestValidateBatchRequest(t *testing.T) {
	tests := []struct {
		name    string
		texts   []string
		wantErr bool
	}{
		{"all valid", []string{"one", "two", "three"}, false},
		{"empty batch", nil, true},
		{"empty text inside", []string{"one", "", "three"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateBatchRequest(BatchEmbeddingRequest{Texts: tt.texts})
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateBatchRequest() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidInput) {
				t.Errorf("error = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestNormalizeVector(t *testing.T) {
	norm := func(v []float32) float64 {
		var sum float64
		for _, x := range v {
			sum += float64(x) * float64(x)
		}
		return math.Sqrt(sum)
	}

	t.Run("unit length result", func(t *testing.T) {
		for _, v := range [][]float32{
			{3, 4},
			{1, 0, 0},
			{-0.5, 0.25, 0.1, 2},
		} {
			got := NormalizeVector(v)
			if n := norm(got); math.Abs(n-1) > 1e-5 {
				t.Errorf("norm(NormalizeVector(%v)) = %f, want 1", v, n)
			}
		}
	})

	t.Run("direction preserved", func(t *testing.T) {
		got := NormalizeVector([]float32{3, 4})
		if math.Abs(float64(got[0])-0.6) > 1e-5 || math.Abs(float64(got[1])-0.8) > 1e-5 {
			t.Errorf("NormalizeVector([3 4]) = %v, want [0.6 0.8]", got)
		}
	})

	t.Run("zero vector unchanged", func(t *testing.T) {
		got := NormalizeVector([]float32{0, 0, 0})
		for i, x := range got {
			if x != 0 {
				t.Errorf("zero vector index %d = %f, want 0", i, x)
			}
		}
	})

	t.Run("input not mutated", func(t *testing.T) {
		in := []float32{3, 4}
		_ = NormalizeVector(in)
		if in[0] != 3 || in[1] != 4 {
			t.Errorf("input mutated to %v", in)
		}
	})
}
