package sdk

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

// TestSentinelErrors verifies that all sentinel errors are defined correctly.
func TestSentinelErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "ErrInvalidSims",
			err:  ErrInvalidSims,
			want: "simulation count must be positive",
		},
		{
			name: "ErrNoImpactSource",
			err:  ErrNoImpactSource,
			want: "no impact source configured",
		},
		{
			name: "ErrMissingImpact",
			err:  ErrMissingImpact,
			want: "no impact distribution for asset",
		},
		{
			name: "ErrUnknownImpactType",
			err:  ErrUnknownImpactType,
			want: "unknown impact type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err == nil {
				t.Fatalf("sentinel error %s is nil", tt.name)
			}
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("error message = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestErrorError verifies the Error() method formatting.
func TestErrorError(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "basic error",
			err: &Error{
				Op:   "Model.GetFinancialImpacts",
				Kind: KindValidation,
				Err:  ErrInvalidSims,
			},
			want: "sdk: Model.GetFinancialImpacts (validation): simulation count must be positive",
		},
		{
			name: "error with context",
			err: &Error{
				Op:   "Model.GetFinancialImpacts",
				Kind: KindExposure,
				Err:  errors.New("unknown asset"),
				Context: map[string]any{
					"asset_id": "plant-1",
					"currency": "EUR",
				},
			},
			want: "sdk: Model.GetFinancialImpacts (exposure): unknown asset [context:",
		},
		{
			name: "error without underlying error",
			err: &Error{
				Op:   "Model.GetFinancialImpacts",
				Kind: KindValidation,
			},
			want: "sdk: Model.GetFinancialImpacts: validation",
		},
		{
			name: "error with wrapped error",
			err: &Error{
				Op:   "NewModel",
				Kind: KindConfiguration,
				Err:  fmt.Errorf("failed to load config: %w", ErrNoImpactSource),
			},
			want: "sdk: NewModel (configuration): failed to load config: no impact source configured",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.Error()
			if !strings.Contains(got, tt.want) {
				t.Errorf("Error() = %q, want to contain %q", got, tt.want)
			}
		})
	}
}

// TestErrorUnwrap verifies the Unwrap() method.
func TestErrorUnwrap(t *testing.T) {
	underlyingErr := errors.New("underlying error")
	err := &Error{
		Op:   "Test.Operation",
		Kind: KindImpact,
		Err:  underlyingErr,
	}

	unwrapped := err.Unwrap()
	if unwrapped != underlyingErr {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, underlyingErr)
	}

	// Test with nil underlying error
	errNil := &Error{
		Op:   "Test.Operation",
		Kind: KindImpact,
	}
	if unwrapped := errNil.Unwrap(); unwrapped != nil {
		t.Errorf("Unwrap() with nil Err = %v, want nil", unwrapped)
	}
}

// TestErrorIs verifies the Is() method and errors.Is() compatibility.
func TestErrorIs(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{
			name: "matches underlying sentinel error",
			err: &Error{
				Op:   "Model.GetFinancialImpacts",
				Kind: KindValidation,
				Err:  ErrInvalidSims,
			},
			target: ErrInvalidSims,
			want:   true,
		},
		{
			name: "matches wrapped error",
			err: &Error{
				Op:   "Model.GetFinancialImpacts",
				Kind: KindImpact,
				Err:  fmt.Errorf("wrapped: %w", ErrMissingImpact),
			},
			target: ErrMissingImpact,
			want:   true,
		},
		{
			name: "matches Error by kind",
			err: &Error{
				Op:   "Model.GetFinancialImpacts",
				Kind: KindExposure,
				Err:  errors.New("unknown asset"),
			},
			target: &Error{Kind: KindExposure},
			want:   true,
		},
		{
			name: "matches Error by kind and op",
			err: &Error{
				Op:   "Model.GetFinancialImpacts",
				Kind: KindExposure,
				Err:  errors.New("unknown asset"),
			},
			target: &Error{
				Op:   "Model.GetFinancialImpacts",
				Kind: KindExposure,
			},
			want: true,
		},
		{
			name: "does not match different kind",
			err: &Error{
				Op:   "Model.GetFinancialImpacts",
				Kind: KindExposure,
				Err:  errors.New("unknown asset"),
			},
			target: &Error{Kind: KindValidation},
			want:   false,
		},
		{
			name: "does not match different underlying error",
			err: &Error{
				Op:   "Model.GetFinancialImpacts",
				Kind: KindValidation,
				Err:  ErrInvalidSims,
			},
			target: ErrMissingImpact,
			want:   false,
		},
		{
			name: "does not match nil",
			err: &Error{
				Op:   "Model.GetFinancialImpacts",
				Kind: KindValidation,
				Err:  ErrInvalidSims,
			},
			target: nil,
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errors.Is(tt.err, tt.target)
			if got != tt.want {
				t.Errorf("errors.Is() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestErrorAs verifies errors.As() compatibility.
func TestErrorAs(t *testing.T) {
	originalErr := &Error{
		Op:   "Model.GetFinancialImpacts",
		Kind: KindExposure,
		Err:  errors.New("unknown asset"),
		Context: map[string]any{
			"asset_id": "plant-1",
		},
	}

	wrappedErr := fmt.Errorf("outer error: %w", originalErr)

	var engineErr *Error
	if !errors.As(wrappedErr, &engineErr) {
		t.Fatal("errors.As() failed to extract Error")
	}

	if engineErr.Op != originalErr.Op {
		t.Errorf("Op = %q, want %q", engineErr.Op, originalErr.Op)
	}
	if engineErr.Kind != originalErr.Kind {
		t.Errorf("Kind = %q, want %q", engineErr.Kind, originalErr.Kind)
	}
	if engineErr.Context["asset_id"] != "plant-1" {
		t.Errorf("Context[asset_id] = %v, want plant-1", engineErr.Context["asset_id"])
	}
}

// TestErrorWithContext verifies the WithContext() method.
func TestErrorWithContext(t *testing.T) {
	original := &Error{
		Op:   "Model.GetFinancialImpacts",
		Kind: KindExposure,
		Err:  errors.New("unknown asset"),
	}

	// Add context
	withCtx := original.WithContext(map[string]any{
		"asset_id": "plant-1",
		"currency": "EUR",
	})

	// Verify new error has context
	if withCtx.Context["asset_id"] != "plant-1" {
		t.Errorf("Context[asset_id] = %v, want plant-1", withCtx.Context["asset_id"])
	}
	if withCtx.Context["currency"] != "EUR" {
		t.Errorf("Context[currency] = %v, want EUR", withCtx.Context["currency"])
	}

	// Verify original error is unchanged
	if original.Context != nil {
		t.Error("original error Context was modified")
	}

	// Add more context
	withMoreCtx := withCtx.WithContext(map[string]any{
		"sims": 10000,
	})

	// Verify all context is present
	if withMoreCtx.Context["asset_id"] != "plant-1" {
		t.Error("asset_id context was lost")
	}
	if withMoreCtx.Context["sims"] != 10000 {
		t.Error("sims context was not added")
	}
}

// TestNewErrorFunctions verifies all the New*Error() constructor functions.
func TestNewErrorFunctions(t *testing.T) {
	tests := []struct {
		name     string
		fn       func(string, error) *Error
		wantKind string
	}{
		{
			name:     "NewValidationError",
			fn:       NewValidationError,
			wantKind: KindValidation,
		},
		{
			name:     "NewImpactError",
			fn:       NewImpactError,
			wantKind: KindImpact,
		},
		{
			name:     "NewExposureError",
			fn:       NewExposureError,
			wantKind: KindExposure,
		},
		{
			name:     "NewAggregationError",
			fn:       NewAggregationError,
			wantKind: KindAggregation,
		},
		{
			name:     "NewConfigurationError",
			fn:       NewConfigurationError,
			wantKind: KindConfiguration,
		},
		{
			name:     "NewNetworkError",
			fn:       NewNetworkError,
			wantKind: KindNetwork,
		},
		{
			name:     "NewInternalError",
			fn:       NewInternalError,
			wantKind: KindInternal,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			op := "Test.Operation"
			underlyingErr := errors.New("test error")

			err := tt.fn(op, underlyingErr)

			if err.Op != op {
				t.Errorf("Op = %q, want %q", err.Op, op)
			}
			if err.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q", err.Kind, tt.wantKind)
			}
			if !errors.Is(err, underlyingErr) {
				t.Error("underlying error not preserved")
			}
		})
	}
}

// TestErrorKinds verifies all error kind constants are defined.
func TestErrorKinds(t *testing.T) {
	kinds := []struct {
		name  string
		value string
	}{
		{"KindValidation", KindValidation},
		{"KindImpact", KindImpact},
		{"KindExposure", KindExposure},
		{"KindAggregation", KindAggregation},
		{"KindConfiguration", KindConfiguration},
		{"KindNetwork", KindNetwork},
		{"KindInternal", KindInternal},
	}

	for _, k := range kinds {
		t.Run(k.name, func(t *testing.T) {
			if k.value == "" {
				t.Errorf("constant %s is empty", k.name)
			}
		})
	}
}

// TestErrorChaining verifies that error chains work correctly.
func TestErrorChaining(t *testing.T) {
	// Create a chain: baseErr -> wrappedErr -> engineErr -> outerErr
	baseErr := errors.New("base error")
	wrappedErr := fmt.Errorf("wrapped: %w", baseErr)
	engineErr := &Error{
		Op:   "Model.GetFinancialImpacts",
		Kind: KindExposure,
		Err:  wrappedErr,
	}
	outerErr := fmt.Errorf("outer: %w", engineErr)

	// Verify we can find the base error
	if !errors.Is(outerErr, baseErr) {
		t.Error("failed to find base error in chain")
	}

	// Verify we can find the engine error
	var extracted *Error
	if !errors.As(outerErr, &extracted) {
		t.Error("failed to extract engine error from chain")
	}

	if extracted.Op != "Model.GetFinancialImpacts" {
		t.Errorf("extracted engine error has wrong Op: %q", extracted.Op)
	}
}

// BenchmarkErrorCreation benchmarks error creation.
func BenchmarkErrorCreation(b *testing.B) {
	b.Run("basic", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			_ = &Error{
				Op:   "Model.GetFinancialImpacts",
				Kind: KindValidation,
				Err:  ErrInvalidSims,
			}
		}
	})

	b.Run("with_context", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			err := &Error{
				Op:   "Model.GetFinancialImpacts",
				Kind: KindValidation,
				Err:  ErrInvalidSims,
			}
			_ = err.WithContext(map[string]any{
				"asset_id": "plant-1",
			})
		}
	})
}

// BenchmarkErrorError benchmarks the Error() method.
func BenchmarkErrorError(b *testing.B) {
	err := &Error{
		Op:   "Model.GetFinancialImpacts",
		Kind: KindExposure,
		Err:  errors.New("unknown asset"),
		Context: map[string]any{
			"asset_id": "plant-1",
			"currency": "EUR",
		},
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = err.Error()
	}
}

// BenchmarkErrorsIs benchmarks errors.Is() with Error.
func BenchmarkErrorsIs(b *testing.B) {
	err := &Error{
		Op:   "Model.GetFinancialImpacts",
		Kind: KindValidation,
		Err:  ErrInvalidSims,
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = errors.Is(err, ErrInvalidSims)
	}
}
