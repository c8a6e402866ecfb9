package errors_test

import (
	"errors"
	"fmt"

	gbdterrors "github.com/flowforge/gbdt/pkg/errors"
)

// Example demonstrates Go 1.13+ error wrapping.
func Example() {
	baseErr := fmt.Errorf("invalid gradient vector length")
	wrappedErr := fmt.Errorf("learner init failed: %w", baseErr)
	opErr := fmt.Errorf("Learner.Train: %w", wrappedErr)

	if errors.Is(opErr, baseErr) {
		fmt.Println("Found base error in chain")
	}

	unwrapped := errors.Unwrap(opErr)
	fmt.Printf("Unwrapped: %v\n", unwrapped)

	// Output: Found base error in chain
	// Unwrapped: learner init failed: invalid gradient vector length
}

// Example_configError demonstrates the typed config-error path.
func Example_configError() {
	cfgErr := gbdterrors.NewConfigError("num_leaves", 1, "must be >= 2")
	wrappedErr := fmt.Errorf("tree learner construction failed: %w", cfgErr)

	var asConfigErr *gbdterrors.ConfigError
	if errors.As(wrappedErr, &asConfigErr) {
		fmt.Printf("Config error on field %s: %s\n", asConfigErr.Field, asConfigErr.Reason)
	}

	// Output: Config error on field num_leaves: must be >= 2
}

// Example_errorComparison demonstrates error comparison patterns.
func Example_errorComparison() {
	invErr := gbdterrors.NewInvariantError("Learner.Train", "called before Init")
	netErr := gbdterrors.NewNetworkError(3, "unreachable after retries", nil)

	customErr := errors.New("custom processing error")
	wrappedCustom := fmt.Errorf("operation failed: %w", customErr)

	if errors.Is(wrappedCustom, customErr) {
		fmt.Println("Custom error detected")
	}

	var asInv *gbdterrors.InvariantError
	if errors.As(invErr, &asInv) {
		fmt.Printf("Invariant violated in %s: %s\n", asInv.Where, asInv.Reason)
	}

	var asNet *gbdterrors.NetworkError
	if errors.As(netErr, &asNet) {
		fmt.Printf("Network error for rank %d: %s\n", asNet.Rank, asNet.Reason)
	}

	// Output: Custom error detected
	// Invariant violated in Learner.Train: called before Init
	// Network error for rank 3: unreachable after retries
}

// Example_errorChaining demonstrates practical error chaining in the learner.
func Example_errorChaining() {
	simulateErr := func() error {
		dataErr := fmt.Errorf("dataset header magic mismatch")
		ioErr := fmt.Errorf("binary dataset load failed: %w", dataErr)
		trainErr := fmt.Errorf("tree learner init failed: %w", ioErr)
		return trainErr
	}

	err := simulateErr()
	fmt.Printf("Error: %v\n", err)

	current := err
	level := 0
	for current != nil {
		fmt.Printf("Level %d: %v\n", level, current)
		current = errors.Unwrap(current)
		level++
	}

	// Output: Error: tree learner init failed: binary dataset load failed: dataset header magic mismatch
	// Level 0: tree learner init failed: binary dataset load failed: dataset header magic mismatch
	// Level 1: binary dataset load failed: dataset header magic mismatch
	// Level 2: dataset header magic mismatch
}

// Example_errorLogging demonstrates wrapping a sentinel error with operation context.
func Example_errorLogging() {
	baseErr := gbdterrors.NewModelError("FindBestThreshold", "no admissible split",
		gbdterrors.ErrNotImplemented)
	opErr := fmt.Errorf("split search iteration 150: %w", baseErr)

	fmt.Printf("Error occurred during split search: %v\n", opErr)

	// Output: Error occurred during split search: split search iteration 150: gbdt: FindBestThreshold: no admissible split: not implemented
}
