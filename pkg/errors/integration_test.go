package errors_test

import (
	"errors"
	"fmt"
	"testing"

	gbdterrors "github.com/flowforge/gbdt/pkg/errors"
)

func TestErrorWrappingCompatibility(t *testing.T) {
	originalErr := gbdterrors.NewInvariantError("Learner.Train", "called before Init")
	wrappedErr := fmt.Errorf("boosting iteration failed: %w", originalErr)

	if !errors.Is(wrappedErr, originalErr) {
		t.Errorf("errors.Is failed to identify wrapped error")
	}

	var invErr *gbdterrors.InvariantError
	if !errors.As(wrappedErr, &invErr) {
		t.Errorf("errors.As failed to extract InvariantError")
	}

	if invErr.Where != "Learner.Train" {
		t.Errorf("expected Where 'Learner.Train', got %q", invErr.Where)
	}
}

func TestErrorChainTraversal(t *testing.T) {
	level3 := fmt.Errorf("socket connect timed out")
	level2 := fmt.Errorf("rank 4 unreachable: %w", level3)
	level1 := fmt.Errorf("linker construction failed: %w", level2)

	unwrapped1 := errors.Unwrap(level1)
	if unwrapped1.Error() != level2.Error() {
		t.Errorf("first unwrap failed")
	}

	unwrapped2 := errors.Unwrap(unwrapped1)
	if unwrapped2.Error() != level3.Error() {
		t.Errorf("second unwrap failed")
	}

	if !errors.Is(level1, level3) {
		t.Errorf("errors.Is failed to find root cause")
	}
}

func TestCombinedErrorTypes(t *testing.T) {
	stdErr := fmt.Errorf("standard error")
	customErr := gbdterrors.NewModelError("FindBestThreshold", "scan failed", stdErr)
	wrappedErr := fmt.Errorf("operation context: %w", customErr)

	if !errors.Is(wrappedErr, stdErr) {
		t.Errorf("failed to find standard error in chain")
	}

	var modelErr *gbdterrors.ModelError
	if !errors.As(wrappedErr, &modelErr) {
		t.Errorf("failed to extract ModelError")
	}

	if modelErr.Unwrap() != stdErr {
		t.Errorf("ModelError.Unwrap() didn't return expected error")
	}
}

func TestSentinelErrors(t *testing.T) {
	err := gbdterrors.NewModelError("FindBestThreshold", "no data", gbdterrors.ErrEmptyData)

	if !errors.Is(err, gbdterrors.ErrEmptyData) {
		t.Errorf("failed to identify ErrEmptyData sentinel")
	}

	wrappedErr := fmt.Errorf("histogram construction failed: %w", err)

	if !errors.Is(wrappedErr, gbdterrors.ErrEmptyData) {
		t.Errorf("failed to identify ErrEmptyData through wrapper")
	}
}

func TestNetworkErrorNamesRank(t *testing.T) {
	err := gbdterrors.NewNetworkError(7, "connect retries exhausted", fmt.Errorf("dial tcp: timeout"))
	if err.Rank != 7 {
		t.Errorf("expected rank 7, got %d", err.Rank)
	}
	if errors.Unwrap(err) == nil {
		t.Errorf("expected wrapped cause")
	}
}

func TestIOErrorReportsStep(t *testing.T) {
	err := gbdterrors.NewIOError("ReadHeader", "size mismatch", nil)
	want := "gbdt: io: ReadHeader: size mismatch"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}
