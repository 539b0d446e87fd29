package repairerr

import (
	"errors"
	"testing"
)

func assertTrue(t *testing.T, cond bool, msg string) {
	t.Helper()
	if !cond {
		t.Fatalf("expected true: %s", msg)
	}
}

func TestFatalClassification(t *testing.T) {
	assertTrue(t, SourceUnavailable.Fatal(), "SourceUnavailable must be fatal")
	assertTrue(t, ConfigurationInvalid.Fatal(), "ConfigurationInvalid must be fatal")
	assertTrue(t, InternalInvariant.Fatal(), "InternalInvariant must be fatal")
	assertTrue(t, !OracleUnavailable.Fatal(), "OracleUnavailable must not be fatal")
	assertTrue(t, !EvaluationTimeout.Fatal(), "EvaluationTimeout must not be fatal")
	assertTrue(t, !NoRepairFound.Fatal(), "NoRepairFound must not be fatal")
}

func TestWrapAndUnwrap(t *testing.T) {
	cause := errors.New("build failed")
	err := Wrap(OracleUnavailable, cause, "oracle crashed").WithLocation("main.src", 12)

	if !Is(err, OracleUnavailable) {
		t.Fatalf("Is() did not recognize wrapped kind")
	}
	if errors.Unwrap(err) != cause {
		t.Fatalf("Unwrap() did not return the original cause")
	}
	if err.Error() == "" {
		t.Fatalf("Error() returned empty string")
	}
}

func TestWithSID(t *testing.T) {
	err := New(InternalInvariant, "unknown sid").WithSID(42)
	if !err.Location.HasSID || err.Location.SID != 42 {
		t.Fatalf("WithSID did not attach sid correctly: %+v", err.Location)
	}
}
