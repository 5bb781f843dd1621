package common

import (
	"errors"
	"fmt"
	"testing"
)

func TestWipeByteArray_ZerosBuffer(t *testing.T) {
	buf := []byte("hunter2")
	WipeByteArray(buf)
	for i, v := range buf {
		if v != 0 {
			t.Fatalf("expected buf[%d]==0, got %d", i, v)
		}
	}
}

func TestWipeByteArray_NilSafe(t *testing.T) {
	WipeByteArray(nil)
}

func TestErrValidation_Wrapped(t *testing.T) {
	err := fmt.Errorf("%w: passwords do not match", ErrValidation)
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected wrapped error to match ErrValidation")
	}
}

func TestCredentialKeys_ExcludeDiagnostics(t *testing.T) {
	for _, k := range CredentialKeys {
		if k == KeyErrorQueue || k == KeyBackupHistory {
			t.Fatalf("diagnostic key %q must not be cleared with credentials", k)
		}
	}
}
