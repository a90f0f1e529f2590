package health

import (
	"errors"
	"testing"
)

func TestSentinelErrors(t *testing.T) {
	all := []error{ErrCheckFailed, ErrCheckTimeout, ErrCheckerNotFound, ErrFlushStale}
	for i, a := range all {
		if a == nil || a.Error() == "" {
			t.Fatalf("sentinel %d is empty", i)
		}
		for j, b := range all {
			if i != j && errors.Is(a, b) {
				t.Errorf("%v matches %v", a, b)
			}
		}
	}
}
