//go:build !irguard_release

package scenario

import (
	"testing"
)

func TestParallelMutationGolden(t *testing.T) {
	runGolden(t, "parallel_mutation.yaml")
}
