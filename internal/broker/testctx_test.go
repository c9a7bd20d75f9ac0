package broker

import (
	"context"
	"testing"
)

// testContext stands in for testing.T.Context (Go 1.24+) on older
// toolchains: the context is canceled when the test cleans up.
func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
