package integration_tests

import (
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/arbor/internal/testutil"
)

// TestErrorHandling_InvalidHCLIsRejected verifies that a syntax error in
// an architecture file fails startup, long before any build work happens.
func TestErrorHandling_InvalidHCLIsRejected(t *testing.T) {
	// --- Arrange ---
	// A clear syntax error: the node block is never closed.
	files := map[string]string{
		"main.hcl": `
node "input" "x" {
  shape = [2]
`,
	}

	// --- Act ---
	result := testutil.RunIntegrationTest(t, files)

	// --- Assert ---
	require.Error(t, result.Err, "startup should fail on malformed HCL")
	require.ErrorContains(t, result.Err, "application startup panicked")
	require.ErrorContains(t, result.Err, "failed to parse architecture file")
}

// TestErrorHandling_UnknownNodeType verifies that a node block naming an
// unregistered type fails startup with the offending node in the message.
func TestErrorHandling_UnknownNodeType(t *testing.T) {
	// --- Arrange ---
	files := map[string]string{
		"main.hcl": `
node "sequential" "net" {
  node "convolution" "c" {}
}
`,
	}

	// --- Act ---
	result := testutil.RunIntegrationTest(t, files)

	// --- Assert ---
	require.Error(t, result.Err)
	require.ErrorContains(t, result.Err, "unknown node type")
	require.ErrorContains(t, result.Err, `in node "c"`)
}

// TestErrorHandling_MultipleRoots verifies that an architecture spread
// over files must still contain exactly one top-level node block.
func TestErrorHandling_MultipleRoots(t *testing.T) {
	// --- Arrange ---
	files := map[string]string{
		"a.hcl": `node "identity" "a" {}`,
		"b.hcl": `node "identity" "b" {}`,
	}

	// --- Act ---
	result := testutil.RunIntegrationTest(t, files)

	// --- Assert ---
	require.Error(t, result.Err)
	require.ErrorContains(t, result.Err, "exactly one top-level node block, found 2")
}

// TestErrorHandling_MissingHyperparameterFailsBuild verifies that a value
// no source can provide surfaces as a build failure at run time, not at
// load time: the document itself is well-formed.
func TestErrorHandling_MissingHyperparameterFailsBuild(t *testing.T) {
	// --- Arrange ---
	// linear_mapping needs output_dim, and nothing provides it.
	files := map[string]string{
		"main.hcl": `
node "sequential" "net" {
  node "input" "x" {
    shape = [2]
  }
  node "linear_mapping" "lm" {}
}
`,
	}

	// --- Act ---
	result := testutil.RunIntegrationTest(t, files)

	// --- Assert ---
	require.Error(t, result.Err)
	require.NotNil(t, result.App, "loading must succeed; only the build fails")
	require.ErrorContains(t, result.Err, "failed to build network")
	require.ErrorContains(t, result.Err, "missing hyperparameter")
	require.ErrorContains(t, result.Err, "output_dim")
}
