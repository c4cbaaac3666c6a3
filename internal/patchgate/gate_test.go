package patchgate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePatch = `diff --git a/tests/e2e/login.spec.ts b/tests/e2e/login.spec.ts
--- a/tests/e2e/login.spec.ts
+++ b/tests/e2e/login.spec.ts
@@ -10,7 +10,7 @@
-  await page.click('#login');
+  await page.getByRole('button', { name: 'Log in' }).click();
`

func defaultGate() *Gate {
	return New(200, []string{"tests/**", "e2e/**"})
}

func TestCheckAcceptsAllowListedPatch(t *testing.T) {
	verdict := defaultGate().Check(samplePatch)
	require.True(t, verdict.Accepted, "reasons: %v", verdict.Reasons)
	assert.Equal(t, []string{"tests/e2e/login.spec.ts"}, verdict.TouchedFiles)
}

func TestCheckRejectsEmptyPatch(t *testing.T) {
	for _, patch := range []string{"", "   \n\n  "} {
		verdict := defaultGate().Check(patch)
		require.False(t, verdict.Accepted)
		assert.Contains(t, verdict.Reasons, "patch is empty")
	}
}

func TestCheckRejectsMissingDiffMarkers(t *testing.T) {
	verdict := defaultGate().Check("just some prose\nthat is not a diff\n")
	require.False(t, verdict.Accepted)
	require.Len(t, verdict.Reasons, 1)
	assert.Contains(t, verdict.Reasons[0], "diff markers")
}

func TestCheckRejectsOutsideAllowListRegardlessOfSize(t *testing.T) {
	patch := `--- a/backend/api/handler.go
+++ b/backend/api/handler.go
@@ -1,3 +1,3 @@
-old
+new
`
	verdict := defaultGate().Check(patch)
	require.False(t, verdict.Accepted)
	require.Len(t, verdict.Reasons, 1)
	assert.Contains(t, verdict.Reasons[0], "outside the allow-list")
}

func TestCheckRejectsOversizeRegardlessOfPath(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("--- a/tests/e2e/big.spec.ts\n")
	sb.WriteString("+++ b/tests/e2e/big.spec.ts\n")
	sb.WriteString("@@ -1,300 +1,300 @@\n")
	for i := 0; i < 300; i++ {
		sb.WriteString("+line\n")
	}

	verdict := defaultGate().Check(sb.String())
	require.False(t, verdict.Accepted)
	require.Len(t, verdict.Reasons, 1)
	assert.Contains(t, verdict.Reasons[0], "ceiling")
}

func TestCheckReportsEveryViolation(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("--- a/backend/api/handler.go\n")
	sb.WriteString("+++ b/backend/api/handler.go\n")
	sb.WriteString("@@ -1,300 +1,300 @@\n")
	for i := 0; i < 300; i++ {
		sb.WriteString("+line\n")
	}

	verdict := defaultGate().Check(sb.String())
	require.False(t, verdict.Accepted)
	assert.Len(t, verdict.Reasons, 2, "size and path violations are both reported")
}

func TestTouchedFilesParsing(t *testing.T) {
	patch := `diff --git a/tests/a.spec.ts b/tests/a.spec.ts
--- a/tests/a.spec.ts
+++ b/tests/a.spec.ts
@@ -1 +1 @@
-x
+y
diff --git a/tests/new.spec.ts b/tests/new.spec.ts
--- /dev/null
+++ b/tests/new.spec.ts
@@ -0,0 +1 @@
+created
`
	verdict := defaultGate().Check(patch)
	require.True(t, verdict.Accepted, "reasons: %v", verdict.Reasons)
	assert.Equal(t, []string{"tests/a.spec.ts", "tests/new.spec.ts"}, verdict.TouchedFiles)
}

func TestAllowListPlainPrefixes(t *testing.T) {
	gate := New(200, []string{"tests/"})
	verdict := gate.Check(samplePatch)
	assert.True(t, verdict.Accepted, "plain prefixes match without glob syntax: %v", verdict.Reasons)
}
