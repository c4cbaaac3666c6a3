package contextprep

import "regexp"

// specPathPattern matches Playwright spec file paths in test-runner output.
var specPathPattern = regexp.MustCompile(`[\w@./-]*[\w-]+\.spec\.(?:tsx|mjs|ts|js)`)

// ExtractSpecPaths returns up to limit distinct spec paths from log content,
// in order of first appearance. The cap bounds classifier payload size and
// rerun scope.
func ExtractSpecPaths(content string, limit int) []string {
	if limit <= 0 || content == "" {
		return nil
	}

	seen := make(map[string]struct{})
	paths := make([]string, 0, limit)
	for _, match := range specPathPattern.FindAllString(content, -1) {
		if _, ok := seen[match]; ok {
			continue
		}
		seen[match] = struct{}{}
		paths = append(paths, match)
		if len(paths) >= limit {
			break
		}
	}
	return paths
}
