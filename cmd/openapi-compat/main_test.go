package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseYAML = `
basePath: /api
paths:
  /posts/:
    get:
      responses:
        "200": {}
    post:
      responses:
        "201": {}
        "400": {}
  /posts/{id}/:
    delete:
      responses:
        "204": {}
        "403": {}
`

func writeSpec(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestCompare(t *testing.T) {
	base, err := parseSpec([]byte(baseYAML))
	require.NoError(t, err)

	tests := []struct {
		name     string
		revision string
		want     []string
	}{
		{
			name:     "Identical",
			revision: baseYAML,
			want:     nil,
		},
		{
			name: "Removed Response And Path",
			revision: `
basePath: /api
paths:
  /posts/:
    get:
      responses:
        "200": {}
    post:
      responses:
        "201": {}
`,
			want: []string{
				"removed path: /posts/{id}/",
				"removed response code: POST /posts/ -> 400",
			},
		},
		{
			name: "Removed Method And Moved Base",
			revision: `
basePath: /v2
paths:
  /posts/:
    get:
      responses:
        "200": {}
  /posts/{id}/:
    delete:
      responses:
        "204": {}
        "403": {}
`,
			want: []string{
				`changed basePath: "/api" -> "/v2"`,
				"removed operation: POST /posts/",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rev, err := parseSpec([]byte(tt.revision))
			require.NoError(t, err)
			assert.Equal(t, tt.want, compare(base, rev))
		})
	}
}

func TestParseSpec_Errors(t *testing.T) {
	_, err := parseSpec([]byte("basePath: /api\n"))
	assert.EqualError(t, err, "missing top-level paths field")

	_, err = parseSpec([]byte("paths: [1, 2]\n"))
	assert.EqualError(t, err, "paths is not an object")
}

func TestMissingContract(t *testing.T) {
	spec, err := parseSpec([]byte(baseYAML))
	require.NoError(t, err)

	issues := missingContract(spec, []string{"GET /posts/", "PATCH /posts/{id}/", "GET /session/"})
	assert.Equal(t, []string{
		"missing contract operation: PATCH /posts/{id}/",
		"missing contract operation: GET /session/",
	}, issues)
}

func TestRun_GeneratedDocsSatisfyContract(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run([]string{"-revision", filepath.Join("..", "..", "docs", "swagger.yaml")}, &stdout, &stderr)
	assert.Equal(t, 0, code, stderr.String())
	assert.Contains(t, stdout.String(), "passed")
}

func TestRun_ReportsBreakingChanges(t *testing.T) {
	base := writeSpec(t, "base.yaml", baseYAML)
	rev := writeSpec(t, "rev.yaml", "basePath: /api\npaths:\n  /posts/:\n    get:\n      responses:\n        \"200\": {}\n")

	var stdout, stderr bytes.Buffer
	code := run([]string{"-base", base, "-revision", rev, "-contract=false"}, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "removed operation: POST /posts/")
	assert.Contains(t, stderr.String(), "removed path: /posts/{id}/")
	assert.Empty(t, stdout.String())
}

func TestRun_Usage(t *testing.T) {
	var stdout, stderr bytes.Buffer
	assert.Equal(t, 2, run(nil, &stdout, &stderr))
	assert.Contains(t, stderr.String(), "usage")
}
