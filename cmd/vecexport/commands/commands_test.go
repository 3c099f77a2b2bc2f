package commands

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/vecexport"
	"github.com/hupe1980/vecexport/index/faiss"
	"github.com/hupe1980/vecexport/testutil"
)

func runCmd(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	var outBuf, errBuf bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&outBuf)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(args)

	err = cmd.ExecuteContext(t.Context())
	return outBuf.String(), errBuf.String(), err
}

// writeDataset writes an index and a metadata file with n professors under
// their default names in dir.
func writeDataset(t *testing.T, dir string, n, dim int) [][]float32 {
	t.Helper()

	rows := testutil.NewRNG(7).UniformVectors(n, dim)

	var buf bytes.Buffer
	require.NoError(t, faiss.WriteFlat(&buf, faiss.MetricL2, dim, rows))
	testutil.WriteFile(t, dir, DefaultIndex, buf.Bytes())
	testutil.WriteFile(t, dir, DefaultMetadata, testutil.Professors(n))

	return rows
}

func readRecord(t *testing.T, path string) vecexport.Record {
	t.Helper()

	b, err := os.ReadFile(path)
	require.NoError(t, err)

	var rec vecexport.Record
	require.NoError(t, json.Unmarshal(b, &rec))
	return rec
}

func TestConvertDefaults(t *testing.T) {
	dir := t.TempDir()
	rows := writeDataset(t, dir, 4, 3)

	stdout, _, err := runCmd(t, "--root", dir, "--log-level", "error")
	require.NoError(t, err)

	assert.Contains(t, stdout, "Exported 4 vectors of dimension 3 (IndexFlatL2)")
	assert.Contains(t, stdout, filepath.Join(dir, DefaultOutput))

	rec := readRecord(t, filepath.Join(dir, DefaultOutput))
	assert.Equal(t, rows, rec.Vectors)
	assert.Equal(t, vecexport.IndexInfo{TotalVectors: 4, VectorDimension: 3, IndexType: "IndexFlatL2"}, rec.IndexInfo)
	assert.JSONEq(t, string(testutil.Professors(4)), string(rec.Metadata))
}

func TestConvertSubcommand(t *testing.T) {
	dir := t.TempDir()
	writeDataset(t, dir, 2, 2)
	out := filepath.Join(dir, "out", "compact.json")

	_, stderr, err := runCmd(t, "convert",
		"--index", filepath.Join(dir, DefaultIndex),
		"--metadata", filepath.Join(dir, DefaultMetadata),
		"--output", out,
		"--indent", "0",
		"--codec", "go-json",
		"--log-format", "json",
	)
	require.NoError(t, err)

	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, 1, bytes.Count(b, []byte("\n")), "compact output has only the trailing newline")
	assert.Contains(t, stderr, `"msg":"conversion completed"`)
}

func TestConvertMissingInput(t *testing.T) {
	dir := t.TempDir()

	_, stderr, err := runCmd(t, "convert", "--root", dir)
	require.Error(t, err)

	assert.True(t, errors.Is(err, vecexport.ErrMissingInputFile))
	assert.Contains(t, stderr, "Place the file at "+filepath.Join(dir, DefaultIndex))
	assert.NoFileExists(t, filepath.Join(dir, DefaultOutput))
}

func TestConvertStrict(t *testing.T) {
	dir := t.TempDir()
	writeDataset(t, dir, 3, 2)
	testutil.WriteFile(t, dir, DefaultMetadata, testutil.Professors(2))

	_, _, err := runCmd(t, "--root", dir, "--strict")
	require.Error(t, err)
	assert.Equal(t, vecexport.MetadataMismatch, vecexport.KindOf(err))

	_, _, err = runCmd(t, "--root", dir)
	require.NoError(t, err)
}

func TestInvalidFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"codec", []string{"--codec", "xml"}, "unknown codec"},
		{"log level", []string{"--log-level", "loud"}, "invalid log level"},
		{"log format", []string{"--log-format", "xml"}, "invalid log format"},
		{"compression", []string{"--compression-level", "max"}, "invalid compression level"},
		{"indent", []string{"--indent", "-1"}, "invalid indent"},
		{"positional", []string{"extra"}, "unknown command"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeDataset(t, dir, 1, 1)

			_, _, err := runCmd(t, append([]string{"--root", dir}, tt.args...)...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.NoFileExists(t, filepath.Join(dir, DefaultOutput))
		})
	}
}

func TestBatch(t *testing.T) {
	dir := t.TempDir()
	writeDataset(t, dir, 3, 4)

	jobs := testutil.WriteFile(t, dir, "jobs.yaml", []byte(`parallelism: 2
jobs:
  - name: first
    index: professor_index.faiss
    metadata: professor_metadata.json
    output: out/first.json
  - name: second
    index: professor_index.faiss
    metadata: professor_metadata.json
    output: out/second.json.gz
`))

	stdout, _, err := runCmd(t, "batch", "-f", jobs, "--root", dir, "--log-level", "warn")
	require.NoError(t, err)

	assert.Contains(t, stdout, "ok    first: 3 vectors of dimension 4")
	assert.Contains(t, stdout, "ok    second: 3 vectors of dimension 4")
	assert.Contains(t, stdout, "Completed 2 jobs, 0 failed")
	assert.FileExists(t, filepath.Join(dir, "out", "first.json"))
	assert.FileExists(t, filepath.Join(dir, "out", "second.json.gz"))
}

func TestBatchPartialFailure(t *testing.T) {
	dir := t.TempDir()
	writeDataset(t, dir, 2, 2)

	jobs := testutil.WriteFile(t, dir, "jobs.yaml", []byte(`jobs:
  - name: good
    index: professor_index.faiss
    metadata: professor_metadata.json
    output: good.json
  - name: bad
    index: missing.faiss
    metadata: professor_metadata.json
    output: bad.json
`))

	stdout, stderr, err := runCmd(t, "batch", "-f", jobs, "--root", dir, "--parallelism", "1")
	require.Error(t, err)

	assert.Equal(t, "1 of 2 jobs failed", err.Error())
	assert.Contains(t, stdout, "ok    good")
	assert.Contains(t, stdout, "FAIL  bad")
	assert.Contains(t, stderr, "Place the file at "+filepath.Join(dir, "missing.faiss"))
	assert.FileExists(t, filepath.Join(dir, "good.json"))
	assert.NoFileExists(t, filepath.Join(dir, "bad.json"))
}

func TestBatchJobFileErrors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"empty", "", "is empty"},
		{"no jobs", "parallelism: 2\n", "lists no jobs"},
		{"unknown field", "jobs:\n  - index: a.faiss\n    metadata: a.json\n    ouput: a.out\n", "ouput"},
		{"duplicate output", "jobs:\n  - {index: a, metadata: b, output: o.json}\n  - {index: c, metadata: d, output: o.json}\n", "duplicate output"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := testutil.WriteFile(t, dir, strings.ReplaceAll(tt.name, " ", "_")+".yaml", []byte(tt.content))

			_, _, err := runCmd(t, "batch", "-f", path)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}

	t.Run("no file flag", func(t *testing.T) {
		_, _, err := runCmd(t, "batch")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "-f")
	})
}

func TestInspect(t *testing.T) {
	dir := t.TempDir()
	writeDataset(t, dir, 5, 6)

	stdout, _, err := runCmd(t, "inspect", "--root", dir, DefaultIndex)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Type:      IndexFlatL2")
	assert.Contains(t, stdout, "Vectors:   5")
	assert.Contains(t, stdout, "Dimension: 6")

	stdout, _, err = runCmd(t, "inspect", "--json", filepath.Join(dir, DefaultIndex))
	require.NoError(t, err)
	assert.JSONEq(t, `{"total_vectors": 5, "vector_dimension": 6, "index_type": "IndexFlatL2"}`, stdout)

	_, _, err = runCmd(t, "inspect")
	require.Error(t, err)
}

func TestInspectObjectStoreWithoutEndpoint(t *testing.T) {
	t.Setenv("MINIO_ENDPOINT", "")

	_, _, err := runCmd(t, "inspect", "minio://bucket/index.faiss")
	require.Error(t, err)
	assert.Equal(t, vecexport.IndexLoadError, vecexport.KindOf(err))
	assert.Contains(t, err.Error(), "endpoint is required")
}

func TestResolve(t *testing.T) {
	g := &globalFlags{root: "/data"}

	tests := []struct {
		in, want string
	}{
		{"index.faiss", filepath.Join("/data", "index.faiss")},
		{"sub/meta.json", filepath.Join("/data", "sub", "meta.json")},
		{"/abs/index.faiss", "/abs/index.faiss"},
		{"s3://bucket/index.faiss", "s3://bucket/index.faiss"},
		{"file://rel.json", filepath.Join("/data", "rel.json")},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, g.resolve(tt.in), tt.in)
	}

	assert.Equal(t, "index.faiss", (&globalFlags{}).resolve("index.faiss"))
}
