package compress

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromName(t *testing.T) {
	tests := map[string]Format{
		"vectors.json":       None,
		"vectors.json.gz":    Gzip,
		"vectors.json.ZST":   Zstd,
		"index.faiss.zstd":   Zstd,
		"vectors.json.lz4":   LZ4,
		"s3://b/out.json.gz": Gzip,
		"double.gz.zst":      Zstd,
		"noext":              None,
	}
	for name, want := range tests {
		assert.Equal(t, want, FromName(name), name)
	}
}

func TestRoundTrip(t *testing.T) {
	payload := bytes.Repeat([]byte(`{"vectors":[[1,2,3],[4,5,6]],"metadata":{"名前":"教授"}}`), 64)

	for _, f := range []Format{None, Gzip, Zstd, LZ4} {
		for _, lvl := range []Level{LevelDefault, LevelFastest, LevelBest} {
			t.Run(f.String(), func(t *testing.T) {
				var buf bytes.Buffer
				w, err := NewWriter(&buf, f, lvl)
				require.NoError(t, err)
				_, err = w.Write(payload)
				require.NoError(t, err)
				require.NoError(t, w.Close())

				assert.Equal(t, f, Detect(buf.Bytes()))

				r, got, err := NewReader(&buf)
				require.NoError(t, err)
				defer r.Close()
				assert.Equal(t, f, got)

				out, err := io.ReadAll(r)
				require.NoError(t, err)
				assert.Equal(t, payload, out)
			})
		}
	}
}

func TestNewReader_ShortInput(t *testing.T) {
	r, f, err := NewReader(bytes.NewReader([]byte("{}")))
	require.NoError(t, err)
	assert.Equal(t, None, f)

	out, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(out))
}

func TestNewReader_GzipLookalike(t *testing.T) {
	tests := map[string][]byte{
		"no deflate method": {0x1f, 0x8b, 0x00, 0x00, 1, 2, 3, 4},
		"reserved flags":    {0x1f, 0x8b, 0x08, 0xe0, 1, 2, 3, 4},
		"two bytes":         {0x1f, 0x8b},
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, None, Detect(data))

			r, f, err := NewReader(bytes.NewReader(data))
			require.NoError(t, err)
			assert.Equal(t, None, f)

			out, err := io.ReadAll(r)
			require.NoError(t, err)
			assert.Equal(t, data, out)
		})
	}
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("best")
	require.NoError(t, err)
	assert.Equal(t, LevelBest, lvl)

	lvl, err = ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, LevelDefault, lvl)

	_, err = ParseLevel("turbo")
	assert.Error(t, err)
}

func TestFormatExt(t *testing.T) {
	assert.Equal(t, ".gz", Gzip.Ext())
	assert.Equal(t, ".zst", Zstd.Ext())
	assert.Equal(t, ".lz4", LZ4.Ext())
	assert.Equal(t, "", None.Ext())
}
