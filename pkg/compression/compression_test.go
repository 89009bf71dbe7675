package compression

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	data := bytes.Repeat([]byte("id,name\n1,widget\n"), 200)

	for _, a := range []Algorithm{None, Gzip, LZ4, Zstd} {
		t.Run(string(a), func(t *testing.T) {
			compressed, err := Compress(a, data)
			require.NoError(t, err)
			if a != None {
				assert.Less(t, len(compressed), len(data))
			}

			out, err := Decompress(a, compressed)
			require.NoError(t, err)
			assert.Equal(t, data, out)
		})
	}
}

func TestParse(t *testing.T) {
	tests := map[string]Algorithm{"": None, "none": None, "GZIP": Gzip, " lz4 ": LZ4, "zstd": Zstd}
	for in, want := range tests {
		got, err := Parse(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}

	_, err := Parse("brotli")
	assert.Error(t, err)
}

func TestExtension(t *testing.T) {
	assert.Equal(t, ".gz", Gzip.Extension())
	assert.Equal(t, ".zst", Zstd.Extension())
	assert.Equal(t, "", None.Extension())
}

func TestDecompressGarbage(t *testing.T) {
	_, err := Decompress(Gzip, []byte("not gzip"))
	assert.Error(t, err)
}
