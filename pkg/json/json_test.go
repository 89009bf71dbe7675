package json

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeKeepsLargeIntegers(t *testing.T) {
	var v map[string]interface{}
	require.NoError(t, Decode(strings.NewReader(`{"id": 9007199254740993, "score": 4.5, "ok": true}`), &v))

	assert.Equal(t, int64(9007199254740993), Scalar(v["id"]))
	assert.Equal(t, 4.5, Scalar(v["score"]))
	assert.Equal(t, true, Scalar(v["ok"]))
}

func TestWriteLines(t *testing.T) {
	var buf bytes.Buffer
	err := WriteLines(&buf, []interface{}{
		map[string]interface{}{"a": 1, "b": "<x>"},
		map[string]interface{}{"a": 2, "b": nil},
	})
	require.NoError(t, err)
	assert.Equal(t, "{\"a\":1,\"b\":\"<x>\"}\n{\"a\":2,\"b\":null}\n", buf.String())
}

func TestWriteLinesEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteLines(&buf, nil))
	assert.Zero(t, buf.Len())
}

func BenchmarkWriteLines(b *testing.B) {
	values := make([]interface{}, 1000)
	for i := range values {
		values[i] = map[string]interface{}{"id": i, "name": "row", "value": float64(i) * 1.5}
	}
	var buf bytes.Buffer
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		buf.Reset()
		if err := WriteLines(&buf, values); err != nil {
			b.Fatal(err)
		}
	}
	b.ReportMetric(float64(len(values)*b.N), "records/op")
}
