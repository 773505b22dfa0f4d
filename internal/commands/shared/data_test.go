// Copyright 2025 Tom Barlow
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package shared

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseObject(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		obj, err := ParseObject("")
		require.NoError(t, err)
		assert.Nil(t, obj)
	})

	t.Run("inline", func(t *testing.T) {
		obj, err := ParseObject(`{"offset": 42, "cursor": "abc"}`)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"offset": float64(42), "cursor": "abc"}, obj)
	})

	t.Run("from file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "checkpoint.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"page": 3}`), 0600))

		obj, err := ParseObject("@" + path)
		require.NoError(t, err)
		assert.Equal(t, map[string]any{"page": float64(3)}, obj)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := ParseObject("@" + filepath.Join(t.TempDir(), "nope.json"))
		assert.ErrorContains(t, err, "failed to read")
	})

	t.Run("not an object", func(t *testing.T) {
		_, err := ParseObject(`[1, 2]`)
		assert.ErrorContains(t, err, "expected a JSON object")
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := ParseObject(`{"a":`)
		assert.Error(t, err)
	})
}

func TestMergePairs(t *testing.T) {
	assert.Nil(t, MergePairs(nil, nil))

	got := MergePairs(nil, map[string]string{
		"count":  "12",
		"ratio":  "0.5",
		"done":   "true",
		"retry":  "false",
		"cursor": "null",
		"region": "eu-west-1",
	})
	assert.Equal(t, map[string]any{
		"count":  json.Number("12"),
		"ratio":  json.Number("0.5"),
		"done":   true,
		"retry":  false,
		"cursor": nil,
		"region": "eu-west-1",
	}, got)

	base := map[string]any{"page": float64(1), "keep": "yes"}
	merged := MergePairs(base, map[string]string{"page": "2"})
	assert.Equal(t, json.Number("2"), merged["page"])
	assert.Equal(t, "yes", merged["keep"])
}

func TestMergePairs_KeepsValuesAsWritten(t *testing.T) {
	tests := []struct {
		value string
		want  any
	}{
		{"1.10", json.Number("1.10")},
		{"-3e2", json.Number("-3e2")},
		{"inf", "inf"},
		{"+Inf", "+Inf"},
		{"nan", "nan"},
		{"infinity", "infinity"},
		{"0x1p-2", "0x1p-2"},
		{"1_000", "1_000"},
		{"12 13", "12 13"},
		{"True", "True"},
		{`"quoted"`, `"quoted"`},
		{`[1]`, `[1]`},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got := MergePairs(nil, map[string]string{"v": tt.value})
			assert.Equal(t, tt.want, got["v"])

			encoded, err := json.Marshal(got)
			require.NoError(t, err)
			if n, ok := tt.want.(json.Number); ok {
				assert.JSONEq(t, `{"v": `+string(n)+`}`, string(encoded))
				assert.Contains(t, string(encoded), string(n))
			}
		})
	}
}
