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
	"bytes"
	"testing"
)

func TestEmitJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := EmitJSON(&buf, map[string]int{"total_steps": 3}); err != nil {
		t.Fatalf("EmitJSON: %v", err)
	}
	want := "{\n  \"total_steps\": 3\n}\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestEmitJSONError_OmitsEmptySuggestion(t *testing.T) {
	var buf bytes.Buffer
	err := EmitJSONError(&buf, "status", []JSONError{{Code: "failure", Message: "boom"}})
	if err != nil {
		t.Fatalf("EmitJSONError: %v", err)
	}
	if bytes.Contains(buf.Bytes(), []byte("suggestion")) {
		t.Errorf("empty suggestion should be omitted: %s", buf.String())
	}
	if !bytes.Contains(buf.Bytes(), []byte(`"success": false`)) {
		t.Errorf("expected success=false: %s", buf.String())
	}
}
