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
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// ParseObject decodes a JSON object given inline or, when raw starts with
// '@', read from the named file.
func ParseObject(raw string) (map[string]any, error) {
	if raw == "" {
		return nil, nil
	}

	data := []byte(raw)
	if strings.HasPrefix(raw, "@") {
		var err error
		data, err = os.ReadFile(strings.TrimPrefix(raw, "@"))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", strings.TrimPrefix(raw, "@"), err)
		}
	}

	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("expected a JSON object: %w", err)
	}
	return out, nil
}

// MergePairs adds key=value pairs into obj, creating it if needed. Values
// that are JSON number, boolean or null literals keep their type, numbers
// as json.Number so they are written back exactly as given; everything else
// is a string.
func MergePairs(obj map[string]any, pairs map[string]string) map[string]any {
	if len(pairs) == 0 {
		return obj
	}
	if obj == nil {
		obj = make(map[string]any, len(pairs))
	}
	for k, v := range pairs {
		obj[k] = scalar(v)
	}
	return obj
}

func scalar(s string) any {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return s
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return s
	}

	switch v.(type) {
	case json.Number, bool, nil:
		return v
	default:
		return s
	}
}
