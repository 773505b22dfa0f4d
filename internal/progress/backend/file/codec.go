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

package file

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/mcp-adapters/tracker/internal/progress"
)

// Format is the on-disk document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

type codec interface {
	ext() string
	encode(*progress.TaskPlan) ([]byte, error)
	decode([]byte) (*progress.TaskPlan, error)
}

func codecFor(f Format) (codec, error) {
	switch f {
	case FormatJSON, "":
		return jsonCodec{}, nil
	case FormatYAML, "yml":
		return yamlCodec{}, nil
	default:
		return nil, fmt.Errorf("unsupported plan format %q (must be json or yaml)", f)
	}
}

type jsonCodec struct{}

func (jsonCodec) ext() string { return ".json" }

func (jsonCodec) encode(plan *progress.TaskPlan) ([]byte, error) {
	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

func (jsonCodec) decode(data []byte) (*progress.TaskPlan, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("empty document")
	}
	var plan progress.TaskPlan
	if err := json.Unmarshal(data, &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

type yamlCodec struct{}

func (yamlCodec) ext() string { return ".yaml" }

func (yamlCodec) encode(plan *progress.TaskPlan) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(plan); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (yamlCodec) decode(data []byte) (*progress.TaskPlan, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("empty document")
	}
	var plan progress.TaskPlan
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return nil, err
	}
	return &plan, nil
}
