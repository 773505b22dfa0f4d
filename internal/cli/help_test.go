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

package cli

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHelpTestRoot() *cobra.Command {
	root := NewRootCommand()

	sample := &cobra.Command{
		Use:     "sample",
		Short:   "Sample subcommand",
		Long:    "This is a sample subcommand for testing",
		Example: "  tracker sample --flag value",
		RunE:    func(*cobra.Command, []string) error { return nil },
	}
	sample.Flags().String("flag", "", "A sample flag")
	sample.AddCommand(&cobra.Command{Use: "child", Short: "Child", RunE: func(*cobra.Command, []string) error { return nil }})
	root.AddCommand(sample)

	return root
}

func TestHelpCommandJSON_AllCommands(t *testing.T) {
	root := newHelpTestRoot()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs([]string{"help", "--json"})

	require.NoError(t, root.Execute())

	var resp HelpResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp), buf.String())
	assert.True(t, resp.Success)
	assert.Equal(t, "help", resp.Command)

	var names []string
	for _, c := range resp.Commands {
		names = append(names, c.Name)
	}
	assert.Contains(t, names, "sample")

	var globals []string
	for _, f := range resp.GlobalFlags {
		globals = append(globals, f.Name)
	}
	assert.Contains(t, globals, "state-dir")
}

func TestHelpCommandJSON_SingleCommand(t *testing.T) {
	root := newHelpTestRoot()
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetArgs([]string{"help", "sample", "--json"})

	require.NoError(t, root.Execute())

	var resp HelpResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp), buf.String())
	require.NotNil(t, resp.Command)
	assert.Equal(t, "sample", resp.Command.Name)
	assert.Equal(t, []string{"child"}, resp.Command.Subcommands)
	require.Len(t, resp.Command.Flags, 1)
	assert.Equal(t, "flag", resp.Command.Flags[0].Name)
	assert.Equal(t, "string", resp.Command.Flags[0].Type)
}

func TestHelpCommand_UnknownCommand(t *testing.T) {
	root := newHelpTestRoot()
	root.SetOut(new(bytes.Buffer))
	root.SetArgs([]string{"help", "nope", "--json"})

	err := root.Execute()
	assert.Error(t, err)
}
