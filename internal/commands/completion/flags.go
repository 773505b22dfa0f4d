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

package completion

import (
	"github.com/spf13/cobra"
)

// CompleteStepStatus provides completion for the step update --status flag.
func CompleteStepStatus(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return SafeCompletionWrapper(func() ([]string, cobra.ShellCompDirective) {
		return []string{
			"in_progress\tStep has started",
			"completed\tStep finished successfully",
			"failed\tStep failed with an error",
		}, cobra.ShellCompDirectiveNoFileComp
	})
}

// CompleteBackends provides completion for --backend.
func CompleteBackends(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return SafeCompletionWrapper(func() ([]string, cobra.ShellCompDirective) {
		return []string{
			"file\tOne JSON or YAML document per task",
			"sqlite\tSingle SQLite database",
			"memory\tIn-process only, lost on exit",
		}, cobra.ShellCompDirectiveNoFileComp
	})
}

// CompleteTransports provides completion for mcp-server --transport.
func CompleteTransports(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return SafeCompletionWrapper(func() ([]string, cobra.ShellCompDirective) {
		return []string{
			"stdio\tServe over stdin and stdout",
			"sse\tServe over HTTP with server-sent events",
		}, cobra.ShellCompDirectiveNoFileComp
	})
}

// CompleteClients provides completion for mcp-config --client.
func CompleteClients(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return SafeCompletionWrapper(func() ([]string, cobra.ShellCompDirective) {
		return []string{
			"claude-desktop\tclaude_desktop_config.json",
			"cursor\t.cursor/mcp.json",
			"vscode\t.vscode/mcp.json",
		}, cobra.ShellCompDirectiveNoFileComp
	})
}
