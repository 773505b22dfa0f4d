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

/*
Package cli provides the root command and shared configuration for the tracker CLI.

This package creates the main Cobra command tree and handles global concerns like
version information, persistent flags, and error handling. Individual commands
are implemented in the internal/commands subpackages.

# Command Tree

	tracker
	├── plan          Create, show and list plans
	├── step          Report step transitions, show the next step
	├── status        Progress summary (optionally filtered with jq)
	├── checkpoint    Save and restore recovery data
	├── resume        Everything needed to continue a task
	├── watch         Follow a plan as other processes update it
	├── mcp-server    Serve the tracker over MCP
	├── mcp-config    Print client configuration for the MCP server
	├── version       Show version
	└── help          Show help

# Global Flags

	--verbose, -v   debug logging
	--quiet, -q     suppress non-error output
	--json          machine-readable output
	--config        config file path
	--state-dir     plan directory override
	--backend       file, sqlite or memory

# Exit Codes

	0  success
	1  operational failure (storage, I/O)
	2  invalid input or rejected transition
	3  plan or checkpoint not found
*/
package cli
