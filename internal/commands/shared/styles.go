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
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/mcp-adapters/tracker/internal/progress"
)

// CLI style colors using lipgloss
var (
	// StatusOK styles success indicators
	StatusOK = lipgloss.NewStyle().Foreground(lipgloss.Color("42")) // green

	// StatusWarn styles warning indicators
	StatusWarn = lipgloss.NewStyle().Foreground(lipgloss.Color("214")) // orange

	// StatusError styles error indicators
	StatusError = lipgloss.NewStyle().Foreground(lipgloss.Color("196")) // red

	// StatusInfo styles informational text
	StatusInfo = lipgloss.NewStyle().Foreground(lipgloss.Color("39")) // blue

	// Muted styles secondary/less important text
	Muted = lipgloss.NewStyle().Foreground(lipgloss.Color("245")) // gray

	// Bold styles emphasized text
	Bold = lipgloss.NewStyle().Bold(true)

	// Header styles section headers
	Header = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")) // blue bold
)

// Symbols for status indicators
const (
	SymbolOK      = "✓"
	SymbolWarn    = "⚠"
	SymbolError   = "✗"
	SymbolInfo    = "•"
	SymbolPending = "○"
)

var titleCaser = cases.Title(language.English)

// render applies style only when stdout is a terminal.
func render(style lipgloss.Style, s string) string {
	if !IsTTY() {
		return s
	}
	return style.Render(s)
}

// RenderOK renders a success message with green checkmark
func RenderOK(msg string) string {
	return render(StatusOK, SymbolOK) + " " + msg
}

// RenderWarn renders a warning message with orange symbol
func RenderWarn(msg string) string {
	return render(StatusWarn, SymbolWarn) + " " + msg
}

// RenderError renders an error message with red X
func RenderError(msg string) string {
	return render(StatusError, SymbolError) + " " + msg
}

// RenderLabel renders a dim label (for key: value pairs)
func RenderLabel(label string) string {
	return render(Muted, label)
}

// RenderHeader renders a section header.
func RenderHeader(s string) string {
	return render(Header, s)
}

// StatusLabel turns a status value into display text: "in_progress" becomes "In Progress".
func StatusLabel(status string) string {
	return titleCaser.String(strings.ReplaceAll(status, "_", " "))
}

// RenderStepStatus renders a step status with its symbol and color.
func RenderStepStatus(status progress.StepStatus) string {
	label := StatusLabel(string(status))
	switch status {
	case progress.StatusCompleted:
		return render(StatusOK, SymbolOK+" "+label)
	case progress.StatusFailed:
		return render(StatusError, SymbolError+" "+label)
	case progress.StatusInProgress:
		return render(StatusInfo, SymbolInfo+" "+label)
	default:
		return render(Muted, SymbolPending+" "+label)
	}
}

// RenderPlanStatus renders the plan-level status.
func RenderPlanStatus(status progress.PlanStatus) string {
	if status == progress.PlanComplete {
		return render(StatusOK, StatusLabel(string(status)))
	}
	return render(StatusInfo, StatusLabel(string(status)))
}

// ProgressBar renders a fixed-width bar for percentage (0-100).
func ProgressBar(percentage float64, width int) string {
	if width <= 0 {
		width = 20
	}
	filled := int(percentage / 100 * float64(width))
	filled = max(0, min(width, filled))

	bar := render(StatusOK, strings.Repeat("█", filled)) + render(Muted, strings.Repeat("░", width-filled))
	return fmt.Sprintf("%s %5.1f%%", bar, percentage)
}
