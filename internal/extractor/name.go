package extractor

import (
	"regexp"
	"strings"
)

var (
	datedSuffix = regexp.MustCompile(`(?i)\s*\d+\.\d+\.\d+\.xlsx?$`)
	xlsxSuffix  = regexp.MustCompile(`(?i)\.xlsx?$`)
)

// AgentName derives the agent name from an upload filename:
// "Akmal aka 12.03.2026.xlsx" becomes "Akmal aka".
func AgentName(filename string) string {
	name := datedSuffix.ReplaceAllString(filename, "")
	name = xlsxSuffix.ReplaceAllString(name, "")
	return strings.TrimSpace(name)
}
