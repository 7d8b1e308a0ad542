// Package shared holds helpers used by the templ components.
package shared

import (
	"strings"

	twmerge "github.com/Oudwins/tailwind-merge-go"
)

// Class merges Tailwind class lists; later classes win over conflicting
// earlier ones ("p-2", "p-4" -> "p-4").
func Class(classes ...string) string {
	return twmerge.Merge(strings.Join(classes, " "))
}
