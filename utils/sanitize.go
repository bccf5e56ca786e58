package utils

import "github.com/microcosm-cc/bluemonday"

// Display metadata comes from the external user directory and is echoed back
// to vendor dashboards, so it is stripped of all markup.
var sanitizer = bluemonday.StrictPolicy()

// Sanitize strips HTML from externally sourced strings before they are
// returned to clients.
func Sanitize(input string) string {
	return sanitizer.Sanitize(input)
}
