// Package htmlsanitize cleans user-supplied rich text (comment bodies,
// task and issue descriptions) before it is stored.
package htmlsanitize

import (
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	once sync.Once
	ugc  *bluemonday.Policy
)

func policy() *bluemonday.Policy {
	once.Do(func() {
		ugc = bluemonday.UGCPolicy()
		ugc.AllowElements("u", "s", "mark")
		ugc.RequireNoFollowOnLinks(true)
		ugc.AddTargetBlankToFullyQualifiedLinks(true)
	})
	return ugc
}

// Sanitize keeps safe formatting markup and removes scripts, event
// handlers, iframes, forms and javascript: URLs.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(policy().Sanitize(s))
}
