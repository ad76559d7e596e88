package config

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/samber/lo"

	gitstampErrors "github.com/bashhack/gitstamp/internal/errors"
)

// Placeholder marks where the timestamp goes in a comment template.
const Placeholder = "{}"

// DefaultCommentRules maps extensions to marker templates when none are configured.
var DefaultCommentRules = map[string]string{
	".js":   "// Last Updated: {}",
	".jsx":  "// Last Updated: {}",
	".cjs":  "// Last Updated: {}",
	".mjs":  "// Last Updated: {}",
	".ts":   "// Last Updated: {}",
	".tsx":  "// Last Updated: {}",
	".go":   "// Last Updated: {}",
	".py":   "# Last Updated: {}",
	".sh":   "# Last Updated: {}",
	".rb":   "# Last Updated: {}",
	".yaml": "# Last Updated: {}",
	".yml":  "# Last Updated: {}",
}

// CommentRule is a marker template for one file extension, split around
// its single placeholder.
type CommentRule struct {
	Extension string
	Template  string
	Prefix    string
	Suffix    string

	pattern *regexp.Regexp
}

// ParseCommentRule validates template and splits it into prefix and suffix.
// The template must contain the placeholder exactly once, must fit on one
// line and must carry some literal text to recognize a previous stamp by.
func ParseCommentRule(extension, template string) (CommentRule, error) {
	param := fmt.Sprintf("comment-rules[%s]", extension)

	if len(extension) < 2 || !strings.HasPrefix(extension, ".") || strings.ContainsAny(extension, `/\`) {
		return CommentRule{}, gitstampErrors.NewConfigError(param, extension,
			gitstampErrors.New("extension must look like \".ext\""))
	}

	if n := strings.Count(template, Placeholder); n != 1 {
		return CommentRule{}, gitstampErrors.NewConfigError(param, template,
			gitstampErrors.Errorf("template must contain exactly one %s placeholder, found %d", Placeholder, n))
	}

	if strings.ContainsAny(template, "\r\n") {
		return CommentRule{}, gitstampErrors.NewConfigError(param, template,
			gitstampErrors.New("template must be a single line"))
	}

	prefix, suffix, _ := strings.Cut(template, Placeholder)
	if strings.TrimSpace(prefix+suffix) == "" {
		return CommentRule{}, gitstampErrors.NewConfigError(param, template,
			gitstampErrors.New("template needs literal text around the placeholder"))
	}

	return CommentRule{
		Extension: extension,
		Template:  template,
		Prefix:    prefix,
		Suffix:    suffix,
		pattern:   regexp.MustCompile("^" + regexp.QuoteMeta(prefix) + ".*" + regexp.QuoteMeta(suffix) + `\s*$`),
	}, nil
}

// Render returns the marker line for timestamp, without a line terminator.
func (r CommentRule) Render(timestamp string) string {
	return r.Prefix + timestamp + r.Suffix
}

// Matches reports whether line (without its terminator) is a marker
// produced by this rule, whatever timestamp it carries.
func (r CommentRule) Matches(line string) bool {
	if r.pattern == nil {
		return false
	}
	return r.pattern.MatchString(line)
}

// RuleSet holds the validated comment rules keyed by extension.
type RuleSet map[string]CommentRule

// ParseRuleSet validates every template in templates.
func ParseRuleSet(templates map[string]string) (RuleSet, error) {
	rules := make(RuleSet, len(templates))
	for _, ext := range sortedKeys(templates) {
		rule, err := ParseCommentRule(ext, templates[ext])
		if err != nil {
			return nil, err
		}
		rules[ext] = rule
	}
	return rules, nil
}

// Lookup returns the rule registered for extension.
func (rs RuleSet) Lookup(extension string) (CommentRule, bool) {
	rule, ok := rs[extension]
	return rule, ok
}

// Extensions returns the registered extensions in sorted order.
func (rs RuleSet) Extensions() []string {
	return sortedKeys(rs)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := lo.Keys(m)
	sort.Strings(keys)
	return keys
}
