package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gitstampErrors "github.com/bashhack/gitstamp/internal/errors"
)

func TestParseCommentRule(t *testing.T) {
	tests := map[string]struct {
		extension  string
		template   string
		wantPrefix string
		wantSuffix string
		wantErr    string
	}{
		"LineComment": {
			extension:  ".py",
			template:   "# Last Updated: {}",
			wantPrefix: "# Last Updated: ",
			wantSuffix: "",
		},
		"BlockComment": {
			extension:  ".css",
			template:   "/* Last Updated: {} */",
			wantPrefix: "/* Last Updated: ",
			wantSuffix: " */",
		},
		"NoPlaceholder": {
			extension: ".py",
			template:  "# Last Updated",
			wantErr:   "exactly one {} placeholder, found 0",
		},
		"TwoPlaceholders": {
			extension: ".py",
			template:  "# {} / {}",
			wantErr:   "exactly one {} placeholder, found 2",
		},
		"Multiline": {
			extension: ".py",
			template:  "# Last\n Updated: {}",
			wantErr:   "single line",
		},
		"OnlyPlaceholder": {
			extension: ".py",
			template:  " {} ",
			wantErr:   "literal text",
		},
		"ExtensionWithoutDot": {
			extension: "py",
			template:  "# Last Updated: {}",
			wantErr:   "extension must look like",
		},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			rule, err := ParseCommentRule(tc.extension, tc.template)
			if tc.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
				assert.True(t, gitstampErrors.Is(err, gitstampErrors.ErrInvalidConfiguration))
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.wantPrefix, rule.Prefix)
			assert.Equal(t, tc.wantSuffix, rule.Suffix)
			assert.Equal(t, tc.extension, rule.Extension)
		})
	}
}

func TestCommentRuleRenderAndMatch(t *testing.T) {
	rule, err := ParseCommentRule(".css", "/* Last Updated: {} */")
	require.NoError(t, err)

	rendered := rule.Render("2024-02-02 10:00:00")
	assert.Equal(t, "/* Last Updated: 2024-02-02 10:00:00 */", rendered)

	tests := map[string]struct {
		line string
		want bool
	}{
		"Rendered":              {line: rendered, want: true},
		"OlderTimestamp":        {line: "/* Last Updated: 2024-01-01 00:00:00 */", want: true},
		"AnyMiddle":             {line: "/* Last Updated: yesterday-ish */", want: true},
		"TrailingWhitespace":    {line: "/* Last Updated: 2024-01-01 00:00:00 */  \t", want: true},
		"MissingSuffix":         {line: "/* Last Updated: 2024-01-01 00:00:00", want: false},
		"LeadingText":           {line: "x /* Last Updated: 2024 */", want: false},
		"OrdinaryComment":       {line: "/* header */", want: false},
		"RegexCharsAreLiterals": {line: "/. Last Updated: 1 ./", want: false},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.want, rule.Matches(tc.line))
		})
	}
}

func TestParseRuleSet(t *testing.T) {
	rules, err := ParseRuleSet(DefaultCommentRules)
	require.NoError(t, err)

	assert.Len(t, rules, len(DefaultCommentRules))
	assert.Equal(t, rules.Extensions()[0], ".cjs")

	rule, ok := rules.Lookup(".py")
	require.True(t, ok)
	assert.Equal(t, "# Last Updated: ", rule.Prefix)

	_, ok = rules.Lookup(".md")
	assert.False(t, ok)

	_, err = ParseRuleSet(map[string]string{".js": "// ok {}", ".py": "# broken"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "comment-rules[.py]")
}
