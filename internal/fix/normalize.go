package fix

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// typeWords maps leading words of branch names and commit subjects to a type.
var typeWords = map[string]string{
	"feat":     "feat",
	"feature":  "feat",
	"add":      "feat",
	"fix":      "fix",
	"fixed":    "fix",
	"fixes":    "fix",
	"bug":      "fix",
	"bugfix":   "fix",
	"hotfix":   "fix",
	"doc":      "docs",
	"docs":     "docs",
	"refactor": "refactor",
	"chore":    "chore",
	"test":     "test",
	"tests":    "test",
}

// branchTypes are the prefixes a normalized branch name may carry.
var branchTypes = map[string]bool{"feat": true, "fix": true, "docs": true, "refactor": true, "chore": true}

func inferType(lowered string) string {
	word, _, _ := strings.Cut(strings.TrimSpace(lowered), " ")
	word = strings.TrimRight(word, ":!")
	if t, ok := typeWords[word]; ok {
		return t
	}
	return "feat"
}

// NormalizeBranchName proposes a conventional name for an invalid branch:
// accents folded, lower-cased, non-alphanumeric runs collapsed to "-",
// prefixed with an inferred type. A leading type word becomes the prefix,
// so "Fix login bug" yields "fix/login-bug" and "wip-stuff" yields
// "feat/wip-stuff".
func NormalizeBranchName(name string) string {
	tokens := slugTokens(name)
	if len(tokens) == 0 {
		return "feat/change"
	}
	typ := "feat"
	if t, ok := typeWords[tokens[0]]; ok && branchTypes[t] {
		typ = t
		if len(tokens) > 1 {
			tokens = tokens[1:]
		}
	}
	return typ + "/" + strings.Join(tokens, "-")
}

func slugTokens(s string) []string {
	folded := strings.ToLower(foldAccents(s))
	return strings.FieldsFunc(folded, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9')
	})
}

func foldAccents(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
