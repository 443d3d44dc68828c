package quickfix

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

type ignoreRule struct {
	re       *regexp.Regexp
	negate   bool
	dirOnly  bool
	anchored bool
}

// Ignore matches relative paths against .gitignore rules. The last matching
// rule wins, so a later "!pattern" re-includes a path.
type Ignore struct {
	rules []ignoreRule
}

// LoadIgnore reads a .gitignore file. A missing file yields an empty matcher.
func LoadIgnore(path string) (*Ignore, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return &Ignore{}, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return ParseIgnore(lines...), nil
}

// ParseIgnore builds a matcher from gitignore lines. Comments, blank lines
// and patterns that do not compile are skipped.
func ParseIgnore(lines ...string) *Ignore {
	ig := &Ignore{}
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if rule, ok := compileRule(line); ok {
			ig.rules = append(ig.rules, rule)
		}
	}
	return ig
}

func compileRule(pattern string) (ignoreRule, bool) {
	var rule ignoreRule
	if rest, ok := strings.CutPrefix(pattern, "!"); ok {
		rule.negate = true
		pattern = rest
	}
	if rest, ok := strings.CutSuffix(pattern, "/"); ok {
		rule.dirOnly = true
		pattern = rest
	}
	if rest, ok := strings.CutPrefix(pattern, "/"); ok {
		rule.anchored = true
		pattern = rest
	}

	var b strings.Builder
	if rule.anchored {
		b.WriteString("^")
	} else {
		b.WriteString("(^|/)")
	}
	b.WriteString(globToRegexp(pattern))
	if rule.anchored {
		b.WriteString("$")
	} else {
		b.WriteString("(/.*)?$")
	}
	re, err := regexp.Compile(b.String())
	if err != nil {
		return rule, false
	}
	rule.re = re
	return rule, true
}

func globToRegexp(glob string) string {
	var b strings.Builder
	for i := 0; i < len(glob); i++ {
		switch c := glob[i]; c {
		case '*':
			switch {
			case strings.HasPrefix(glob[i:], "**/"):
				b.WriteString("(.*/)?")
				i += 2
			case strings.HasPrefix(glob[i:], "**"):
				b.WriteString(".*")
				i++
			default:
				b.WriteString("[^/]*")
			}
		case '?':
			b.WriteString("[^/]")
		case '[':
			if j := strings.IndexByte(glob[i:], ']'); j > 0 {
				b.WriteString(glob[i : i+j+1])
				i += j
			} else {
				b.WriteString(`\[`)
			}
		case '\\':
			if i+1 < len(glob) {
				i++
				b.WriteString(regexp.QuoteMeta(glob[i : i+1]))
			}
		default:
			b.WriteString(regexp.QuoteMeta(string(c)))
		}
	}
	return b.String()
}

// Ignored reports whether rel, a slash or OS separated path relative to the
// ignore file, is excluded.
func (ig *Ignore) Ignored(rel string, isDir bool) bool {
	if ig == nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	ignored := false
	for _, r := range ig.rules {
		var hit bool
		switch {
		case r.dirOnly && isDir:
			hit = r.re.MatchString(rel)
		case r.dirOnly:
			hit = r.re.MatchString(filepath.ToSlash(filepath.Dir(rel)))
		case r.anchored:
			hit = r.re.MatchString(rel)
		default:
			hit = r.re.MatchString(rel) || r.re.MatchString(filepath.Base(rel))
		}
		if hit {
			ignored = !r.negate
		}
	}
	return ignored
}
