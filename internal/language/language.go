// Package language resolves which grammar, lexer and formatter apply to a
// file.
package language

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/alecthomas/chroma/v2/lexers"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/bash"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/toml"
	"github.com/smacker/go-tree-sitter/yaml"
)

// Language describes one file type.
type Language struct {
	ID           string
	Extensions   []string
	Filenames    []string
	Interpreters []string
	// Lexer is the chroma lexer name.
	Lexer string
	// Formatter is a shell command reading source on stdin and writing the
	// formatted source to stdout. Empty means no formatter.
	Formatter string

	grammar func() *sitter.Language
}

// Grammar returns the tree-sitter grammar, or nil when the language is
// highlighted but not parsed.
func (l *Language) Grammar() *sitter.Language {
	if l == nil || l.grammar == nil {
		return nil
	}
	return l.grammar()
}

// Registry maps paths and content directives to languages.
type Registry struct {
	byID []*Language
}

// NewRegistry returns a registry holding the built-in languages.
func NewRegistry() *Registry {
	r := &Registry{}
	for _, l := range builtin() {
		l := l
		r.byID = append(r.byID, &l)
	}
	return r
}

func builtin() []Language {
	return []Language{
		{ID: "go", Extensions: []string{".go"}, Lexer: "go", Formatter: "gofmt", grammar: golang.GetLanguage},
		{ID: "rust", Extensions: []string{".rs"}, Lexer: "rust", grammar: rust.GetLanguage},
		{ID: "yaml", Extensions: []string{".yaml", ".yml"}, Lexer: "yaml", grammar: yaml.GetLanguage},
		{ID: "python", Extensions: []string{".py"}, Interpreters: []string{"python"}, Lexer: "python", grammar: python.GetLanguage},
		{ID: "javascript", Extensions: []string{".js", ".mjs", ".cjs", ".jsx"}, Interpreters: []string{"node"}, Lexer: "javascript", grammar: javascript.GetLanguage},
		{ID: "bash", Extensions: []string{".sh", ".bash"}, Interpreters: []string{"sh", "bash"}, Lexer: "bash", grammar: bash.GetLanguage},
		{ID: "toml", Extensions: []string{".toml"}, Lexer: "toml", grammar: toml.GetLanguage},
		{ID: "c", Extensions: []string{".c", ".h"}, Lexer: "c", grammar: c.GetLanguage},

		// Highlight only.
		{ID: "typescript", Extensions: []string{".ts", ".tsx"}, Interpreters: []string{"deno"}, Lexer: "typescript"},
		{ID: "cpp", Extensions: []string{".cpp", ".cc", ".hpp"}, Lexer: "cpp"},
		{ID: "java", Extensions: []string{".java"}, Lexer: "java"},
		{ID: "ruby", Extensions: []string{".rb"}, Filenames: []string{"gemfile", "rakefile"}, Interpreters: []string{"ruby"}, Lexer: "ruby"},
		{ID: "lua", Extensions: []string{".lua"}, Interpreters: []string{"lua"}, Lexer: "lua"},
		{ID: "perl", Extensions: []string{".pl", ".perl"}, Interpreters: []string{"perl"}, Lexer: "perl"},
		{ID: "zsh", Extensions: []string{".zsh"}, Interpreters: []string{"zsh"}, Lexer: "zsh"},
		{ID: "fish", Extensions: []string{".fish"}, Interpreters: []string{"fish"}, Lexer: "fish"},
		{ID: "json", Extensions: []string{".json"}, Lexer: "json"},
		{ID: "markdown", Extensions: []string{".md", ".markdown"}, Lexer: "markdown"},
		{ID: "html", Extensions: []string{".html", ".htm"}, Lexer: "html"},
		{ID: "css", Extensions: []string{".css"}, Lexer: "css"},
		{ID: "sql", Extensions: []string{".sql"}, Lexer: "sql"},
		{ID: "make", Filenames: []string{"makefile"}, Lexer: "make"},
		{ID: "docker", Extensions: []string{".dockerfile"}, Filenames: []string{"dockerfile"}, Lexer: "docker"},
	}
}

// Get returns the language with the given ID, or nil.
func (r *Registry) Get(id string) *Language {
	for _, l := range r.byID {
		if l.ID == id {
			return l
		}
	}
	return nil
}

// IDs lists the registered language IDs.
func (r *Registry) IDs() []string {
	ids := make([]string, len(r.byID))
	for i, l := range r.byID {
		ids[i] = l.ID
	}
	return ids
}

// SetFormatter overrides the formatter command of a language. It reports
// false when the language is unknown.
func (r *Registry) SetFormatter(id, command string) bool {
	l := r.Get(id)
	if l == nil {
		return false
	}
	l.Formatter = command
	return true
}

// FromPath resolves a language from the file extension or name. Unknown
// extensions fall back to any chroma lexer matching the filename.
func (r *Registry) FromPath(path string) *Language {
	ext := strings.ToLower(filepath.Ext(path))
	base := strings.ToLower(filepath.Base(path))
	for _, l := range r.byID {
		for _, e := range l.Extensions {
			if e == ext {
				return l
			}
		}
		for _, f := range l.Filenames {
			if f == base {
				return l
			}
		}
	}
	if lex := lexers.Match(base); lex != nil {
		name := strings.ToLower(lex.Config().Name)
		return &Language{ID: name, Lexer: name}
	}
	return nil
}

var (
	shebangRe = regexp.MustCompile(`^#!\s*(\S+)(?:\s+(\S+))?`)
	vimRe     = regexp.MustCompile(`(?:vim?|ex):.*?\b(?:ft|filetype|syntax)=([\w+-]+)`)
	emacsRe   = regexp.MustCompile(`-\*-.*?(?:mode:\s*)?([\w+-]+)\s*(?:;.*)?-\*-`)
	versionRe = regexp.MustCompile(`[\d.]+$`)
)

// modelineScan is how many lines at each end of a file are searched for an
// editor modeline.
const modelineScan = 5

// FromContentDirective resolves a language from a shebang line or a vim or
// emacs modeline.
func (r *Registry) FromContentDirective(content string) *Language {
	lines := strings.Split(content, "\n")
	if m := shebangRe.FindStringSubmatch(lines[0]); m != nil {
		interp := filepath.Base(m[1])
		if interp == "env" && m[2] != "" {
			interp = m[2]
		}
		interp = versionRe.ReplaceAllString(interp, "")
		if l := r.byInterpreter(interp); l != nil {
			return l
		}
	}

	candidates := lines
	if len(lines) > 2*modelineScan {
		candidates = append(append([]string{}, lines[:modelineScan]...), lines[len(lines)-modelineScan:]...)
	}
	for _, line := range candidates {
		if m := vimRe.FindStringSubmatch(line); m != nil {
			if l := r.byName(m[1]); l != nil {
				return l
			}
		}
		if m := emacsRe.FindStringSubmatch(line); m != nil {
			if l := r.byName(m[1]); l != nil {
				return l
			}
		}
	}
	return nil
}

func (r *Registry) byInterpreter(name string) *Language {
	for _, l := range r.byID {
		for _, i := range l.Interpreters {
			if i == name {
				return l
			}
		}
	}
	return nil
}

// byName matches a modeline file type against IDs and common aliases.
func (r *Registry) byName(name string) *Language {
	name = strings.ToLower(name)
	switch name {
	case "golang":
		name = "go"
	case "sh", "shell":
		name = "bash"
	case "js":
		name = "javascript"
	case "py":
		name = "python"
	case "yml":
		name = "yaml"
	}
	return r.Get(name)
}
