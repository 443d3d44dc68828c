package language

import "testing"

func TestFromPath(t *testing.T) {
	r := NewRegistry()
	tests := []struct {
		path string
		want string
	}{
		{"main.go", "go"},
		{"src/lib.RS", "rust"},
		{"config.yml", "yaml"},
		{"Gemfile", "ruby"},
		{"Makefile", "make"},
		{"notes.unknownext", ""},
	}
	for _, tt := range tests {
		l := r.FromPath(tt.path)
		got := ""
		if l != nil {
			got = l.ID
		}
		if got != tt.want {
			t.Errorf("FromPath(%q) = %q, want %q", tt.path, got, tt.want)
		}
	}
}

func TestFromContentDirective(t *testing.T) {
	r := NewRegistry()
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"env shebang", "#!/usr/bin/env python3\nprint(1)\n", "python"},
		{"direct shebang", "#!/bin/bash\necho hi\n", "bash"},
		{"vim modeline", "x = 1\n# vim: set ft=yaml:\n", "yaml"},
		{"vim alias", "// vim: filetype=golang\n", "go"},
		{"emacs", "# -*- mode: python -*-\n", "python"},
		{"none", "just text\n", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := r.FromContentDirective(tt.content)
			got := ""
			if l != nil {
				got = l.ID
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestGrammar(t *testing.T) {
	r := NewRegistry()
	if r.Get("go").Grammar() == nil {
		t.Error("go should have a grammar")
	}
	if r.Get("markdown").Grammar() != nil {
		t.Error("markdown is highlight only")
	}
	var nilLang *Language
	if nilLang.Grammar() != nil {
		t.Error("nil language has no grammar")
	}
	if !r.SetFormatter("rust", "rustfmt --emit stdout") || r.Get("rust").Formatter == "" {
		t.Error("SetFormatter did not apply")
	}
	if r.SetFormatter("nope", "x") {
		t.Error("SetFormatter on unknown language should fail")
	}
}
