// Package diagnostic holds the messages language servers attach to buffer
// ranges.
package diagnostic

import (
	"fmt"

	"github.com/charmbracelet/x/powernap/pkg/lsp/protocol"

	"github.com/xonecas/arbor/internal/edit"
)

type Severity int

const (
	SeverityError Severity = iota + 1
	SeverityWarning
	SeverityInformation
	SeverityHint
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	case SeverityInformation:
		return "info"
	case SeverityHint:
		return "hint"
	}
	return fmt.Sprintf("Severity(%d)", int(s))
}

// Diagnostic is a message over a character range of a buffer.
type Diagnostic struct {
	Range    edit.Range
	Severity Severity
	Message  string
	Source   string
}

func (d Diagnostic) String() string {
	if d.Source != "" {
		return fmt.Sprintf("%s %s: %s (%s)", d.Range, d.Severity, d.Message, d.Source)
	}
	return fmt.Sprintf("%s %s: %s", d.Range, d.Severity, d.Message)
}

// Resolver converts line/column ranges into character ranges of a buffer.
type Resolver interface {
	PositionRangeToCharRange(edit.PositionRange) (edit.Range, error)
}

// FromProtocol converts a language server diagnostic. A missing severity is
// reported as an error, as the protocol suggests.
func FromProtocol(r Resolver, d protocol.Diagnostic) (Diagnostic, error) {
	pr := edit.PositionRange{
		Start: edit.Position{Line: int(d.Range.Start.Line), Column: int(d.Range.Start.Character)},
		End:   edit.Position{Line: int(d.Range.End.Line), Column: int(d.Range.End.Character)},
	}
	cr, err := r.PositionRangeToCharRange(pr)
	if err != nil {
		return Diagnostic{}, fmt.Errorf("diagnostic %q: %w", d.Message, err)
	}
	sev := Severity(int(d.Severity))
	if sev < SeverityError || sev > SeverityHint {
		sev = SeverityError
	}
	return Diagnostic{Range: cr, Severity: sev, Message: d.Message, Source: d.Source}, nil
}

// Remap moves every diagnostic through e and drops those whose text was
// deleted. The input slice is not modified.
func Remap(diags []Diagnostic, e edit.Edit) []Diagnostic {
	out := make([]Diagnostic, 0, len(diags))
	for _, d := range diags {
		r, ok := d.Range.ApplyEdit(e)
		if !ok {
			continue
		}
		d.Range = r
		out = append(out, d)
	}
	return out
}
