package recast

import "strings"

// PipeOperator is the token that separates pipe stages.
const PipeOperator = "|>"

// FormatOptions controls indentation and the trailing newline.
type FormatOptions struct {
	TabSize            int  `json:"tabSize" yaml:"tab_size"`
	UseTabs            bool `json:"useTabs" yaml:"use_tabs"`
	InsertFinalNewline bool `json:"insertFinalNewline" yaml:"insert_final_newline"`
}

// DefaultOptions indents with two spaces and ends files with a newline.
func DefaultOptions() FormatOptions {
	return FormatOptions{TabSize: 2, InsertFinalNewline: true}
}

// Indentation returns the leading whitespace for the given nesting level.
func (o FormatOptions) Indentation(level int) string {
	if o.UseTabs {
		return strings.Repeat("\t", level)
	}
	return strings.Repeat(" ", level*o.TabSize)
}

// IndentationOffsetPipe is Indentation offset by the width of the pipe
// operator and a space, so continuation lines align under the first stage.
func (o FormatOptions) IndentationOffsetPipe(level int) string {
	if o.UseTabs {
		return strings.Repeat("\t", level+1)
	}
	return strings.Repeat(" ", level*o.TabSize) + strings.Repeat(" ", len(PipeOperator)+1)
}
