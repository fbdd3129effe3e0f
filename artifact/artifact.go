// Package artifact defines the closed set of values a prompt task can produce.
//
// Every artifact converts to text for embedding into a prompt stack. Callers
// that need to treat failures differently switch on Kind instead of
// inspecting concrete types:
//
//	out, err := task.Run(ctx)
//	if err != nil {
//	    return err // configuration problem
//	}
//	if out.Kind() == artifact.KindError {
//	    // the driver failed; out.ToText() describes why
//	}
package artifact

import (
	"github.com/teranos/prompttask/errors"
)

// Kind tags the variant of an Artifact.
type Kind string

const (
	KindText  Kind = "text"
	KindInfo  Kind = "info"
	KindError Kind = "error"
)

// Artifact is implemented only by the types in this package.
type Artifact interface {
	Kind() Kind
	ToText() string
	sealed()
}

// TextArtifact is a successful plain-text result.
type TextArtifact struct {
	Value string
}

// InfoArtifact is an informational result: the run succeeded but carries a
// notice rather than model output (for example an empty completion).
type InfoArtifact struct {
	Value string
}

// ErrorArtifact is a failed result. Err keeps the cause for errors.Is/As.
type ErrorArtifact struct {
	Value string
	Err   error
}

func NewText(value string) *TextArtifact { return &TextArtifact{Value: value} }

func NewInfo(value string) *InfoArtifact { return &InfoArtifact{Value: value} }

// NewError wraps err. A nil err yields a generic message.
func NewError(err error) *ErrorArtifact {
	if err == nil {
		return &ErrorArtifact{Value: "unknown error"}
	}
	return &ErrorArtifact{Value: err.Error(), Err: err}
}

// NewErrorf builds an ErrorArtifact from a formatted message.
func NewErrorf(format string, args ...interface{}) *ErrorArtifact {
	return NewError(errors.Newf(format, args...))
}

func (a *TextArtifact) Kind() Kind     { return KindText }
func (a *TextArtifact) ToText() string { return a.Value }
func (a *TextArtifact) String() string { return a.Value }
func (*TextArtifact) sealed()          {}

func (a *InfoArtifact) Kind() Kind     { return KindInfo }
func (a *InfoArtifact) ToText() string { return a.Value }
func (a *InfoArtifact) String() string { return a.Value }
func (*InfoArtifact) sealed()          {}

func (a *ErrorArtifact) Kind() Kind     { return KindError }
func (a *ErrorArtifact) ToText() string { return a.Value }
func (a *ErrorArtifact) String() string { return a.Value }
func (a *ErrorArtifact) Error() string  { return a.Value }
func (a *ErrorArtifact) Unwrap() error  { return a.Err }
func (*ErrorArtifact) sealed()          {}

// IsError reports whether a is an error artifact. A nil artifact is not.
func IsError(a Artifact) bool {
	return a != nil && a.Kind() == KindError
}

// Text returns a.ToText(), or "" for a nil artifact.
func Text(a Artifact) string {
	if a == nil {
		return ""
	}
	return a.ToText()
}
