// Package stringutil provides the tiny fmt.Stringer wrapper the teacher
// uses for static tracker labels (util/chunk/row_container.go's
// rowChunksLabel = stringutil.StringerStr("rowChunks")).
package stringutil

// StringerStr adapts a plain string to fmt.Stringer without allocating a
// closure per call.
type StringerStr string

func (s StringerStr) String() string { return string(s) }
