package rgbimage

import (
	"fmt"

	"golang.org/x/xerrors"
)

// Error reports a failure to write an image.  It is the one error the
// renderer treats as fatal.
type Error struct {
	Path string
	Op   string

	inner error
	frame xerrors.Frame
}

func NewError(path, op string, inner error) *Error {
	return &Error{
		Path:  path,
		Op:    op,
		inner: inner,
		frame: xerrors.Caller(1),
	}
}

func (e *Error) Error() string {
	return fmt.Sprintf("while writing image %q (%s): %v", e.Path, e.Op, e.inner)
}

func (e *Error) Format(f fmt.State, c rune) { // implements fmt.Formatter
	xerrors.FormatError(e, f, c)
}

func (e *Error) FormatError(p xerrors.Printer) error { // implements xerrors.Formatter
	p.Print(fmt.Sprintf("while writing image %q (%s)", e.Path, e.Op))
	if p.Detail() {
		e.frame.Format(p)
	}
	return e.inner
}

func (e *Error) Unwrap() error {
	return e.inner
}
