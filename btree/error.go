package btree

import (
	"fmt"

	"github.com/dacapoday/litescan"
)

var (
	ErrTruncated           = litescan.ErrTruncated
	ErrInvalidPageSize     = litescan.ErrInvalidPageSize
	ErrInvalidPageType     = litescan.ErrInvalidPageType
	ErrInvalidRecordType   = litescan.ErrInvalidRecordType
	ErrUnsupportedEncoding = litescan.ErrUnsupportedEncoding
	ErrUnknownMagicCode    = litescan.ErrUnknownMagicCode
	ErrCorruptPage         = litescan.ErrCorruptPage
	ErrMissingPage         = litescan.ErrMissingPage
	ErrCycle               = litescan.ErrCycle
)

// PageError reports a page that could not be decoded.
type PageError struct {
	Page uint32
	Err  error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("page %d: %v", e.Page, e.Err)
}

func (e *PageError) Unwrap() error {
	return e.Err
}

// MissingPageError reports a child pointer to a page that is not in the
// store. Parent is 0 when the missing page is the walk root.
type MissingPageError struct {
	Page   uint32
	Parent uint32
}

func (e *MissingPageError) Error() string {
	if e.Parent == 0 {
		return fmt.Sprintf("%v: root page %d", ErrMissingPage, e.Page)
	}
	return fmt.Sprintf("%v: page %d (child of page %d)", ErrMissingPage, e.Page, e.Parent)
}

func (e *MissingPageError) Unwrap() error {
	return ErrMissingPage
}
