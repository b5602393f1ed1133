package litescan

import "errors"

var (
	ErrTruncated           = errors.New("truncated")
	ErrInvalidInput        = errors.New("invalid input")
	ErrInvalidPageSize     = errors.New("invalid page size")
	ErrInvalidPageType     = errors.New("invalid page type")
	ErrInvalidRecordType   = errors.New("invalid record type")
	ErrBadRecord           = errors.New("bad record")
	ErrCorruptPage         = errors.New("corrupt page")
	ErrUnsupportedEncoding = errors.New("unsupported text encoding")
	ErrUnknownMagicCode    = errors.New("unknown magic code")
	ErrMissingPage         = errors.New("missing page")
	ErrCycle               = errors.New("page cycle")
)
