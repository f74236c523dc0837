package record

import "errors"

// ErrShortRecord is returned when a byte slice does not contain a full
// record header plus the value bytes it declares.
var ErrShortRecord = errors.New("record: truncated record")
