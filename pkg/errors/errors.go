package errors

import "errors"

// ErrOptimisticLock signals that the record was modified by another
// operation between read and write; caller should re-read and retry.
var ErrOptimisticLock = errors.New("record was modified by another operation")
