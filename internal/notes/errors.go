package notes

import "errors"

// ErrNotFound is returned by providers when a requested path is not part
// of the indexed collection. Callers translate it to their own not-found
// representation at each layer boundary.
var ErrNotFound = errors.New("notes: file not found")
