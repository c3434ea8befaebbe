// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package api holds the pure contracts of hioload-rpc: the service and
// message vtable the core consumes, and the shared error values. It has
// no I/O and no dependencies on the rest of the library.
package api
