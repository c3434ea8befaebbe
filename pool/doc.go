// Package pool
// Author: momentics <momentics@gmail.com>
//
// Byte buffer layer for hioload-rpc: growable per-connection receive and
// send buffers with front compaction, and pooled fixed-size read slabs.
// See buffer.go and bytepool.go for implementation details.
package pool
