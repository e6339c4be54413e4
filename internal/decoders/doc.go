// Package decoders provides file-backed implementations of the playback
// Decoder port plus a Registry that dispatches on file extension.
//
// Each adapter classifies its native failures at this boundary: a missing
// file is not_found, a malformed header is decode_error, an unrecognized
// format is unsupported, and plain I/O failures are io_error wrapping the
// cause. The core above never sees a native error.
package decoders
