// Package media defines the immutable value types exchanged across the
// playback core's boundaries.
//
// Track references a playable resource, StreamInfo carries the technical
// properties a decoder reports at open time, and TagBundle holds optional
// metadata where an absent field is distinct from an explicitly empty one.
// These types are copied across boundaries, never shared for mutation.
package media
