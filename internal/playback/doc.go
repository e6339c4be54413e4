// Package playback implements the deterministic playback core: the state
// machine that coordinates a single decode session, the worker pipeline that
// moves PCM from the decoder to the output, and the closed error taxonomy
// every component above the ports speaks.
//
// The Player mediates all control operations (Load, Play, Pause, Stop, Seek)
// behind one mutex and publishes an immutable Snapshot after every
// state-affecting operation, so queries never block behind decode or render
// calls. Collaborators are injected through the Decoder, Output, and Clock
// ports; the core never inspects a collaborator's native errors or resources.
//
// Add new observable state by extending Snapshot and the points that publish
// it; this package is the authoritative home for transition semantics.
package playback
