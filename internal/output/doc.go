// Package output provides implementations of the playback Output port.
//
// The oto backend renders to the platform audio device through a ring
// buffer, applying backpressure by accepting only the frames that fit. The
// headless backend renders to nowhere and is the backend parity runs and CI
// use. A portaudio backend is available behind the "portaudio" build tag.
// Backends register themselves by name; ForName selects one, with "auto"
// preferring a device backend.
package output
