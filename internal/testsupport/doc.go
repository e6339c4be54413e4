// Package testsupport provides scripted port implementations and config
// builders shared by tests across the repository.
package testsupport
