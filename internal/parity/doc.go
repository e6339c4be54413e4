// Package parity verifies behavioral equivalence across playback core
// implementations by replaying declarative vector documents.
//
// A vector is a TOML document holding fixture stream definitions plus
// ordered cases of {action} steps and {check} assertions. The Runner drives
// a fresh state machine per case exactly as an external caller would,
// captures errors instead of propagating them, and reports each check as
// pass, fail, or skip. Runs are deterministic given the scripted decoder
// and manual clock the runner injects.
//
// The Archive persists run outcomes in SQLite so regressions between runs
// are inspectable after the fact.
package parity
