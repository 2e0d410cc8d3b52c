// Package playback models the pronunciation control's state as an explicit
// finite-state machine. Transitions are broadcast to subscribers so any
// rendering layer (CLI, fyne) can follow along without owning the state.
package playback
