// Package gui implements the fyne pronunciation board: one button per
// letter and word, a practice field for free text and verses, and a log of
// what was played.
package gui
