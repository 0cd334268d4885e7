package ui

// Package ui contains the Fyne-based desktop user interface for the
// application. It wires drops, the file picker, and format selection to the
// conversion session, and renders previews, progress, and notifications.
