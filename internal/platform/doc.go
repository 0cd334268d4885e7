package platform

// Package platform contains OS/platform integration glue: filesystem
// helpers, artifact placement, and OS open/reveal of finished files.
