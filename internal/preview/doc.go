package preview

// Package preview renders a transient, displayable representation of an
// accepted source file: a bounded PNG thumbnail for images, a poster frame
// for videos. Handles must be released when superseded or on session reset.
