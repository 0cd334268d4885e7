package acquire

// Package acquire turns a raw file handle (a path plus its declared MIME
// type) into an accepted SourceFile, rejecting anything outside the image
// and video allow-lists.
