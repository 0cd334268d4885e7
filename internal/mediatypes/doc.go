// Package mediatypes defines the accepted input media types and the
// capability table of target formats a conversion may produce.
package mediatypes
