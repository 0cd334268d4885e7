package model

import "github.com/mediamorph/mediamorph/internal/mediatypes"

// SourceFile is the originally acquired input file together with its
// declared type and derived media kind. It is immutable once accepted and
// lives for the duration of one conversion session.
type SourceFile struct {
	Path string
	Name string
	MIME string
	Size int64
	Kind mediatypes.Kind
}
