package acquire

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mediamorph/mediamorph/internal/logging"
	"github.com/mediamorph/mediamorph/internal/mediatypes"
	"github.com/mediamorph/mediamorph/internal/model"
)

// ErrUnsupportedType is returned when a candidate file's MIME type matches
// neither the image nor the video allow-list. The caller surfaces a
// user-visible rejection and must not mutate session state.
var ErrUnsupportedType = errors.New("unsupported file type")

// Acquire classifies a candidate file and returns it as an accepted
// SourceFile. declaredMIME may be empty, in which case the type is derived
// from the file extension.
func Acquire(path, declaredMIME string) (*model.SourceFile, error) {
	mime := mediatypes.NormalizeMIME(declaredMIME)
	if mime == "" {
		mime = mediatypes.MIMEForExtension(filepath.Ext(path))
	}

	kind, ok := mediatypes.KindForMIME(mime)
	if !ok {
		logging.Debug("Rejected candidate %s with type %q", path, mime)
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, mime)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat candidate file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: directory", ErrUnsupportedType)
	}

	src := &model.SourceFile{
		Path: path,
		Name: filepath.Base(path),
		MIME: mime,
		Size: info.Size(),
		Kind: kind,
	}
	logging.Info("Accepted %s source %s (%d bytes, %s)", kind, src.Name, src.Size, mime)
	return src, nil
}
