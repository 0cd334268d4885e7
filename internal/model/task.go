package model

import (
	"time"

	"github.com/mediamorph/mediamorph/internal/mediatypes"
)

// ConversionTask represents a single conversion attempt
type ConversionTask struct {
	ID         string
	InputPath  string
	InputName  string
	Format     mediatypes.Format
	OutputPath string
	Status     TaskStatus
	Progress   float64 // 0.0 to 1.0
	Percent    int     // 0 to 100
	Generation uint64  // session generation this task was issued for
	LastError  string  // last error message if any
	StartedAt  time.Time
	FinishedAt time.Time
}

// ArtifactName returns the artifact file name for a conversion, always
// "converted.<token>" regardless of the input name.
func (ct *ConversionTask) ArtifactName() string {
	return "converted." + ct.Format.Token
}
