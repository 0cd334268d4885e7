package convert

import "github.com/mediamorph/mediamorph/internal/model"

// Converter defines the interface for media conversion operations
type Converter interface {
	StartConversion(src *model.SourceFile, formatToken string, generation uint64) (*model.ConversionTask, error)
	StopConversion(taskID string) error
	GetTask(taskID string) (*model.ConversionTask, bool)
	SetUpdateCallback(callback func(*model.ConversionTask))
}
