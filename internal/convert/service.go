package convert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mediamorph/mediamorph/internal/logging"
	"github.com/mediamorph/mediamorph/internal/mediatypes"
	"github.com/mediamorph/mediamorph/internal/model"
	"github.com/mediamorph/mediamorph/internal/platform"
)

const (
	// TaskIDPrefix prefixes every conversion task ID
	TaskIDPrefix = "convert-"

	// StagingPattern names in-progress artifacts until they are moved
	// to their final location
	StagingPattern = ".mediamorph-*"
)

// Service handles media conversion operations
type Service struct {
	tasks       map[string]*model.ConversionTask
	cancels     map[string]context.CancelFunc
	tasksMutex  sync.RWMutex
	onUpdate    func(*model.ConversionTask) // callback for UI updates
	outputDir   string
	jpegQuality int
}

// NewService creates a new conversion service writing artifacts into
// outputDir. jpegQuality is used for JPEG targets only.
func NewService(outputDir string, jpegQuality int) *Service {
	return &Service{
		tasks:       make(map[string]*model.ConversionTask),
		cancels:     make(map[string]context.CancelFunc),
		outputDir:   outputDir,
		jpegQuality: jpegQuality,
	}
}

// SetUpdateCallback sets the callback function for task updates
func (s *Service) SetUpdateCallback(callback func(*model.ConversionTask)) {
	s.onUpdate = callback
}

// StartConversion starts converting src to the given target format. A nil
// source or empty format token is a no-op and returns (nil, nil). The
// generation tags the task so callers can discard results that outlive the
// session they were issued for.
func (s *Service) StartConversion(src *model.SourceFile, formatToken string, generation uint64) (*model.ConversionTask, error) {
	if src == nil || formatToken == "" {
		return nil, nil
	}

	format, ok := mediatypes.LookupFormat(src.Kind, formatToken)
	if !ok {
		return nil, fmt.Errorf("no %s target format %q", src.Kind, formatToken)
	}

	if _, err := os.Stat(src.Path); err != nil {
		return nil, fmt.Errorf("input file is not readable: %w", err)
	}

	s.tasksMutex.Lock()
	defer s.tasksMutex.Unlock()

	for _, task := range s.tasks {
		if task.InputPath == src.Path && task.Status.IsActive() {
			return nil, fmt.Errorf("conversion already in progress for file: %s", src.Path)
		}
	}

	task := &model.ConversionTask{
		ID:         generateTaskID(),
		InputPath:  src.Path,
		InputName:  src.Name,
		Format:     format,
		Status:     model.TaskStatusPending,
		Generation: generation,
		StartedAt:  time.Now(),
	}
	task.OutputPath = filepath.Join(s.outputDir, task.ArtifactName())

	ctx, cancel := context.WithCancel(context.Background())
	s.tasks[task.ID] = task
	s.cancels[task.ID] = cancel

	go s.run(ctx, task)

	return task, nil
}

// StopConversion cancels a running conversion task
func (s *Service) StopConversion(taskID string) error {
	s.tasksMutex.Lock()
	defer s.tasksMutex.Unlock()

	task, exists := s.tasks[taskID]
	if !exists {
		return fmt.Errorf("conversion task not found: %s", taskID)
	}
	if task.Status.IsFinished() {
		return fmt.Errorf("conversion task already finished: %s", task.Status)
	}

	if cancel, ok := s.cancels[taskID]; ok {
		cancel()
	}
	return nil
}

// GetTask returns a conversion task by ID
func (s *Service) GetTask(taskID string) (*model.ConversionTask, bool) {
	s.tasksMutex.RLock()
	defer s.tasksMutex.RUnlock()
	task, exists := s.tasks[taskID]
	return task, exists
}

// run performs the actual conversion
func (s *Service) run(ctx context.Context, task *model.ConversionTask) {
	defer func() {
		s.tasksMutex.Lock()
		if cancel, ok := s.cancels[task.ID]; ok {
			cancel()
			delete(s.cancels, task.ID)
		}
		s.tasksMutex.Unlock()
	}()

	s.setStatus(task, model.TaskStatusStarting)

	if err := platform.CreateDirectoryIfNotExists(s.outputDir); err != nil {
		s.setTaskError(task, fmt.Errorf("failed to create output directory: %w", err))
		return
	}

	staging, err := os.CreateTemp(s.outputDir, StagingPattern)
	if err != nil {
		s.setTaskError(task, fmt.Errorf("failed to create staging file: %w", err))
		return
	}
	stagingPath := staging.Name()
	staging.Close()
	defer os.Remove(stagingPath)

	s.setStatus(task, model.TaskStatusConverting)

	switch task.Format.Emission {
	case mediatypes.EmissionNative:
		err = s.convertNative(task, stagingPath)
	case mediatypes.EmissionVips:
		err = s.convertVips(task, stagingPath)
	case mediatypes.EmissionFFmpeg:
		err = s.convertVideo(ctx, task, stagingPath)
	default:
		err = fmt.Errorf("no encoder for emission %s", task.Format.Emission)
	}

	if ctx.Err() == context.Canceled {
		s.setTaskError(task, fmt.Errorf("conversion canceled"))
		return
	}
	if err != nil {
		s.setTaskError(task, err)
		return
	}

	if err := platform.MoveFile(stagingPath, task.OutputPath); err != nil {
		s.setTaskError(task, fmt.Errorf("failed to place artifact: %w", err))
		return
	}

	s.tasksMutex.Lock()
	task.Status = model.TaskStatusCompleted
	task.Progress = 1.0
	task.Percent = 100
	task.FinishedAt = time.Now()
	s.tasksMutex.Unlock()

	logging.Info("converted %s to %s (%s)", task.InputName, task.Format.Token, task.OutputPath)
	s.notifyUpdate(task)
}

// setStatus transitions a task and notifies the UI
func (s *Service) setStatus(task *model.ConversionTask, status model.TaskStatus) {
	s.tasksMutex.Lock()
	task.Status = status
	s.tasksMutex.Unlock()
	s.notifyUpdate(task)
}

// setTaskError sets an error state for a task
func (s *Service) setTaskError(task *model.ConversionTask, err error) {
	logging.Error("conversion of %s failed: %v", task.InputName, err)

	s.tasksMutex.Lock()
	task.Status = model.TaskStatusError
	task.LastError = err.Error()
	task.FinishedAt = time.Now()
	s.tasksMutex.Unlock()

	s.notifyUpdate(task)
}

// notifyUpdate calls the update callback if set
func (s *Service) notifyUpdate(task *model.ConversionTask) {
	if s.onUpdate != nil {
		s.onUpdate(task)
	}
}

// generateTaskID generates a unique task ID using UUID v7 for better uniqueness and time ordering
func generateTaskID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to timestamp if UUID generation fails
		return fmt.Sprintf(TaskIDPrefix+"%d", time.Now().UnixNano())
	}
	return TaskIDPrefix + id.String()
}
