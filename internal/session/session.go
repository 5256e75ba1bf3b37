package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/devkota-labs/ocr-dataset-builder/internal/boxes"
	"github.com/devkota-labs/ocr-dataset-builder/internal/geometry"
	"github.com/devkota-labs/ocr-dataset-builder/internal/models"
	"github.com/devkota-labs/ocr-dataset-builder/internal/ocr"
	"github.com/devkota-labs/ocr-dataset-builder/internal/review"
)

// Stage is the pipeline stage the session is in.
type Stage string

const (
	StageAnnotate Stage = "annotate"
	StageReview   Stage = "review"
)

var (
	// ErrBusy means an extraction batch is already running for this
	// session. There is no mid-batch abort short of cancelling the
	// request context.
	ErrBusy = errors.New("extraction already in progress")

	// ErrNoMoreImages means a manual advance was requested at the last
	// image.
	ErrNoMoreImages = errors.New("no more images to annotate")
)

// Session owns the full annotate-extract-review lifecycle for one upload
// batch. All state is in-memory and lives until the session is deleted.
// Methods are safe for concurrent use.
type Session struct {
	mu sync.Mutex

	id        string
	createdAt time.Time
	stage     Stage
	images    []models.SourceImage
	current   int
	viewport  geometry.Viewport
	boxes     *boxes.Store
	machine   review.Machine

	processing bool
}

// New creates a session over an upload batch. Image ids are assigned
// zero-based in upload order.
func New(id string, imgs []models.SourceImage) *Session {
	for i := range imgs {
		imgs[i].ID = i
	}
	return &Session{
		id:        id,
		createdAt: time.Now(),
		stage:     StageAnnotate,
		images:    imgs,
		viewport:  geometry.NewViewport(),
		boxes:     boxes.New(),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// Stage returns the current pipeline stage.
func (s *Session) Stage() Stage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stage
}

// AddBoxFromDrag turns a pointer drag into a stored box. Sub-threshold
// candidates are silently discarded and reported as uncommitted, as are
// drags arriving while an extraction batch is running.
func (s *Session) AddBoxFromDrag(x0, y0, x1, y1 float64) (models.BoundingBox, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.processing {
		return models.BoundingBox{}, false
	}
	candidate := geometry.BoxFromDrag(x0, y0, x1, y1)
	if !geometry.Committable(candidate) {
		return models.BoundingBox{}, false
	}
	return s.boxes.Add(candidate), true
}

// RemoveBox deletes one box by id. Refused while an extraction batch is
// running.
func (s *Session) RemoveBox(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.processing {
		return false
	}
	return s.boxes.RemoveByID(id)
}

// UndoBox drops the most recently drawn box. Refused while an extraction
// batch is running.
func (s *Session) UndoBox() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.processing {
		return false
	}
	return s.boxes.Undo()
}

// Viewport ops. Boxes are defined in overlay space, so none of these
// touch the box list.

func (s *Session) ZoomIn()    { s.mu.Lock(); defer s.mu.Unlock(); s.viewport.ZoomIn() }
func (s *Session) ZoomOut()   { s.mu.Lock(); defer s.mu.Unlock(); s.viewport.ZoomOut() }
func (s *Session) Rotate()    { s.mu.Lock(); defer s.mu.Unlock(); s.viewport.Rotate() }
func (s *Session) ResetView() { s.mu.Lock(); defer s.mu.Unlock(); s.viewport.Reset() }

// NextImage manually advances to the next image, clearing the box list.
// Refused while an extraction batch is running so the batch's source
// image cannot change under it.
func (s *Session) NextImage() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.processing {
		return ErrBusy
	}
	if s.current >= len(s.images)-1 {
		return ErrNoMoreImages
	}
	s.current++
	s.boxes.Clear()
	return nil
}

// CurrentImage returns the image being annotated.
func (s *Session) CurrentImage() (models.SourceImage, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current >= len(s.images) {
		return models.SourceImage{}, false
	}
	return s.images[s.current], true
}

// Extract runs the current image's boxes through the extraction service.
// On success the image is marked processed, its boxes are cleared, and
// the session either advances to the next unprocessed image or enters
// review with the cursor reset. Rejects reentrant calls while a batch is
// running.
func (s *Session) Extract(ctx context.Context, svc *ocr.Service, apiKey string) error {
	s.mu.Lock()
	if s.processing {
		s.mu.Unlock()
		return ErrBusy
	}
	if s.boxes.Len() == 0 {
		s.mu.Unlock()
		return ocr.ErrNoBoxes
	}
	if apiKey == "" {
		s.mu.Unlock()
		return ocr.ErrMissingAPIKey
	}
	idx := s.current
	img := s.images[idx]
	boxList := s.boxes.List()
	s.processing = true
	s.mu.Unlock()

	// Network calls run outside the lock. The processing flag rejects a
	// second batch and makes image advancement and box mutations refuse
	// until this one finishes.
	records, err := svc.ExtractBoxes(ctx, img, boxList)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.processing = false
	if err != nil {
		return err
	}

	s.machine.Append(records...)
	s.images[idx].Processed = true
	s.boxes.Clear()

	if next, ok := s.nextUnprocessed(); ok {
		s.current = next
		slog.Info("Advancing to next image", "session", s.id, "image", s.images[next].Name)
	} else {
		s.stage = StageReview
		s.machine.Reset()
		slog.Info("All images processed, entering review", "session", s.id, "records", s.machine.Len())
	}
	return nil
}

// nextUnprocessed finds the first image in upload order whose boxes have
// not been extracted yet.
func (s *Session) nextUnprocessed() (int, bool) {
	for i, img := range s.images {
		if !img.Processed {
			return i, true
		}
	}
	return 0, false
}

// EnterReview switches to the review stage once records exist.
func (s *Session) EnterReview() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.machine.Len() == 0 {
		return review.ErrNoRecords
	}
	s.stage = StageReview
	return nil
}

// EnterAnnotate returns to the annotation stage.
func (s *Session) EnterAnnotate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stage = StageAnnotate
}

// Review transitions, delegated to the state machine under the lock.

func (s *Session) Approve() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.Approve()
}

func (s *Session) Reject() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.Reject()
}

func (s *Session) ToggleEdit() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.ToggleEdit()
}

func (s *Session) SetEditText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.machine.SetEditText(text)
}

func (s *Session) Navigate(delta int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.machine.Navigate(delta)
}

// Record returns a copy of the record with the given id.
func (s *Session) Record(id string) (models.ExtractionRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.machine.Records {
		if rec.ID == id {
			return rec, true
		}
	}
	return models.ExtractionRecord{}, false
}

// ApprovedRecords returns the approved records in list order.
func (s *Session) ApprovedRecords() []models.ExtractionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.machine.Approved()
}

// View is the serializable snapshot of a session.
type View struct {
	ID           string                    `json:"id"`
	Stage        Stage                     `json:"stage"`
	Images       []models.SourceImage      `json:"images"`
	CurrentImage int                       `json:"current_image"`
	Viewport     geometry.Viewport         `json:"viewport"`
	Boxes        []models.BoundingBox      `json:"boxes"`
	Records      []models.ExtractionRecord `json:"records"`
	Cursor       int                       `json:"cursor"`
	Editing      bool                      `json:"editing"`
	EditText     string                    `json:"edit_text"`
	Counts       review.Counts             `json:"counts"`
	Processing   bool                      `json:"processing"`
	CreatedAt    time.Time                 `json:"created_at"`
}

// View snapshots the session for API responses.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := make([]models.ExtractionRecord, len(s.machine.Records))
	copy(records, s.machine.Records)

	return View{
		ID:           s.id,
		Stage:        s.stage,
		Images:       append([]models.SourceImage(nil), s.images...),
		CurrentImage: s.current,
		Viewport:     s.viewport,
		Boxes:        s.boxes.List(),
		Records:      records,
		Cursor:       s.machine.Cursor,
		Editing:      s.machine.Editing,
		EditText:     s.machine.EditText,
		Counts:       s.machine.Counts(),
		Processing:   s.processing,
		CreatedAt:    s.createdAt,
	}
}
