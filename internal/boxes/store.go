package boxes

import (
	"time"

	"github.com/devkota-labs/ocr-dataset-builder/internal/models"
)

// Store is the ordered collection of bounding boxes for the image
// currently being annotated. It is cleared wholesale whenever the active
// image advances; boxes never migrate between images.
type Store struct {
	list   []models.BoundingBox
	lastID int64
}

// New returns an empty box store.
func New() *Store {
	return &Store{}
}

// Add appends a candidate box with a freshly minted id and returns the
// stored box. IDs are time-based and strictly monotonic, so two boxes
// added in the same millisecond still get distinct ids.
func (s *Store) Add(candidate models.BoundingBox) models.BoundingBox {
	id := time.Now().UnixMilli()
	if id <= s.lastID {
		id = s.lastID + 1
	}
	s.lastID = id
	candidate.ID = id
	s.list = append(s.list, candidate)
	return candidate
}

// RemoveByID filters out the box with the given id. Returns false when no
// such box exists.
func (s *Store) RemoveByID(id int64) bool {
	for i, box := range s.list {
		if box.ID == id {
			s.list = append(s.list[:i], s.list[i+1:]...)
			return true
		}
	}
	return false
}

// Undo drops the most recently added box. Returns false when the store is
// empty.
func (s *Store) Undo() bool {
	if len(s.list) == 0 {
		return false
	}
	s.list = s.list[:len(s.list)-1]
	return true
}

// Clear empties the store.
func (s *Store) Clear() {
	s.list = nil
}

// List returns the boxes in draw order.
func (s *Store) List() []models.BoundingBox {
	out := make([]models.BoundingBox, len(s.list))
	copy(out, s.list)
	return out
}

// Len returns the number of stored boxes.
func (s *Store) Len() int {
	return len(s.list)
}
