package review

import (
	"errors"

	"github.com/devkota-labs/ocr-dataset-builder/internal/models"
)

// ErrNoRecords means a review transition was requested before any
// extraction has produced records.
var ErrNoRecords = errors.New("no extraction records to review")

// Machine holds the full ordered record list across all images, the
// review cursor, and the edit buffer. Transitions are total: every
// operation leaves the cursor inside [0, len-1] and clears edit state on
// any cursor change, so a stale buffer can never leak into an unrelated
// record.
type Machine struct {
	Records  []models.ExtractionRecord `json:"records"`
	Cursor   int                       `json:"cursor"`
	Editing  bool                      `json:"editing"`
	EditText string                    `json:"edit_text"`
}

// Counts are derived from the record list on demand, never tracked
// separately, so they cannot drift.
type Counts struct {
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
	Pending  int `json:"pending"`
}

// Append adds freshly extracted records to the end of the review queue.
func (m *Machine) Append(records ...models.ExtractionRecord) {
	m.Records = append(m.Records, records...)
}

// Len returns the total record count.
func (m *Machine) Len() int {
	return len(m.Records)
}

// Current returns the record under the cursor, or nil when empty.
func (m *Machine) Current() *models.ExtractionRecord {
	if len(m.Records) == 0 {
		return nil
	}
	return &m.Records[m.Cursor]
}

// Approve marks the current record approved, committing the edit buffer
// first when editing, then advances the cursor. At the last record the
// cursor stays put.
func (m *Machine) Approve() error {
	rec := m.Current()
	if rec == nil {
		return ErrNoRecords
	}
	if m.Editing {
		rec.Text = m.EditText
	}
	rec.Status = models.StatusApproved
	m.clearEdit()
	m.advance()
	return nil
}

// Reject marks the current record rejected and advances. The edit buffer
// is discarded, never committed.
func (m *Machine) Reject() error {
	rec := m.Current()
	if rec == nil {
		return ErrNoRecords
	}
	rec.Status = models.StatusRejected
	m.clearEdit()
	m.advance()
	return nil
}

// ToggleEdit enters edit mode seeded with the current record's text, or
// leaves it discarding the buffer. Commit happens only through Approve.
func (m *Machine) ToggleEdit() error {
	if m.Editing {
		m.clearEdit()
		return nil
	}
	rec := m.Current()
	if rec == nil {
		return ErrNoRecords
	}
	m.Editing = true
	m.EditText = rec.Text
	return nil
}

// SetEditText updates the edit buffer. A no-op outside edit mode.
func (m *Machine) SetEditText(text string) {
	if m.Editing {
		m.EditText = text
	}
}

// Navigate moves the cursor by delta, clamped to the record range. Edit
// state is cleared whenever the cursor actually moves.
func (m *Machine) Navigate(delta int) {
	if len(m.Records) == 0 {
		return
	}
	next := m.Cursor + delta
	if next < 0 {
		next = 0
	}
	if next > len(m.Records)-1 {
		next = len(m.Records) - 1
	}
	if next != m.Cursor {
		m.Cursor = next
		m.clearEdit()
	}
}

// Reset puts the cursor back at the first record and drops edit state.
func (m *Machine) Reset() {
	m.Cursor = 0
	m.clearEdit()
}

// Counts tallies records by status.
func (m *Machine) Counts() Counts {
	var c Counts
	for _, rec := range m.Records {
		switch rec.Status {
		case models.StatusApproved:
			c.Approved++
		case models.StatusRejected:
			c.Rejected++
		default:
			c.Pending++
		}
	}
	return c
}

// Approved returns the approved records in list order.
func (m *Machine) Approved() []models.ExtractionRecord {
	var out []models.ExtractionRecord
	for _, rec := range m.Records {
		if rec.Status == models.StatusApproved {
			out = append(out, rec)
		}
	}
	return out
}

func (m *Machine) advance() {
	if m.Cursor < len(m.Records)-1 {
		m.Cursor++
	}
}

func (m *Machine) clearEdit() {
	m.Editing = false
	m.EditText = ""
}
