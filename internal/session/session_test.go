package session

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/devkota-labs/ocr-dataset-builder/internal/models"
	"github.com/devkota-labs/ocr-dataset-builder/internal/ocr"
	"github.com/devkota-labs/ocr-dataset-builder/internal/providers"
)

// echoProvider answers every call with a fixed string.
type echoProvider struct {
	text  string
	calls int
}

func (p *echoProvider) ExtractText(_ context.Context, _ providers.Config) (string, error) {
	p.calls++
	return p.text, nil
}

// gatedProvider blocks in ExtractText until released, so tests can act
// on the session mid-batch.
type gatedProvider struct {
	started chan struct{}
	release chan struct{}
}

func newGatedProvider() *gatedProvider {
	return &gatedProvider{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
}

func (p *gatedProvider) ExtractText(_ context.Context, _ providers.Config) (string, error) {
	select {
	case p.started <- struct{}{}:
	default:
	}
	<-p.release
	return "slow text", nil
}

func raster() image.Image {
	return image.NewRGBA(image.Rect(0, 0, 800, 600))
}

func newTestSession(names ...string) *Session {
	imgs := make([]models.SourceImage, 0, len(names))
	for _, name := range names {
		imgs = append(imgs, models.SourceImage{Name: name, Raster: raster()})
	}
	return New("test_1", imgs)
}

func drawBox(t *testing.T, s *Session, x, y float64) {
	t.Helper()
	if _, ok := s.AddBoxFromDrag(x, y, x+100, y+40); !ok {
		t.Fatalf("Box at (%v,%v) was not committed", x, y)
	}
}

func TestAddBoxFromDragThreshold(t *testing.T) {
	s := newTestSession("a.png")

	if _, ok := s.AddBoxFromDrag(0, 0, 10, 10); ok {
		t.Error("10x10 drag should be discarded")
	}
	if _, ok := s.AddBoxFromDrag(0, 0, 11, 11); !ok {
		t.Error("11x11 drag should be committed")
	}
	if got := len(s.View().Boxes); got != 1 {
		t.Errorf("Expected 1 stored box, got %d", got)
	}
}

func TestExtractPreconditions(t *testing.T) {
	svc := ocr.NewService(&echoProvider{text: "hi"})
	s := newTestSession("a.png")

	if err := s.Extract(context.Background(), svc, "key"); !errors.Is(err, ocr.ErrNoBoxes) {
		t.Errorf("Extract with no boxes: %v", err)
	}

	drawBox(t, s, 0, 0)
	if err := s.Extract(context.Background(), svc, ""); !errors.Is(err, ocr.ErrMissingAPIKey) {
		t.Errorf("Extract without api key: %v", err)
	}

	// Both preconditions leave the session untouched.
	view := s.View()
	if len(view.Records) != 0 || view.Stage != StageAnnotate || len(view.Boxes) != 1 {
		t.Errorf("Failed preconditions mutated session: %+v", view)
	}
}

func TestExtractAutoAdvanceScenario(t *testing.T) {
	provider := &echoProvider{text: "ground truth"}
	svc := ocr.NewService(provider)
	s := newTestSession("page1.png", "page2.png")

	// Image 1 gets two boxes.
	drawBox(t, s, 0, 0)
	drawBox(t, s, 200, 0)
	if err := s.Extract(context.Background(), svc, "key"); err != nil {
		t.Fatalf("First extract failed: %v", err)
	}

	view := s.View()
	if view.Stage != StageAnnotate {
		t.Fatalf("Expected to stay in annotate after image 1, got %q", view.Stage)
	}
	if view.CurrentImage != 1 {
		t.Fatalf("Expected auto-advance to image 2, at %d", view.CurrentImage)
	}
	if !view.Images[0].Processed || view.Images[1].Processed {
		t.Errorf("Processed flags wrong: %+v", view.Images)
	}
	if len(view.Boxes) != 0 {
		t.Errorf("Box store should clear after extraction, has %d", len(view.Boxes))
	}

	// Image 2 gets one box; extraction transitions to review.
	drawBox(t, s, 50, 50)
	if err := s.Extract(context.Background(), svc, "key"); err != nil {
		t.Fatalf("Second extract failed: %v", err)
	}

	view = s.View()
	if view.Stage != StageReview {
		t.Errorf("Expected review stage, got %q", view.Stage)
	}
	if view.Cursor != 0 {
		t.Errorf("Review cursor %d, want 0", view.Cursor)
	}
	if len(view.Records) != 3 {
		t.Fatalf("Expected 3 records total, got %d", len(view.Records))
	}
	if provider.calls != 3 {
		t.Errorf("Expected 3 provider calls, got %d", provider.calls)
	}

	// Records keep source attribution and per-image box indices.
	if view.Records[0].ImageID != 0 || view.Records[1].ImageID != 0 || view.Records[2].ImageID != 1 {
		t.Errorf("Image ids wrong: %d %d %d",
			view.Records[0].ImageID, view.Records[1].ImageID, view.Records[2].ImageID)
	}
	if view.Records[2].BoxIndex != 0 {
		t.Errorf("Image 2's record should restart box index at 0, got %d", view.Records[2].BoxIndex)
	}
}

func TestExtractRejectsReentrantBatch(t *testing.T) {
	provider := newGatedProvider()
	svc := ocr.NewService(provider)
	s := newTestSession("a.png")
	drawBox(t, s, 0, 0)

	done := make(chan error, 1)
	go func() { done <- s.Extract(context.Background(), svc, "key") }()
	<-provider.started

	if err := s.Extract(context.Background(), svc, "key"); !errors.Is(err, ErrBusy) {
		t.Errorf("Second extract during a running batch: %v, want ErrBusy", err)
	}

	close(provider.release)
	if err := <-done; err != nil {
		t.Fatalf("First extract failed: %v", err)
	}
	if calls := len(s.View().Records); calls != 1 {
		t.Errorf("Expected 1 record from the single batch, got %d", calls)
	}
}

func TestExtractKeepsSourceImageStableDuringBatch(t *testing.T) {
	provider := newGatedProvider()
	svc := ocr.NewService(provider)
	s := newTestSession("page1.png", "page2.png")
	drawBox(t, s, 0, 0)

	done := make(chan error, 1)
	go func() { done <- s.Extract(context.Background(), svc, "key") }()
	<-provider.started

	// Image advancement and box mutations must refuse while the batch
	// runs, otherwise its post-conditions would land on the wrong image.
	if err := s.NextImage(); !errors.Is(err, ErrBusy) {
		t.Errorf("NextImage during batch: %v, want ErrBusy", err)
	}
	if _, ok := s.AddBoxFromDrag(200, 200, 320, 260); ok {
		t.Error("Box committed during batch")
	}
	if s.UndoBox() {
		t.Error("UndoBox succeeded during batch")
	}
	if s.RemoveBox(1) {
		t.Error("RemoveBox succeeded during batch")
	}

	close(provider.release)
	if err := <-done; err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	view := s.View()
	if !view.Images[0].Processed || view.Images[1].Processed {
		t.Errorf("Processed flags wrong: %+v", view.Images)
	}
	if len(view.Records) != 1 || view.Records[0].ImageID != 0 {
		t.Fatalf("Record should come from image 0: %+v", view.Records)
	}
	if view.CurrentImage != 1 {
		t.Errorf("Expected auto-advance to image 1, at %d", view.CurrentImage)
	}
	if len(view.Boxes) != 0 {
		t.Errorf("Box store should be empty after the batch, has %d", len(view.Boxes))
	}
}

func TestManualNextImageClearsBoxes(t *testing.T) {
	s := newTestSession("a.png", "b.png")
	drawBox(t, s, 0, 0)

	if err := s.NextImage(); err != nil {
		t.Fatalf("NextImage failed: %v", err)
	}
	view := s.View()
	if view.CurrentImage != 1 || len(view.Boxes) != 0 {
		t.Errorf("Expected image 1 with empty box store, got image %d with %d boxes",
			view.CurrentImage, len(view.Boxes))
	}

	if err := s.NextImage(); !errors.Is(err, ErrNoMoreImages) {
		t.Errorf("NextImage at last image: %v", err)
	}
}

func TestUndoAndRemoveBox(t *testing.T) {
	s := newTestSession("a.png")
	first, _ := s.AddBoxFromDrag(0, 0, 100, 40)
	s.AddBoxFromDrag(0, 100, 100, 140)

	if !s.UndoBox() {
		t.Fatal("UndoBox failed")
	}
	if !s.RemoveBox(first.ID) {
		t.Fatal("RemoveBox failed")
	}
	if s.RemoveBox(first.ID) {
		t.Error("RemoveBox of missing id should fail")
	}
	if len(s.View().Boxes) != 0 {
		t.Error("Expected empty box store")
	}
}

func TestEnterReviewRequiresRecords(t *testing.T) {
	s := newTestSession("a.png")
	if err := s.EnterReview(); err == nil {
		t.Error("EnterReview with no records should fail")
	}

	svc := ocr.NewService(&echoProvider{text: "x"})
	drawBox(t, s, 0, 0)
	if err := s.Extract(context.Background(), svc, "key"); err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	// Single image: extraction moved us to review already. Going back to
	// annotate and re-entering review must work.
	s.EnterAnnotate()
	if err := s.EnterReview(); err != nil {
		t.Errorf("EnterReview with records failed: %v", err)
	}
}

func TestRejectDoesNotCommitEdit(t *testing.T) {
	svc := ocr.NewService(&echoProvider{text: "original"})
	s := newTestSession("a.png")
	drawBox(t, s, 0, 0)
	if err := s.Extract(context.Background(), svc, "key"); err != nil {
		t.Fatalf("Extract failed: %v", err)
	}

	if err := s.ToggleEdit(); err != nil {
		t.Fatalf("ToggleEdit failed: %v", err)
	}
	s.SetEditText("edited value")
	if err := s.Reject(); err != nil {
		t.Fatalf("Reject failed: %v", err)
	}

	view := s.View()
	if view.Records[0].Text != "original" {
		t.Errorf("Reject committed the edit: %q", view.Records[0].Text)
	}
	if view.Records[0].Status != models.StatusRejected {
		t.Errorf("Status %q", view.Records[0].Status)
	}
}

func TestViewportOpsDoNotTouchBoxes(t *testing.T) {
	s := newTestSession("a.png")
	added, _ := s.AddBoxFromDrag(10, 10, 120, 60)

	s.ZoomIn()
	s.Rotate()
	s.ZoomOut()
	s.ResetView()

	boxesAfter := s.View().Boxes
	if len(boxesAfter) != 1 || boxesAfter[0] != added {
		t.Errorf("Viewport changes altered boxes: %+v", boxesAfter)
	}
}
