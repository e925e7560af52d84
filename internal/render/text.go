package render

import "fmt"

// Color is an 8-bit RGBA color.
type Color struct {
	R, G, B, A uint8
}

// Common colors used by the engine's own overlay drawing.
var (
	White  = Color{255, 255, 255, 255}
	Yellow = Color{255, 220, 0, 255}
)

// TextRenderer queues positioned text draws and flushes them to the
// presenter during the HUD pass. Queue calls are only legal from the
// loop goroutine (handlers run there), so no locking is needed.
type TextRenderer struct {
	presenter Presenter
	queued    []TextDraw
}

// NewTextRenderer creates a text renderer bound to a presenter.
func NewTextRenderer(p Presenter) *TextRenderer {
	return &TextRenderer{presenter: p}
}

// Render queues a formatted text run at a viewport position.
func (t *TextRenderer) Render(x, y int, size int, color Color, format string, args ...any) {
	t.queued = append(t.queued, TextDraw{
		X: x, Y: y, Size: size, Color: color,
		Text: fmt.Sprintf(format, args...),
	})
}

// Flush sends queued draws to the presenter and clears the queue.
// The engine calls this at the end of the HUD pass.
func (t *TextRenderer) Flush() {
	for _, d := range t.queued {
		t.presenter.DrawText(d.X, d.Y, d.Size, d.Color, d.Text)
	}
	t.queued = t.queued[:0]
}

// Pending returns the number of queued draws. Used by tests.
func (t *TextRenderer) Pending() int { return len(t.queued) }

// OverlayLine formats the debug overlay text: engine version plus the
// measured frame rate. Kept as a pure function so the format is covered
// by a golden test.
func OverlayLine(version string, fps float64) string {
	return fmt.Sprintf("citadel %s | %.1f fps", version, fps)
}
