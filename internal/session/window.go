package session

import (
	"time"

	"gocv.io/x/gocv"
)

// WindowTitle is the title of the live preview window.
const WindowTitle = "Face + Eye Detection (Haar)"

// Window is a Display backed by an OpenCV HighGUI window.
type Window struct {
	w *gocv.Window
}

// NewWindow opens a titled HighGUI window.
func NewWindow(title string) *Window {
	return &Window{w: gocv.NewWindow(title)}
}

// Show draws img in the window.
func (w *Window) Show(img gocv.Mat) {
	w.w.IMShow(img)
}

// PollKey waits up to d for a keypress and returns its code, or -1.
// HighGUI has millisecond resolution and treats 0 as "block forever",
// so d is rounded up to at least 1ms.
func (w *Window) PollKey(d time.Duration) int {
	ms := int(d / time.Millisecond)
	if ms < 1 {
		ms = 1
	}
	return w.w.WaitKey(ms)
}

// Close destroys the window.
func (w *Window) Close() error {
	return w.w.Close()
}
