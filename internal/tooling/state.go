package tooling

import (
	"sync"
	"time"
)

// Quiet is the timed "stop talking" flag.
type Quiet struct {
	mu    sync.Mutex
	until time.Time
	now   func() time.Time
}

// NewQuiet returns a cleared Quiet flag.
func NewQuiet() *Quiet {
	return &Quiet{now: time.Now}
}

// SetFor silences the avatar for d. A non-positive duration silences it
// until Resume is called.
func (q *Quiet) SetFor(d time.Duration) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if d <= 0 {
		// Far enough in the future to behave as "until resumed".
		q.until = q.now().Add(24 * time.Hour)
		return
	}
	q.until = q.now().Add(d)
}

// Resume clears the flag.
func (q *Quiet) Resume() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.until = time.Time{}
}

// Active reports whether quiet mode is in effect.
func (q *Quiet) Active() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.now().Before(q.until)
}

// Camera tracks whether the kiosk camera is on and the last captured
// frame, which send_email_picture falls back to when no URL is given.
type Camera struct {
	mu        sync.Mutex
	active    bool
	lastImage string
}

// NewCamera returns a Camera in the off state.
func NewCamera() *Camera {
	return &Camera{}
}

// SetActive records the camera state.
func (c *Camera) SetActive(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.active = on
}

// Active reports whether the camera is on.
func (c *Camera) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// SetLastImage records the most recent captured frame URL.
func (c *Camera) SetLastImage(url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastImage = url
	if url != "" {
		c.active = true
	}
}

// LastImage returns the most recent captured frame URL.
func (c *Camera) LastImage() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastImage
}
