package pipeline

import "sync"

// Publisher holds the most recent encoded frame for each configured camera.
// One slot per camera, each with its own lock; a slot is overwritten every
// processing cycle and no history is kept. The streaming endpoint polls
// Latest and must never block when a camera has not produced a frame yet.
type Publisher struct {
	slots map[string]*frameSlot
}

type frameSlot struct {
	mu    sync.Mutex
	frame []byte
}

// NewPublisher creates one slot per camera label.
func NewPublisher(cameras []string) *Publisher {
	slots := make(map[string]*frameSlot, len(cameras))
	for _, cam := range cameras {
		slots[cam] = &frameSlot{}
	}
	return &Publisher{slots: slots}
}

// Publish stores the latest frame for a camera. Frames for unknown cameras
// are dropped.
func (p *Publisher) Publish(camera string, jpeg []byte) {
	slot, ok := p.slots[camera]
	if !ok {
		return
	}
	slot.mu.Lock()
	slot.frame = jpeg
	slot.mu.Unlock()
}

// Latest returns the most recent frame for a camera. The second result is
// false when the camera is unknown or has not published yet.
func (p *Publisher) Latest(camera string) ([]byte, bool) {
	slot, ok := p.slots[camera]
	if !ok {
		return nil, false
	}
	slot.mu.Lock()
	defer slot.mu.Unlock()
	if slot.frame == nil {
		return nil, false
	}
	return slot.frame, true
}

// Has reports whether the camera label is configured.
func (p *Publisher) Has(camera string) bool {
	_, ok := p.slots[camera]
	return ok
}

// Cameras returns the configured camera labels.
func (p *Publisher) Cameras() []string {
	cams := make([]string, 0, len(p.slots))
	for cam := range p.slots {
		cams = append(cams, cam)
	}
	return cams
}
