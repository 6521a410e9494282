package recorder

import (
	"sync"

	"cue-stack/internal/models"
)

// stateHolder guards the pipeline state. Transitions are validated under the
// lock so two surfaces racing to start a recording cannot both win.
type stateHolder struct {
	mu      sync.Mutex
	current models.PipelineState
}

func (h *stateHolder) get() models.PipelineState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

func (h *stateHolder) set(s models.PipelineState) {
	h.mu.Lock()
	h.current = s
	h.mu.Unlock()
}

// transition applies fn to the current state. fn returns the next state and
// whether the transition is allowed; disallowed transitions leave the state
// untouched.
func (h *stateHolder) transition(fn func(models.PipelineState) (models.PipelineState, bool)) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	next, ok := fn(h.current)
	if !ok {
		return false
	}
	h.current = next
	return true
}
