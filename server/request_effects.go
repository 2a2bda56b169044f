package server

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/jrsteele09/go-partner-dashboard/gateway"
	"github.com/rs/zerolog/log"
)

// toastEvent is the client-side event name carried in HX-Trigger
const toastEvent = "showToast"

type toast struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

var (
	_ gateway.Navigator = (*requestEffects)(nil)
	_ gateway.Notifier  = (*requestEffects)(nil)
)

// requestEffects collects what the gateway asks of the user interface while
// serving one browser request, so the handler can replay it as response headers
type requestEffects struct {
	mu       sync.Mutex
	toasts   []toast
	signedIn bool
}

func (e *requestEffects) SignIn() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.signedIn = true
}

func (e *requestEffects) Success(message string) {
	e.add(toast{Level: "success", Message: message})
}

func (e *requestEffects) Error(message string) {
	e.add(toast{Level: "error", Message: message})
}

func (e *requestEffects) add(t toast) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.toasts = append(e.toasts, t)
}

// signInRequested reports whether the gateway ended the session
func (e *requestEffects) signInRequested() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.signedIn
}

// writeTrigger sets HX-Trigger with the collected toasts. Call before WriteHeader.
func (e *requestEffects) writeTrigger(w http.ResponseWriter) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.toasts) == 0 {
		return
	}
	data, err := json.Marshal(map[string][]toast{toastEvent: e.toasts})
	if err != nil {
		log.Err(err).Msg("Failed to encode toasts")
		return
	}
	w.Header().Set("HX-Trigger", string(data))
}
