// Package form holds the per-session state of the token creation form.
package form

import (
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
	"sync"

	"token-forge/internal/domain"
)

// ErrInProgress is returned when a submission is already running.
var ErrInProgress = errors.New("a token creation is already in progress")

// NotificationTitle heads the transient error notification.
const NotificationTitle = "Error Creating Token"

// Notification is a transient message shown once.
type Notification struct {
	Title   string
	Message string
}

// State is the form content and UI status of one browser session.
// All methods are safe for concurrent use.
type State struct {
	mu sync.Mutex

	name          string
	symbol        string
	initialSupply uint64
	image         *domain.Image
	imagePreview  string

	status       string
	loading      bool
	result       *domain.CreationResult
	showResult   bool
	notification *Notification
}

// View is a point-in-time copy of State for rendering.
type View struct {
	Name          string
	Symbol        string
	InitialSupply uint64
	ImageName     string
	ImagePreview  string
	Status        string
	Loading       bool
	Result        *domain.CreationResult
	ShowResult    bool
	Notification  *Notification
}

// New returns an empty form.
func New() *State {
	return &State{}
}

// ParseSupply converts the supply input to whole tokens. Anything that is
// not a non-negative integer counts as zero.
func ParseSupply(s string) uint64 {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// SetFields stores the text inputs as typed. Inputs are locked while a
// submission runs.
func (s *State) SetFields(name, symbol string, supply uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loading {
		return ErrInProgress
	}
	s.name = name
	s.symbol = symbol
	s.initialSupply = supply
	return nil
}

// SetImage validates and stores the picked image with a data URL preview.
// A rejected image leaves the previous selection in place and raises a
// notification.
func (s *State) SetImage(filename, contentType string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.loading {
		return ErrInProgress
	}
	if err := domain.CheckImage(contentType, len(data)); err != nil {
		s.notification = &Notification{Message: err.Error()}
		return err
	}

	s.image = &domain.Image{
		Filename:    filename,
		ContentType: contentType,
		Data:        append([]byte(nil), data...),
	}
	s.imagePreview = "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
	return nil
}

// RejectImage raises the notification for an image that could not be read,
// leaving the inputs and the previous image in place.
func (s *State) RejectImage(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notification = &Notification{Message: err.Error()}
}

// Request returns the current form content as a token request.
func (s *State) Request() domain.TokenRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.TokenRequest{
		Name:          s.name,
		Symbol:        s.symbol,
		Image:         s.image,
		InitialSupply: s.initialSupply,
	}
}

// Begin marks a submission as running.
func (s *State) Begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loading {
		return ErrInProgress
	}
	s.loading = true
	s.status = ""
	return nil
}

// Busy reports whether a submission is running.
func (s *State) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Finish ends the running submission. On success the result is kept for
// display and the inputs are cleared; on failure the inputs stay so the user
// can resubmit.
func (s *State) Finish(result *domain.CreationResult, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false

	if err != nil {
		s.notification = &Notification{Title: NotificationTitle, Message: err.Error()}
		s.status = "Error: " + err.Error()
		return
	}

	s.result = result
	s.showResult = true
	s.resetLocked()
}

// Reset clears the inputs and the image preview.
func (s *State) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resetLocked()
}

func (s *State) resetLocked() {
	s.name = ""
	s.symbol = ""
	s.initialSupply = 0
	s.image = nil
	s.imagePreview = ""
}

// CloseResult hides the result dialog.
func (s *State) CloseResult() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.showResult = false
}

// Snapshot returns a copy for rendering and consumes the pending notification.
func (s *State) Snapshot() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		Name:          s.name,
		Symbol:        s.symbol,
		InitialSupply: s.initialSupply,
		ImagePreview:  s.imagePreview,
		Status:        s.status,
		Loading:       s.loading,
		ShowResult:    s.showResult && s.result != nil,
		Notification:  s.notification,
	}
	if s.image != nil {
		v.ImageName = s.image.Filename
	}
	if s.result != nil {
		r := *s.result
		v.Result = &r
	}
	s.notification = nil
	return v
}
