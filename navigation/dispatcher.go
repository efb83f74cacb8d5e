package navigation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/c360studio/proteus/markup"
	"github.com/c360studio/proteus/model"
)

// Dispatch errors.
var (
	// ErrEmptyID is returned for an intent without an object id.
	ErrEmptyID = errors.New("intent has no object id")

	// ErrProjectTarget is returned when an intent targets the project
	// itself instead of one of its objects.
	ErrProjectTarget = errors.New("intent targets the project")

	// ErrUnknownIntent is returned for intents the dispatcher cannot act on.
	ErrUnknownIntent = errors.New("unknown intent")
)

// Action is what the dispatcher did with an intent.
type Action string

// Dispatch actions.
const (
	ActionSelect         Action = "select"
	ActionSwitchDocument Action = "switch-document"
	ActionOpenProperties Action = "open-properties"
	ActionCancelled      Action = "cancelled"
)

// Result describes the outcome of a dispatched intent.
type Result struct {
	Action     Action `json:"action"`
	ObjectID   string `json:"object_id"`
	DocumentID string `json:"document_id"`
}

// Translator looks up localized strings for the confirmation prompt.
type Translator interface {
	Text(key string, args ...any) string
}

// Confirmer asks the user whether to leave the current document.
type Confirmer interface {
	Confirm(ctx context.Context, title, text string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, title, text string) (bool, error)

// Confirm calls f.
func (f ConfirmFunc) Confirm(ctx context.Context, title, text string) (bool, error) {
	return f(ctx, title, text)
}

// State is the host's current document and object selection.
type State struct {
	mu       sync.RWMutex
	document string
	object   string
}

// NewState creates a state with documentID open and nothing selected.
func NewState(documentID string) *State {
	return &State{document: documentID}
}

// Current returns the open document and selected object ids.
func (s *State) Current() (documentID, objectID string) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.document, s.object
}

// Select opens documentID and selects objectID in it.
func (s *State) Select(documentID, objectID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.document = documentID
	s.object = objectID
}

// Dispatcher acts on navigation intents against a project.
type Dispatcher struct {
	project    *model.Project
	state      *State
	confirmer  Confirmer
	translator Translator
	publisher  Publisher
	logger     *slog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithConfirmer sets the prompt used before switching documents. Without
// one, switches are accepted.
func WithConfirmer(c Confirmer) Option {
	return func(d *Dispatcher) {
		d.confirmer = c
	}
}

// WithTranslator sets the translator for prompt strings.
func WithTranslator(t Translator) Option {
	return func(d *Dispatcher) {
		d.translator = t
	}
}

// WithPublisher sets where dispatched events are published.
func WithPublisher(p Publisher) Option {
	return func(d *Dispatcher) {
		d.publisher = p
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// NewDispatcher creates a dispatcher over project keeping the selection in
// state.
func NewDispatcher(project *model.Project, state *State, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		project: project,
		state:   state,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// State returns the dispatcher's selection state.
func (d *Dispatcher) State() *State {
	return d.state
}

// Dispatch resolves the intent's object and acts on it. Selecting an
// object in another document asks the confirmer first; a declined prompt
// leaves the state unchanged.
func (d *Dispatcher) Dispatch(ctx context.Context, in Intent) (Result, error) {
	if in.ObjectID == "" {
		return Result{}, ErrEmptyID
	}

	var objName, docID, docName string
	err := d.project.View(func() error {
		if in.ObjectID == d.project.ID() {
			return fmt.Errorf("%w: %s", ErrProjectTarget, in.ObjectID)
		}
		obj, ok := d.project.Lookup(in.ObjectID)
		if !ok {
			return fmt.Errorf("dispatch %s: %w", in.ObjectID, model.ErrObjectNotFound)
		}
		doc := obj.Document()
		if doc == nil {
			return fmt.Errorf("dispatch %s: no owning document: %w", in.ObjectID, model.ErrObjectNotFound)
		}
		objName, docID, docName = obj.Name(), doc.ID, doc.Name()
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	result := Result{ObjectID: in.ObjectID, DocumentID: docID}
	current, _ := d.state.Current()

	switch in.Action {
	case markup.IntentOpenProperties:
		d.logger.Debug("Open properties requested", "id", in.ObjectID)
		result.Action = ActionOpenProperties

	case markup.IntentSelectAndNavigate:
		if current == docID {
			d.state.Select(docID, in.ObjectID)
			result.Action = ActionSelect
			break
		}

		ok, err := d.confirm(ctx, objName, docName)
		if err != nil {
			return Result{}, fmt.Errorf("confirm document switch: %w", err)
		}
		if !ok {
			d.logger.Debug("Document switch declined", "id", in.ObjectID, "document", docID)
			result.Action = ActionCancelled
			return result, nil
		}
		d.state.Select(docID, in.ObjectID)
		result.Action = ActionSwitchDocument

	default:
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownIntent, in.Action)
	}

	d.publish(ctx, in, result, current)
	return result, nil
}

func (d *Dispatcher) confirm(ctx context.Context, objName, docName string) (bool, error) {
	if d.confirmer == nil {
		return true, nil
	}
	title, text := "document.navigation.request.title", "document.navigation.request.text"
	if d.translator != nil {
		title = d.translator.Text(title)
		text = d.translator.Text(text, objName, docName)
	}
	return d.confirmer.Confirm(ctx, title, text)
}

func (d *Dispatcher) publish(ctx context.Context, in Intent, result Result, previous string) {
	if d.publisher == nil {
		return
	}
	ev := Event{
		Intent:           in.Action,
		Action:           result.Action,
		ObjectID:         result.ObjectID,
		DocumentID:       result.DocumentID,
		PreviousDocument: previous,
		Timestamp:        time.Now().UTC(),
	}
	if err := d.publisher.Publish(ctx, ev); err != nil {
		// The action already happened locally.
		d.logger.Warn("Failed to publish navigation event", "id", in.ObjectID, "error", err)
	}
}
