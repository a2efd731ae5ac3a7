package browser

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"storformat/core/engine"
	"storformat/core/interaction"
	"storformat/core/types"
	"storformat/internal/errors"
)

// BindingName is the page function that carries events to Go
const BindingName = "__storformatEmit"

// OverlayID is the id of the element the overlay is injected into
const OverlayID = "storformat-overlay"

const eventBuffer = 256

// gestureEndWait bounds how long a full queue may delay a pointer up or cancel
const gestureEndWait = 500 * time.Millisecond

// EventType says what happened in the page
type EventType string

const (
	EventMutation EventType = "mutation"
	EventResize   EventType = "resize"
	EventLoad     EventType = "load"
	EventPointer  EventType = "pointer"
	EventUpload   EventType = "upload"
	EventFoil     EventType = "foil"
	EventCheckout EventType = "checkout"
)

// Layer names the overlay layer a pointer event belongs to
type Layer string

const (
	LayerDesign Layer = "design"
	LayerFoil   Layer = "foil"
)

// FoilAction is a foil editor command
type FoilAction string

const (
	FoilAdd    FoilAction = "add"
	FoilRemove FoilAction = "remove"
	FoilSelect FoilAction = "select"
	FoilUpdate FoilAction = "update"
)

// Event is one message from the page
type Event struct {
	Type EventType `json:"type"`

	// pointer
	Layer   Layer                    `json:"layer,omitempty"`
	Pointer interaction.PointerEvent `json:"pointer"`

	// upload: Data is base64
	Name string `json:"name,omitempty"`
	Data string `json:"data,omitempty"`

	// foil
	Action FoilAction            `json:"action,omitempty"`
	FoilID int                   `json:"foilId,omitempty"`
	Text   string                `json:"text,omitempty"`
	Foil   *types.CutLettersFoil `json:"foil,omitempty"`
}

// DecodeEvent parses a binding payload
func DecodeEvent(payload string) (Event, error) {
	var ev Event
	if err := json.Unmarshal([]byte(payload), &ev); err != nil {
		return ev, errors.Wrap(errors.TypeInput, "decode page event", err)
	}
	switch ev.Type {
	case EventMutation, EventResize, EventLoad, EventPointer, EventUpload, EventFoil, EventCheckout:
		return ev, nil
	default:
		return ev, errors.Input("unknown page event").WithContext("type", string(ev.Type))
	}
}

// Apply runs an editing event against st and reports whether anything changed.
// Sync triggers and checkout are not editing events and report false.
func Apply(ctx context.Context, st *engine.EngineState, ev Event) (bool, error) {
	switch ev.Type {
	case EventPointer:
		if ev.Layer == LayerFoil {
			return st.HandleFoilPointer(ev.Pointer), nil
		}
		return st.HandleDesignPointer(ev.Pointer), nil
	case EventUpload:
		data, err := base64.StdEncoding.DecodeString(ev.Data)
		if err != nil {
			return false, errors.Wrap(errors.TypeInput, "decode upload", err)
		}
		if len(data) == 0 {
			st.ClearUpload(ctx)
			return true, nil
		}
		if _, err := st.SetUpload(ctx, data, ev.Name); err != nil {
			return false, err
		}
		return true, nil
	case EventFoil:
		return applyFoil(st, ev), nil
	default:
		return false, nil
	}
}

func applyFoil(st *engine.EngineState, ev Event) bool {
	switch ev.Action {
	case FoilAdd:
		st.AddFoil(ev.Text)
		return true
	case FoilRemove:
		return st.RemoveFoil(ev.FoilID)
	case FoilSelect:
		return st.SelectFoil(ev.FoilID)
	case FoilUpdate:
		if ev.Foil == nil {
			return false
		}
		next := *ev.Foil
		return st.UpdateFoil(ev.FoilID, func(f *types.CutLettersFoil) {
			next.ID = f.ID
			*f = next
		})
	default:
		return false
	}
}

// Listen installs the page bindings and calls handle for every event, in page order,
// on one goroutine. It returns once the bindings are installed.
func (s *Session) Listen(ctx context.Context, handle func(context.Context, Event)) error {
	events := make(chan Event, eventBuffer)
	chromedp.ListenTarget(s.ctx, func(v any) {
		called, ok := v.(*runtime.EventBindingCalled)
		if !ok || called.Name != BindingName {
			return
		}
		ev, err := DecodeEvent(called.Payload)
		if err != nil {
			s.log.Debug("page event dropped", zap.Error(err))
			return
		}
		if !enqueue(s.ctx, events, ev) {
			s.log.Debug("page event queue full", zap.String("type", string(ev.Type)))
		}
	})

	install := chromedp.ActionFunc(func(ctx context.Context) error {
		if err := runtime.AddBinding(BindingName).Do(ctx); err != nil {
			return err
		}
		_, err := page.AddScriptToEvaluateOnNewDocument(bindingScript).Do(ctx)
		return err
	})
	if err := s.run(ctx, install, chromedp.Evaluate(bindingScript, nil)); err != nil {
		return errors.Browser("install bindings", err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.ctx.Done():
				return
			case ev := <-events:
				handle(ctx, ev)
			}
		}
	}()
	return nil
}

// endsGesture reports whether ev releases a tracked pointer
func (ev Event) endsGesture() bool {
	return ev.Type == EventPointer &&
		(ev.Pointer.Kind == interaction.PointerUp || ev.Pointer.Kind == interaction.PointerCancel)
}

// enqueue adds ev to events without blocking. Pointer up and cancel wait for room, up to
// gestureEndWait, so a drag is not left open when the queue is full.
func enqueue(ctx context.Context, events chan<- Event, ev Event) bool {
	select {
	case events <- ev:
		return true
	default:
	}
	if !ev.endsGesture() {
		return false
	}
	t := time.NewTimer(gestureEndWait)
	defer t.Stop()
	select {
	case events <- ev:
		return true
	case <-ctx.Done():
		return false
	case <-t.C:
		return false
	}
}

// bindingScript forwards page mutations, resizes and overlay pointer events
const bindingScript = `(() => {
  if (window.__storformatInstalled || !document.body) return;
  window.__storformatInstalled = true;
  const emit = (ev) => { try { window.` + BindingName + `(JSON.stringify(ev)); } catch (e) {} };
  const inOverlay = (n) => { const el = n && (n.nodeType === 1 ? n : n.parentElement); return !!(el && el.closest('#` + OverlayID + `')); };
  new MutationObserver((records) => {
    if (records.some((r) => !inOverlay(r.target))) emit({type: 'mutation'});
  }).observe(document.body, {subtree: true, childList: true, attributes: true, characterData: true});
  window.addEventListener('resize', () => emit({type: 'resize'}));
  window.addEventListener('load', () => emit({type: 'load'}));
  let active = null;
  const send = (kind, ev, target) => {
    const r = active.svg.getBoundingClientRect();
    const vb = active.svg.viewBox.baseVal;
    const sx = r.width ? vb.width / r.width : 1, sy = r.height ? vb.height / r.height : 1;
    emit({type: 'pointer', layer: active.layer, pointer: {
      pointerId: ev.pointerId, kind, target,
      x: (ev.clientX - r.left) * sx, y: (ev.clientY - r.top) * sy, foilId: active.foilId}});
  };
  document.addEventListener('pointerdown', (ev) => {
    const el = ev.target.closest && ev.target.closest('#` + OverlayID + ` [data-target], #` + OverlayID + ` [data-foil-id]');
    if (!el) return;
    const foil = el.closest('[data-foil-id]');
    active = {svg: el.closest('svg'), layer: foil ? 'foil' : 'design', foilId: foil ? Number(foil.getAttribute('data-foil-id')) : 0};
    ev.preventDefault();
    send('down', ev, el.getAttribute('data-target') || 'body');
  }, true);
  document.addEventListener('pointermove', (ev) => { if (active) send('move', ev, 'body'); }, true);
  document.addEventListener('pointerup', (ev) => { if (active) { send('up', ev, 'body'); active = null; } }, true);
  document.addEventListener('pointercancel', (ev) => { if (active) { send('cancel', ev, 'body'); active = null; } }, true);
  const upload = (file) => {
    const fr = new FileReader();
    fr.onload = () => emit({type: 'upload', name: file.name, data: String(fr.result).split(',')[1] || ''});
    fr.readAsDataURL(file);
  };
  document.addEventListener('change', (ev) => {
    const el = ev.target;
    if (el && el.type === 'file' && el.files && el.files[0] && /image\//.test(el.files[0].type)) upload(el.files[0]);
  }, true);
  window.storformat = {
    upload,
    clearUpload: () => emit({type: 'upload', data: ''}),
    addFoil: (text) => emit({type: 'foil', action: 'add', text: String(text || '')}),
    removeFoil: (id) => emit({type: 'foil', action: 'remove', foilId: id}),
    selectFoil: (id) => emit({type: 'foil', action: 'select', foilId: id}),
    updateFoil: (id, foil) => emit({type: 'foil', action: 'update', foilId: id, foil}),
    checkout: () => emit({type: 'checkout'}),
  };
})()`
