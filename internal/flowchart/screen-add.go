package flowchart

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"

	"github.com/tidwall/sjson"

	"github.com/kode4food/flowchart/internal/flowchart/path"
	"github.com/kode4food/flowchart/pkg/api"
	"github.com/kode4food/flowchart/pkg/log"
	"github.com/kode4food/flowchart/pkg/util"
)

const emptyContent = `{"partsLayout":[]}`

// AddScreen creates a screen, wires its predecessor to it, and places it
// in the ordering immediately after that predecessor
func (e *Editor) AddScreen(
	ctx context.Context, req api.AddScreenRequest,
) (*api.Screen, error) {
	info := map[string]any{"request": req}
	ed, err := e.begin(ctx)
	if err != nil {
		return nil, e.failAdd(ctx, err, info)
	}

	s, err := e.addScreen(ctx, ed, req)
	if err != nil {
		return nil, e.failAdd(ctx, err, info)
	}
	if err := e.commit(ctx, ed); err != nil {
		return nil, e.failAdd(ctx, err, info)
	}

	res := ed.screen(s.ID)
	slog.InfoContext(ctx, "Screen added",
		log.LessonID(e.id),
		log.ScreenID(res.ID),
		slog.String("title", res.Title))
	e.notify(ctx, api.EventTypeScreenAdded, api.ScreenAddedEvent{
		Screen: res,
		From:   req.From,
	})
	return res, nil
}

func (e *Editor) failAdd(
	ctx context.Context, err error, info map[string]any,
) error {
	return e.fail(ctx, "Could not add screen",
		"The new screen could not be created.", err, info,
	)
}

// addScreen stages a new screen in the edit. Unless wiring is skipped, the
// predecessor gains a path to the new screen
func (e *Editor) addScreen(
	ctx context.Context, ed *edit, req api.AddScreenRequest,
) (*api.Screen, error) {
	if req.To != nil && ed.screen(*req.To) == nil {
		return nil, fmt.Errorf("%w: %d", ErrScreenNotFound, *req.To)
	}

	pred := e.predecessor(ctx, ed, req.From)
	id, err := e.store.NextScreenID(ctx, e.id)
	if err != nil {
		return nil, err
	}

	title := req.Title
	if title == "" {
		title = e.config.DefaultScreenTitle
	}
	title = uniqueTitle(title, ed.graph().Titles())

	typ := req.ScreenType
	if typ == "" {
		typ = api.BlankScreen
	}

	content, err := newContent(ed.lesson.Page)
	if err != nil {
		return nil, err
	}

	s := &api.Screen{
		ID:         id,
		Title:      title,
		ScreenType: typ,
		Content:    content,
		Paths:      initialPaths(req.To, typ, pred),
	}
	ed.put(s)

	if pred != nil && !req.SkipWiring {
		e.wire(ed, pred, req.To, id)
	}

	entry := api.NewSequenceEntry(id, title)
	if pred != nil {
		ed.setSequence(ed.lesson.Sequence.InsertAfter(pred.ID, entry))
		return s, nil
	}
	seq := append(ed.lesson.Sequence.Clone(), entry)
	if end := ed.graph().EndScreen(); end != nil && !s.IsEnd() {
		seq = seq.MoveToEnd(end.ID)
	}
	ed.setSequence(seq)
	return s, nil
}

// predecessor resolves the screen a new screen follows: the requested one,
// or the last non-end screen in sequence order. Nothing follows the end
// screen, so requesting it also falls back
func (e *Editor) predecessor(
	ctx context.Context, ed *edit, from *api.ScreenID,
) *api.Screen {
	g := ed.graph()
	if from == nil {
		return g.LastNonEndScreen()
	}
	switch s := g.Screen(*from); {
	case s == nil:
		slog.WarnContext(ctx, "Predecessor not found, appending",
			log.LessonID(e.id),
			log.ScreenID(*from))
	case s.IsEnd():
		slog.WarnContext(ctx, "Not adding after the end screen",
			log.LessonID(e.id),
			log.ScreenID(*from))
	default:
		return s
	}
	return g.LastNonEndScreen()
}

// wire rewrites the predecessor's paths so that it reaches the new screen.
// Paths that went to the screen being split are retargeted. Otherwise a
// screen without a destination gains an always path, and one that already
// branches gains an unknown path for the author to finish
func (e *Editor) wire(
	ed *edit, pred *api.Screen, to *api.ScreenID,
	id api.ScreenID,
) {
	switch {
	case to != nil && slices.ContainsFunc(pred.Paths, func(p api.Path) bool {
		return path.PointsTo(p, *to)
	}):
		ed.put(path.ReplaceDestination(pred, *to, id))
	case path.HasDestinationPath(pred):
		ed.put(path.SetUnknownPathDestination(pred, id))
	default:
		ed.put(path.SetGoToAlwaysPath(pred, id))
	}
}

func initialPaths(
	to *api.ScreenID, typ api.ScreenType, pred *api.Screen,
) api.Paths {
	switch {
	case to != nil:
		return api.Paths{path.AlwaysGoTo(api.ScreenRef(*to))}
	case typ == api.EndScreen:
		return api.Paths{path.ExitActivity()}
	case pred != nil && pred.ScreenType == api.HubSpokeQuestion:
		return api.Paths{path.AlwaysGoTo(api.ScreenRef(pred.ID))}
	default:
		return api.Paths{path.EndOfActivity()}
	}
}

// newContent returns an empty layout sized to the lesson's default screen
// dimensions
func newContent(p *api.Page) (json.RawMessage, error) {
	res := []byte(emptyContent)
	if p == nil || p.Custom == nil {
		return res, nil
	}
	var err error
	if w := p.Custom.DefaultScreenWidth; w > 0 {
		if res, err = sjson.SetBytes(res, "custom.width", w); err != nil {
			return nil, err
		}
	}
	if h := p.Custom.DefaultScreenHeight; h > 0 {
		if res, err = sjson.SetBytes(res, "custom.height", h); err != nil {
			return nil, err
		}
	}
	return res, nil
}

// uniqueTitle appends " (N)" to title with the smallest N not yet taken
func uniqueTitle(title string, taken util.Set[string]) string {
	res := title
	for n := 1; taken.Contains(res); n++ {
		res = fmt.Sprintf("%s (%d)", title, n)
	}
	return res
}
