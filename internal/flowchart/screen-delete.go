package flowchart

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/kode4food/flowchart/internal/flowchart/path"
	"github.com/kode4food/flowchart/pkg/api"
	"github.com/kode4food/flowchart/pkg/log"
)

// DeleteScreen removes a screen and re-wires every screen that routed to
// it onto the deleted screen's own destinations. It returns the ids of the
// re-wired screens
func (e *Editor) DeleteScreen(
	ctx context.Context, id api.ScreenID,
) ([]api.ScreenID, error) {
	info := map[string]any{"screenId": id}
	ed, err := e.begin(ctx)
	if err != nil {
		return nil, e.failDelete(ctx, err, info)
	}

	s := ed.screen(id)
	if s == nil {
		err := fmt.Errorf("%w: %d", ErrScreenNotFound, id)
		return nil, e.failDelete(ctx, err, info)
	}
	if len(ed.lesson.Screens) <= 1 {
		return nil, e.failDelete(ctx, ErrLastScreen, info)
	}

	next := slices.DeleteFunc(path.DownstreamScreenIDs(s),
		func(d api.ScreenID) bool {
			return d == id
		},
	)
	rewired := []api.ScreenID{}
	for _, src := range ed.graph().SourceScreens(id) {
		if src.ID == id {
			continue
		}
		ed.put(rewire(src, id, next))
		rewired = append(rewired, src.ID)
	}
	ed.remove(id)
	ed.setSequence(ed.lesson.Sequence.Without(id))

	if err := e.commit(ctx, ed); err != nil {
		return nil, e.failDelete(ctx, err, info)
	}

	slog.InfoContext(ctx, "Screen deleted",
		log.LessonID(e.id),
		log.ScreenID(id),
		slog.Int("rewired", len(rewired)))
	e.notify(ctx, api.EventTypeScreenDeleted, api.ScreenDeletedEvent{
		ScreenID: id,
		Rewired:  rewired,
	})
	return rewired, nil
}

func (e *Editor) failDelete(
	ctx context.Context, err error, info map[string]any,
) error {
	return e.fail(ctx, "Could not delete screen",
		"The screen could not be removed from the lesson.", err, info,
	)
}

// rewire returns a copy of src whose paths to the deleted screen are
// replaced by paths to that screen's destinations. A single destination
// on an otherwise routeless screen becomes an always path. Several
// destinations each become an unknown path for the author to resolve
func rewire(
	src *api.Screen, deleted api.ScreenID, next []api.ScreenID,
) *api.Screen {
	res := path.RemoveDestinationPath(src, deleted)
	always := len(next) == 1 && len(res.Paths) == 0
	for _, d := range next {
		if always {
			res.Paths = append(res.Paths, path.AlwaysGoTo(api.ScreenRef(d)))
			continue
		}
		res.Paths = append(res.Paths,
			path.UnknownWithDestination(api.ScreenRef(d)),
		)
	}
	if len(res.Paths) == 0 {
		res.Paths = api.Paths{path.EndOfActivity()}
	}
	return res
}
