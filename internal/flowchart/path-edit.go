package flowchart

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kode4food/flowchart/internal/flowchart/path"
	"github.com/kode4food/flowchart/pkg/api"
	"github.com/kode4food/flowchart/pkg/log"
)

// ReplacePath swaps one path of a screen for np, leaving the others in
// place. A destination of api.NewScreenSentinel creates a screen after
// the edited one and routes the path to it
func (e *Editor) ReplacePath(
	ctx context.Context, screenID api.ScreenID, pathID string, np api.Path,
) (*api.Screen, error) {
	info := map[string]any{"screenId": screenID, "pathId": pathID}
	ed, s, err := e.beginPathEdit(ctx, screenID, pathID)
	if err != nil {
		return nil, e.failPath(ctx, err, info)
	}

	if np.Base().ID == "" {
		np = api.WithBase(np, func(b *api.PathBase) {
			b.ID = pathID
		})
	}
	if dp, ok := np.(api.DestinationPath); ok && isNewScreen(dp.Dest()) {
		created, err := e.addScreen(ctx, ed, api.AddScreenRequest{
			From:       api.ScreenRef(screenID),
			SkipWiring: true,
		})
		if err != nil {
			return nil, e.failPath(ctx, err, info)
		}
		np = api.WithDest(dp, api.ScreenRef(created.ID))
	}
	np = path.WithCompleted(np)

	res := s.Clone()
	res.Paths, _ = path.ReplacePath(s.Paths, pathID, np)
	ed.put(res)

	if err := e.commit(ctx, ed); err != nil {
		return nil, e.failPath(ctx, err, info)
	}

	res = ed.screen(screenID)
	slog.InfoContext(ctx, "Path replaced",
		log.LessonID(e.id),
		log.ScreenID(screenID),
		log.PathID(pathID))
	e.notify(ctx, api.EventTypePathReplaced, api.PathChangedEvent{
		ScreenID: screenID,
		PathID:   pathID,
		Path:     np,
	})
	return res, nil
}

// DeletePath removes one path of a screen. A screen left without paths
// gains an end-of-activity path
func (e *Editor) DeletePath(
	ctx context.Context, screenID api.ScreenID, pathID string,
) (*api.Screen, error) {
	info := map[string]any{"screenId": screenID, "pathId": pathID}
	ed, s, err := e.beginPathEdit(ctx, screenID, pathID)
	if err != nil {
		return nil, e.failPath(ctx, err, info)
	}

	res := s.Clone()
	res.Paths, _ = path.RemovePath(s.Paths, pathID)
	if len(res.Paths) == 0 {
		res.Paths = api.Paths{path.EndOfActivity()}
	}
	ed.put(res)

	if err := e.commit(ctx, ed); err != nil {
		return nil, e.failPath(ctx, err, info)
	}

	res = ed.screen(screenID)
	slog.InfoContext(ctx, "Path deleted",
		log.LessonID(e.id),
		log.ScreenID(screenID),
		log.PathID(pathID))
	e.notify(ctx, api.EventTypePathDeleted, api.PathChangedEvent{
		ScreenID: screenID,
		PathID:   pathID,
	})
	return res, nil
}

func (e *Editor) beginPathEdit(
	ctx context.Context, screenID api.ScreenID, pathID string,
) (*edit, *api.Screen, error) {
	ed, err := e.begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	s := ed.screen(screenID)
	if s == nil {
		return nil, nil, fmt.Errorf("%w: %d", ErrScreenNotFound, screenID)
	}
	if _, ok := s.Paths.Find(pathID); !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrPathNotFound, pathID)
	}
	return ed, s, nil
}

func (e *Editor) failPath(
	ctx context.Context, err error, info map[string]any,
) error {
	return e.fail(ctx, "Could not update path",
		"The path could not be changed.", err, info,
	)
}

func isNewScreen(dest *api.ScreenID) bool {
	return dest != nil && *dest == api.NewScreenSentinel
}
