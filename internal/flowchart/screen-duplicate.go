package flowchart

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kode4food/flowchart/internal/flowchart/content"
	"github.com/kode4food/flowchart/pkg/api"
	"github.com/kode4food/flowchart/pkg/log"
)

// DuplicateScreen copies a screen's content under fresh part ids and adds
// the copy after the last non-end screen. Copies of the end screen are
// blank screens, so a lesson keeps a single end
func (e *Editor) DuplicateScreen(
	ctx context.Context, id api.ScreenID,
) (*api.Screen, error) {
	info := map[string]any{"screenId": id}
	ed, err := e.begin(ctx)
	if err != nil {
		return nil, e.failDuplicate(ctx, err, info)
	}

	orig := ed.screen(id)
	if orig == nil {
		err := fmt.Errorf("%w: %d", ErrScreenNotFound, id)
		return nil, e.failDuplicate(ctx, err, info)
	}

	body, _, err := content.RenewPartIDs(orig.Content)
	if err != nil {
		return nil, e.failDuplicate(ctx, err, info)
	}

	title := orig.Title
	if title == "" {
		title = "screen"
	}
	typ := orig.ScreenType
	if typ == api.EndScreen {
		typ = api.BlankScreen
	}

	s, err := e.addScreen(ctx, ed, api.AddScreenRequest{
		Title:      "Copy of " + title,
		ScreenType: typ,
	})
	if err != nil {
		return nil, e.failDuplicate(ctx, err, info)
	}

	cp := s.Clone()
	if len(body) > 0 {
		cp.Content = body
	}
	cp.Custom = orig.Clone().Custom
	ed.put(cp)

	if err := e.commit(ctx, ed); err != nil {
		return nil, e.failDuplicate(ctx, err, info)
	}

	res := ed.screen(cp.ID)
	slog.InfoContext(ctx, "Screen duplicated",
		log.LessonID(e.id),
		log.ScreenID(id),
		slog.Int64("copy", int64(res.ID)))
	e.notify(ctx, api.EventTypeScreenDuplicated, api.ScreenAddedEvent{
		Screen: res,
		From:   api.ScreenRef(id),
	})
	return res, nil
}

func (e *Editor) failDuplicate(
	ctx context.Context, err error, info map[string]any,
) error {
	return e.fail(ctx, "Could not duplicate screen",
		"The screen could not be copied.", err, info,
	)
}
