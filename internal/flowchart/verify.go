package flowchart

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/kode4food/flowchart/internal/flowchart/path"
	"github.com/kode4food/flowchart/internal/flowchart/rules"
	"github.com/kode4food/flowchart/pkg/api"
	"github.com/kode4food/flowchart/pkg/log"
)

type (
	// verifyPass repairs one lesson invariant against the edit's snapshot,
	// recording each repair in the report
	verifyPass struct {
		run  func(context.Context, *edit, *api.VerifyReport) error
		name string
	}
)

const (
	PassCollapseUnknowns = "collapse-unknowns"
	PassMaxAttempts      = "max-attempts"
	PassStartScreen      = "start-screen"
	PassEndScreen        = "end-screen"
	PassEndScreenLast    = "end-screen-last"
	PassEndScreenPaths   = "end-screen-paths"
	PassFinishMessage    = "finish-message"
	PassRules            = "rules"
)

// Verify runs every invariant pass in order, each against a fresh
// snapshot, and commits whatever each pass repairs. Running it again on
// its own output changes nothing
func (e *Editor) Verify(ctx context.Context) (*api.VerifyReport, error) {
	rep := &api.VerifyReport{Changes: []*api.VerifyChange{}}
	for _, p := range e.verifyPasses() {
		if err := e.runPass(ctx, p, rep); err != nil {
			return nil, e.fail(ctx, "Could not validate lesson",
				"Something went wrong while validating this lesson. "+
					"It likely needs to be fixed before it can be "+
					"delivered to learners.",
				err, map[string]any{"pass": p.name},
			)
		}
	}

	if rep.Changed() {
		slog.InfoContext(ctx, "Lesson verified",
			log.LessonID(e.id),
			slog.Int("changes", len(rep.Changes)))
		e.notify(ctx, api.EventTypeLessonVerified, api.LessonVerifiedEvent{
			Report: rep,
		})
	}
	return rep, nil
}

func (e *Editor) verifyPasses() []verifyPass {
	return []verifyPass{
		{name: PassCollapseUnknowns, run: e.collapseUnknowns},
		{name: PassMaxAttempts, run: e.capMaxAttempts},
		{name: PassStartScreen, run: e.ensureStartScreen},
		{name: PassEndScreen, run: e.ensureEndScreen},
		{name: PassEndScreenLast, run: e.endScreenLast},
		{name: PassEndScreenPaths, run: e.endScreenPaths},
		{name: PassFinishMessage, run: e.ensureFinishMessage},
		{name: PassRules, run: e.recompileRules},
	}
}

func (e *Editor) runPass(
	ctx context.Context, p verifyPass, rep *api.VerifyReport,
) error {
	ed, err := e.begin(ctx)
	if err != nil {
		return err
	}
	before := len(rep.Changes)
	if err := p.run(ctx, ed, rep); err != nil {
		return fmt.Errorf("%s: %w", p.name, err)
	}
	for _, c := range rep.Changes[before:] {
		c.Pass = p.name
		slog.DebugContext(ctx, c.Message,
			log.LessonID(e.id),
			log.Pass(p.name))
	}
	return e.commit(ctx, ed)
}

// collapseUnknowns promotes a screen's only path to an always path when
// that path is an unknown path with a destination
func (e *Editor) collapseUnknowns(
	_ context.Context, ed *edit, rep *api.VerifyReport,
) error {
	for _, s := range ed.lesson.Screens {
		if len(s.Paths) != 1 || !path.IsUnknownPath(s.Paths[0]) {
			continue
		}
		dest := path.Destination(s.Paths[0])
		if dest == nil {
			continue
		}
		res := s.Clone()
		res.Paths = api.Paths{path.AlwaysGoTo(api.ScreenRef(*dest))}
		ed.put(res)
		rep.Add("", "Unknown path promoted to always path",
			api.ScreenRef(s.ID),
		)
	}
	return nil
}

// capMaxAttempts bounds the attempts of every scored screen
func (e *Editor) capMaxAttempts(
	_ context.Context, ed *edit, rep *api.VerifyReport,
) error {
	for _, s := range ed.lesson.Screens {
		if s.Custom.MaxScore <= 0 || s.Custom.MaxAttempt > 0 {
			continue
		}
		res := s.Clone()
		res.Custom.MaxAttempt = e.config.DefaultMaxAttempts
		ed.put(res)
		rep.Add("", fmt.Sprintf("Max attempts set to %d",
			e.config.DefaultMaxAttempts), api.ScreenRef(s.ID),
		)
	}
	return nil
}

func (e *Editor) ensureStartScreen(
	ctx context.Context, ed *edit, rep *api.VerifyReport,
) error {
	if ed.graph().FirstScreen() != nil {
		return nil
	}
	s, err := e.addScreen(ctx, ed, api.AddScreenRequest{
		Title:      e.config.WelcomeTitle,
		ScreenType: api.WelcomeScreen,
	})
	if err != nil {
		return err
	}
	rep.Add("", "Welcome screen created", api.ScreenRef(s.ID))
	return nil
}

// ensureEndScreen leaves the lesson with exactly one end screen. The first
// in storage order is kept and any others become blank screens that route
// to it
func (e *Editor) ensureEndScreen(
	ctx context.Context, ed *edit, rep *api.VerifyReport,
) error {
	if ends := ed.graph().EndScreens(); len(ends) > 0 {
		for _, s := range ends[1:] {
			res := s.Clone()
			res.ScreenType = api.BlankScreen
			res.Paths = api.Paths{path.EndOfActivity()}
			ed.put(res)
			rep.Add("", "Extra end screen changed to a blank screen",
				api.ScreenRef(s.ID),
			)
		}
		return nil
	}
	s, err := e.addScreen(ctx, ed, api.AddScreenRequest{
		Title:      e.config.EndTitle,
		ScreenType: api.EndScreen,
		SkipWiring: true,
	})
	if err != nil {
		return err
	}
	rep.Add("", "End screen created", api.ScreenRef(s.ID))
	return nil
}

func (e *Editor) endScreenLast(
	_ context.Context, ed *edit, rep *api.VerifyReport,
) error {
	end := ed.graph().EndScreen()
	if end == nil {
		return nil
	}
	seq := ed.lesson.Sequence
	switch i := seq.Index(end.ID); {
	case i < 0:
		entry := api.NewSequenceEntry(end.ID, end.Title)
		ed.setSequence(append(seq.Clone(), entry))
	case i != len(seq)-1:
		ed.setSequence(seq.MoveToEnd(end.ID))
	default:
		return nil
	}
	rep.Add("", "End screen moved to the end of the sequence",
		api.ScreenRef(end.ID),
	)
	return nil
}

// endScreenPaths leaves every end screen with a single exit path
func (e *Editor) endScreenPaths(
	_ context.Context, ed *edit, rep *api.VerifyReport,
) error {
	for _, s := range ed.graph().EndScreens() {
		if len(s.Paths) == 1 {
			if _, ok := s.Paths[0].(api.ExitActivityPath); ok {
				continue
			}
		}
		res := s.Clone()
		res.Paths = api.Paths{path.ExitActivity()}
		ed.put(res)
		rep.Add("", "End screen paths replaced with an exit path",
			api.ScreenRef(s.ID),
		)
	}
	return nil
}

func (e *Editor) ensureFinishMessage(
	_ context.Context, ed *edit, rep *api.VerifyReport,
) error {
	p := ed.lesson.Page
	if p == nil || p.Custom == nil ||
		strings.TrimSpace(p.Custom.LogoutMessage) != "" {
		return nil
	}
	res := p.Clone()
	res.Custom.LogoutMessage = e.config.FinishMessage
	ed.setPage(res)
	rep.Add("", "Finish message added", nil)
	return nil
}

// recompileRules rewrites every screen whose stored rules, rule inputs,
// or path bindings differ from a fresh compilation
func (e *Editor) recompileRules(
	_ context.Context, ed *edit, rep *api.VerifyReport,
) error {
	end := ed.graph().DefaultEndScreenID()
	for _, s := range ed.lesson.Screens {
		fresh := rules.Apply(s, ed.lesson.Sequence, end)
		if rulesCurrent(s, fresh) {
			continue
		}
		ed.put(s)
		rep.Add("", "Rules recompiled", api.ScreenRef(s.ID))
	}
	return nil
}

func rulesCurrent(s, fresh *api.Screen) bool {
	if !rules.Compare(s.Rules, fresh.Rules) ||
		!slices.Equal(s.Variables, fresh.Variables) {
		return false
	}
	return slices.EqualFunc(s.Paths, fresh.Paths, func(a, b api.Path) bool {
		ra, rb := a.Base().RuleID, b.Base().RuleID
		if ra == nil || rb == nil {
			return ra == rb
		}
		return *ra == *rb
	})
}
