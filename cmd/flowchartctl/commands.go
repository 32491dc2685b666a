package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	app "github.com/kode4food/flowchart"
	"github.com/kode4food/flowchart/internal/config"
	"github.com/kode4food/flowchart/internal/diagnostics"
	"github.com/kode4food/flowchart/internal/flowchart"
	"github.com/kode4food/flowchart/internal/flowchart/graph"
	"github.com/kode4food/flowchart/internal/flowchart/rules"
	"github.com/kode4food/flowchart/internal/flowchart/script"
	"github.com/kode4food/flowchart/internal/store"
	"github.com/kode4food/flowchart/pkg/api"
)

type (
	// options carries the flags shared by every subcommand
	options struct {
		asJSON bool
		write  bool
	}

	// session holds a lesson document loaded into an in-memory store so
	// the editor operations can run against it
	session struct {
		opts   *options
		editor *flowchart.Editor
		file   string
	}
)

var ErrProblemsFound = errors.New("lesson has problems")

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:          app.Name + "ctl",
		Short:        "Inspect and repair adaptive lesson flowcharts",
		Version:      app.Version,
		SilenceUsage: true,
	}
	root.PersistentFlags().BoolVar(&opts.asJSON, "json", false,
		"print results as JSON instead of YAML")
	root.PersistentFlags().BoolVarP(&opts.write, "write", "w", false,
		"write the resulting lesson back to the document")

	root.AddCommand(
		newVerifyCmd(opts),
		newCompileCmd(opts),
		newDiagnoseCmd(opts),
		newAddScreenCmd(opts),
		newDeleteScreenCmd(opts),
	)
	return root
}

func newVerifyCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "verify <lesson-file>",
		Short: "Repair the lesson's structural invariants",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), opts, args[0])
			if err != nil {
				return err
			}
			rep, err := s.editor.Verify(cmd.Context())
			if err != nil {
				return err
			}
			for _, c := range rep.Changes {
				_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n",
					c.Pass, c.Message)
			}
			return s.finish(cmd)
		},
	}
}

func newCompileCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "compile <lesson-file>",
		Short: "Recompile every screen's rules from its paths",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := loadLesson(args[0])
			if err != nil {
				return err
			}
			end := graph.New(l).DefaultEndScreenID()
			for i, sc := range l.Screens {
				l.Screens[i] = rules.Apply(sc, l.Sequence, end)
			}
			return emit(cmd, opts, args[0], l)
		},
	}
}

func newDiagnoseCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "diagnose <lesson-file>",
		Short: "Report problems without changing the lesson",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := loadLesson(args[0])
			if err != nil {
				return err
			}
			v := diagnostics.NewValidator(script.NewLuaEnv())
			problems := v.Validate(l)
			err = writeValue(cmd.OutOrStdout(), api.DiagnosticsResponse{
				Problems: problems,
				Count:    len(problems),
			}, opts.asJSON)
			if err != nil {
				return err
			}
			if len(problems) > 0 {
				return fmt.Errorf("%w: %d", ErrProblemsFound, len(problems))
			}
			return nil
		},
	}
}

func newAddScreenCmd(opts *options) *cobra.Command {
	var (
		from, to   int64
		title, typ string
		skipWiring bool
	)
	cmd := &cobra.Command{
		Use:   "add-screen <lesson-file>",
		Short: "Add a screen and wire its predecessor to it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd.Context(), opts, args[0])
			if err != nil {
				return err
			}
			req := api.AddScreenRequest{
				Title:      title,
				ScreenType: api.ScreenType(typ),
				SkipWiring: skipWiring,
			}
			if cmd.Flags().Changed("from") {
				req.From = api.ScreenRef(api.ScreenID(from))
			}
			if cmd.Flags().Changed("to") {
				req.To = api.ScreenRef(api.ScreenID(to))
			}
			sc, err := s.editor.AddScreen(cmd.Context(), req)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "added screen %d\n", sc.ID)
			return s.finish(cmd)
		},
	}
	cmd.Flags().Int64Var(&from, "from", 0, "predecessor screen id")
	cmd.Flags().Int64Var(&to, "to", 0, "screen the new screen routes to")
	cmd.Flags().StringVar(&title, "title", "", "screen title")
	cmd.Flags().StringVar(&typ, "type", "", "screen type")
	cmd.Flags().BoolVar(&skipWiring, "skip-wiring", false,
		"leave the predecessor's paths unchanged")
	return cmd
}

func newDeleteScreenCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-screen <lesson-file> <screen-id>",
		Short: "Delete a screen and re-wire the paths that reached it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[1], 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid screen id: %q", args[1])
			}
			s, err := openSession(cmd.Context(), opts, args[0])
			if err != nil {
				return err
			}
			rewired, err := s.editor.DeleteScreen(
				cmd.Context(), api.ScreenID(id),
			)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(),
				"deleted screen %d, re-wired %v\n", id, rewired)
			return s.finish(cmd)
		},
	}
}

func openSession(
	ctx context.Context, opts *options, file string,
) (*session, error) {
	l, err := loadLesson(file)
	if err != nil {
		return nil, err
	}
	st := store.NewMemory()
	if err := st.Commit(ctx, l.ID, store.ReplaceLesson(l)); err != nil {
		return nil, err
	}
	ed, err := flowchart.New(l.ID, config.NewAuthoringConfig(),
		flowchart.Dependencies{Store: st},
	)
	if err != nil {
		return nil, err
	}
	return &session{
		opts:   opts,
		editor: ed,
		file:   file,
	}, nil
}

func (s *session) finish(cmd *cobra.Command) error {
	l, err := s.editor.Lesson(cmd.Context())
	if err != nil {
		return err
	}
	return emit(cmd, s.opts, s.file, l)
}

func emit(
	cmd *cobra.Command, opts *options, file string, l *api.Lesson,
) error {
	if opts.write {
		return saveLesson(file, l)
	}
	return writeValue(cmd.OutOrStdout(), l, opts.asJSON)
}
