// Package main provides the CLI entrypoint for pupitre.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/pupitre/internal/config"
	"github.com/verte-zerg/pupitre/internal/midiio"
	"github.com/verte-zerg/pupitre/internal/model"
	"github.com/verte-zerg/pupitre/internal/playback"
	"github.com/verte-zerg/pupitre/internal/practice"
	"github.com/verte-zerg/pupitre/internal/score"
	"github.com/verte-zerg/pupitre/internal/sequence"
	"github.com/verte-zerg/pupitre/internal/stats"
	"github.com/verte-zerg/pupitre/internal/statsui"
	"github.com/verte-zerg/pupitre/internal/store"
	"github.com/verte-zerg/pupitre/internal/tui"
)

const (
	defaultMode        = "training"
	defaultVelocity    = 80
	defaultWeakTop     = 5
	defaultCurveWindow = 10
)

var (
	practiceMode     string
	practiceVelocity int
	practiceTempo    float64
	practiceInPort   string
	practiceOutPort  string
	practiceNoOutput bool

	statsScore       string
	statsLast        int
	statsCurveWindow int
	statsWeakTop     int
	statsPlain       bool

	sessionsScore string
	scoresWeakTop int

	playVelocity int
	playTempo    float64
	playOutPort  string

	exportOut string
	importIn  string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "pupitre <score.json>",
		Short:         "TUI sheet-music practice companion",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPracticeCmd,
	}

	rootCmd.Flags().StringVar(&practiceMode, "mode", defaultMode, "practice mode (training or free)")
	rootCmd.Flags().IntVar(&practiceVelocity, "velocity", defaultVelocity, "playback velocity (1-127)")
	rootCmd.Flags().Float64Var(&practiceTempo, "tempo", 0, "override tempo in BPM (0 uses the score tempo)")
	rootCmd.Flags().StringVar(&practiceInPort, "input-port", "", "preferred MIDI input port (substring match)")
	rootCmd.Flags().StringVar(&practiceOutPort, "output-port", "", "preferred MIDI output port (substring match)")
	rootCmd.Flags().BoolVar(&practiceNoOutput, "no-output", false, "disable MIDI playback output")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newPlayCmd())
	rootCmd.AddCommand(newSequenceCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newScoresCmd())
	rootCmd.AddCommand(newSessionsCmd())
	rootCmd.AddCommand(newMigrateCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newImportCmd())

	return rootCmd
}

func runPracticeCmd(cmd *cobra.Command, args []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "mode", &practiceMode, fileCfg.Practice.Mode)
	applyIntConfig(cmd, "velocity", &practiceVelocity, fileCfg.Practice.Velocity)
	applyFloatConfig(cmd, "tempo", &practiceTempo, fileCfg.Practice.TempoBPM)
	applyStringConfig(cmd, "input-port", &practiceInPort, fileCfg.MIDI.InputPort)
	applyStringConfig(cmd, "output-port", &practiceOutPort, fileCfg.MIDI.OutputPort)

	mode, err := parseMode(practiceMode)
	if err != nil {
		return err
	}
	if practiceVelocity < 1 || practiceVelocity > 127 {
		return fmt.Errorf("--velocity must be between 1 and 127")
	}
	if practiceTempo < 0 {
		return fmt.Errorf("--tempo must be >= 0")
	}

	sc, err := score.Load(resolveScorePath(args[0]))
	if err != nil {
		return err
	}
	seq := sequence.Build(sc)
	if len(seq.Entries) == 0 {
		return fmt.Errorf("score %q has no measures", sc.Title)
	}
	if practiceTempo > 0 {
		seq.TempoBPM = practiceTempo
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	tracker := practice.NewTracker(st)
	tracker.StartSession(sc.ID, sc.Title, sc.Composer, mode, seq.SourceMeasures)

	var sched *playback.Scheduler
	if !practiceNoOutput {
		out, err := midiio.OpenOutput(practiceOutPort, fileCfg.MIDI.ExcludePorts)
		if err != nil {
			logErrf("MIDI output unavailable: %v\n", err)
		} else {
			defer out.Close()
			sched = playback.NewScheduler(out, practiceVelocity)
		}
	}

	var program *tea.Program
	var preferred []string
	if practiceInPort != "" {
		preferred = []string{practiceInPort}
	}
	watcher, err := midiio.NewWatcher(preferred, fileCfg.MIDI.ExcludePorts,
		func(on bool, pitch int) {
			if program != nil {
				program.Send(tui.NoteMsg{On: on, Pitch: pitch})
			}
		},
		func() {
			if program != nil {
				program.Send(tui.MIDIStatusMsg{Connected: false})
			}
		})
	if err != nil {
		logErrf("MIDI input unavailable: %v\n", err)
	} else {
		defer watcher.Close()
	}

	tickFn := func() {
		if watcher == nil {
			return
		}
		watcher.Tick()
		name, connected := watcher.Connected()
		program.Send(tui.MIDIStatusMsg{Name: name, Connected: connected})
	}

	screen := tui.NewModel(seq, tracker, sched, tickFn)
	program = tea.NewProgram(screen, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	if sched != nil {
		sched.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	sess, err := tracker.EndSession(ctx)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	if sess != nil {
		printSessionSummary(sess)
	}
	return nil
}

func printSessionSummary(sess *model.PracticeSession) {
	total := 0
	clean := 0
	for _, entry := range sess.Measures {
		for _, a := range entry.Attempts {
			total++
			if a.Clean {
				clean++
			}
		}
	}
	fmt.Printf("Session saved: %d attempts, %d clean\n", total, clean)
	if sess.CompletedAt != nil {
		dur := stats.PlaythroughDuration(sess)
		fmt.Printf("Full playthrough completed in %s\n", dur.Round(time.Second))
	}
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func newPlayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play <score.json>",
		Short: "Play a score through the MIDI output",
		Args:  cobra.ExactArgs(1),
		RunE:  runPlayCmd,
	}
	cmd.Flags().IntVar(&playVelocity, "velocity", defaultVelocity, "playback velocity (1-127)")
	cmd.Flags().Float64Var(&playTempo, "tempo", 0, "override tempo in BPM (0 uses the score tempo)")
	cmd.Flags().StringVar(&playOutPort, "output-port", "", "preferred MIDI output port (substring match)")
	return cmd
}

func runPlayCmd(cmd *cobra.Command, args []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyIntConfig(cmd, "velocity", &playVelocity, fileCfg.Practice.Velocity)
	applyFloatConfig(cmd, "tempo", &playTempo, fileCfg.Practice.TempoBPM)
	applyStringConfig(cmd, "output-port", &playOutPort, fileCfg.MIDI.OutputPort)
	if playVelocity < 1 || playVelocity > 127 {
		return fmt.Errorf("--velocity must be between 1 and 127")
	}

	sc, err := score.Load(resolveScorePath(args[0]))
	if err != nil {
		return err
	}
	seq := sequence.Build(sc)
	if len(seq.Entries) == 0 {
		return fmt.Errorf("score %q has no measures", sc.Title)
	}
	if playTempo > 0 {
		seq.TempoBPM = playTempo
	}

	out, err := midiio.OpenOutput(playOutPort, fileCfg.MIDI.ExcludePorts)
	if err != nil {
		return fmt.Errorf("failed to open MIDI output: %w", err)
	}
	defer out.Close()

	sched := playback.NewScheduler(out, playVelocity)
	done := make(chan struct{})
	sched.OnDone = func() { close(done) }

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Playing %s at %.0f BPM on %s\n", sc.Title, seq.TempoBPM, out.Name()); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	sched.Play(seq)
	select {
	case <-done:
	case <-ctx.Done():
		sched.Stop()
	}
	return nil
}

func newSequenceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sequence <score.json>",
		Short: "Print the resolved playback order of a score",
		Args:  cobra.ExactArgs(1),
		RunE:  runSequenceCmd,
	}
}

func runSequenceCmd(cmd *cobra.Command, args []string) error {
	sc, err := score.Load(resolveScorePath(args[0]))
	if err != nil {
		return err
	}
	seq := sequence.Build(sc)
	out := cmd.OutOrStdout()
	if _, err := fmt.Fprintf(out, "%s: %d entries at %.0f BPM\n", sc.Title, len(seq.Entries), seq.TempoBPM); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	for _, entry := range seq.Entries {
		if _, err := fmt.Fprintf(out, "%4d  measure %d  (%d notes)\n",
			entry.PlaybackIndex+1, entry.SourceMeasureIndex+1, len(entry.Notes)); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show practice stats",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsScore, "score", "", "score ID (default: interactive browser)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "limit to last N sessions")
	cmd.Flags().IntVar(&statsCurveWindow, "curve-window", defaultCurveWindow, "moving average window")
	cmd.Flags().IntVar(&statsWeakTop, "weak-top", defaultWeakTop, "number of weak measures to call out")
	cmd.Flags().BoolVar(&statsPlain, "plain", false, "print the report instead of the TUI")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	cfg := stats.ReportConfig{
		ScoreID:     statsScore,
		Last:        statsLast,
		CurveWindow: statsCurveWindow,
		WeakTop:     statsWeakTop,
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	if statsPlain || statsScore != "" {
		if statsScore == "" {
			return fmt.Errorf("--plain requires --score")
		}
		report, err := stats.BuildReport(context.Background(), st, cfg)
		if err != nil {
			return fmt.Errorf("failed to build report: %w", err)
		}
		width := stats.TerminalWidth()
		useColor := stats.ShouldUseColor(cmd.OutOrStdout())
		if err := stats.RenderReport(cmd.OutOrStdout(), report, cfg, width, 10, useColor); err != nil {
			return fmt.Errorf("failed to render report: %w", err)
		}
		return nil
	}

	screen := statsui.NewModel(st, cfg)
	program := tea.NewProgram(screen, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

func newScoresCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scores",
		Short: "List practiced scores",
		Args:  cobra.NoArgs,
		RunE:  runScoresCmd,
	}
	cmd.Flags().IntVar(&scoresWeakTop, "weak-top", defaultWeakTop, "number of weak measures to call out")
	return cmd
}

func runScoresCmd(cmd *cobra.Command, _ []string) error {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	aggs, err := st.ListAggregates(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list scores: %w", err)
	}
	if err := stats.RenderScoreList(cmd.OutOrStdout(), aggs, scoresWeakTop); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newSessionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List recorded sessions",
		Args:  cobra.NoArgs,
		RunE:  runSessionsCmd,
	}
	cmd.Flags().StringVar(&sessionsScore, "score", "", "limit to one score ID")
	return cmd
}

func runSessionsCmd(cmd *cobra.Command, _ []string) error {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	ctx := context.Background()
	var sessions []*model.PracticeSession
	if sessionsScore != "" {
		sessions, err = st.ListSessionsByScore(ctx, sessionsScore)
	} else {
		sessions, err = st.ListSessions(ctx)
	}
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}
	if len(sessions) == 0 {
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), "No sessions recorded yet."); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}
	for _, sess := range sessions {
		title := sess.ScoreTitle
		if title == "" {
			title = sess.ScoreID
		}
		mark := ""
		if sess.CompletedAt != nil {
			mark = "  playthrough ✓"
		}
		line := fmt.Sprintf("%s  %s  %s%s",
			sess.StartedAt.Local().Format("2006-01-02 15:04"),
			title,
			sess.Mode,
			mark,
		)
		if _, err := fmt.Fprintln(cmd.OutOrStdout(), line); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Re-detect playthrough completions on stored sessions",
		Args:  cobra.NoArgs,
		RunE:  runMigrateCmd,
	}
}

func runMigrateCmd(cmd *cobra.Command, _ []string) error {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	updated, err := stats.BackfillCompletions(context.Background(), st)
	if err != nil {
		return fmt.Errorf("failed to backfill completions: %w", err)
	}
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Updated %d sessions\n", updated); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newExportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export sessions and aggregates as JSON",
		Args:  cobra.NoArgs,
		RunE:  runExportCmd,
	}
	cmd.Flags().StringVar(&exportOut, "out", "", "output file (default: stdout)")
	return cmd
}

func runExportCmd(cmd *cobra.Command, _ []string) error {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	out := cmd.OutOrStdout()
	if exportOut != "" {
		f, err := os.Create(exportOut)
		if err != nil {
			return fmt.Errorf("failed to create export file: %w", err)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil {
				logErrf("failed to close export file: %v\n", cerr)
			}
		}()
		out = f
	}
	if err := st.Export(context.Background(), out); err != nil {
		return fmt.Errorf("failed to export: %w", err)
	}
	return nil
}

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a JSON backup",
		Args:  cobra.NoArgs,
		RunE:  runImportCmd,
	}
	cmd.Flags().StringVar(&importIn, "in", "", "input file (default: stdin)")
	return cmd
}

func runImportCmd(cmd *cobra.Command, _ []string) error {
	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	in := cmd.InOrStdin()
	if importIn != "" {
		f, err := os.Open(importIn)
		if err != nil {
			return fmt.Errorf("failed to open import file: %w", err)
		}
		defer func() {
			if cerr := f.Close(); cerr != nil {
				logErrf("failed to close import file: %v\n", cerr)
			}
		}()
		in = f
	}
	sessions, aggregates, err := st.Import(context.Background(), in)
	if err != nil {
		return fmt.Errorf("failed to import: %w", err)
	}
	if _, err := fmt.Fprintf(cmd.OutOrStdout(), "Imported %d sessions, %d aggregates\n", sessions, aggregates); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// resolveScorePath resolves a score argument: an existing file path is
// used as is, anything else is looked up in the score directory.
func resolveScorePath(arg string) string {
	if _, err := os.Stat(arg); err == nil {
		return arg
	}
	name := arg
	if filepath.Ext(name) == "" {
		name += ".json"
	}
	candidate := filepath.Join(config.DefaultScoreDir(), name)
	if _, err := os.Stat(candidate); err == nil {
		return candidate
	}
	return arg
}

func parseMode(s string) (model.Mode, error) {
	switch model.Mode(strings.ToLower(strings.TrimSpace(s))) {
	case model.ModeTraining:
		return model.ModeTraining, nil
	case model.ModeFree:
		return model.ModeFree, nil
	}
	return "", fmt.Errorf("--mode must be %q or %q", model.ModeTraining, model.ModeFree)
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# pupitre configuration
# Uncomment a value to enable it. CLI flags override config values.

[practice]
# mode = %q          # Practice mode (training or free)
# velocity = %d           # Playback velocity (1-127)
# tempo = 0.0             # Tempo override in BPM (0 uses the score tempo)
# weak-top = %d            # Number of weak measures to call out

[midi]
# input-port = ""         # Preferred MIDI input port (substring match)
# output-port = ""        # Preferred MIDI output port (substring match)
# exclude-ports = ["Midi Through"]
`,
		defaultMode,
		defaultVelocity,
		defaultWeakTop,
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
