// Package main is the CLI entry point for appguard.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/eliteGoblin/focusd/app_guard/internal/config"
	"github.com/eliteGoblin/focusd/app_guard/internal/daemon"
	"github.com/eliteGoblin/focusd/app_guard/internal/domain"
	"github.com/eliteGoblin/focusd/app_guard/internal/infra"
	"github.com/eliteGoblin/focusd/app_guard/internal/policy"
	"github.com/eliteGoblin/focusd/app_guard/internal/usecase"
)

var (
	// Version info (set via ldflags)
	Version   = "0.1.0"
	Commit    = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "appguard",
	Short: "Foreground guard - intercepts distracting apps with locks and focus credits",
	Long: `appguard watches for distracting apps coming to the foreground and
interposes a block overlay offering a timed lock, a grace-window early
unlock, or spending of earned focus credits.

Sustained non-distracted activity earns credits; credits buy time-boxed
unlocks; stale credits decay.`,
	Version: Version,
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the foreground guard daemon",
	Long: `Runs the daemon loop: polls for foreground switches, records focus
activity, and requests the block overlay when a blocked item surfaces.`,
	RunE: runRun,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show credit balance, focus progress and blocked items",
	RunE:  runStatus,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List blocked items with categories and lock durations",
	RunE:  runList,
}

var blockCmd = &cobra.Command{
	Use:   "block <item-id>",
	Short: "Block an item (engages an activation lock)",
	Args:  cobra.ExactArgs(1),
	RunE:  runBlock,
}

var unblockCmd = &cobra.Command{
	Use:   "unblock <item-id>",
	Short: "Unblock an item (denied once the grace window has passed)",
	Args:  cobra.ExactArgs(1),
	RunE:  runUnblock,
}

var allowCmd = &cobra.Command{
	Use:   "allow <item-id>",
	Short: "Grant a temporary allowance for a blocked item",
	Args:  cobra.ExactArgs(1),
	RunE:  runAllow,
}

var creditsCmd = &cobra.Command{
	Use:   "credits",
	Short: "Show the credit balance",
	RunE:  runCredits,
}

var decayCmd = &cobra.Command{
	Use:   "decay",
	Short: "Run a credit decay sweep now",
	RunE:  runDecay,
}

var decideCmd = &cobra.Command{
	Use:   "decide <item-id>",
	Short: "Show the interception decision for an item right now",
	Args:  cobra.ExactArgs(1),
	RunE:  runDecide,
}

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Register a completed focus session",
	RunE:  runSession,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run:   runVersion,
}

var (
	configPath    string
	allowMinutes  int
	notifyFlag    bool
	slipCount     int
	targetMinutes int
	doneMinutes   int
	jsonOutput    bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path")
	allowCmd.Flags().IntVar(&allowMinutes, "minutes", 10, "Allowance duration in minutes")
	decideCmd.Flags().BoolVar(&notifyFlag, "notify", false, "Treat the interception as notification-triggered")
	decideCmd.Flags().IntVar(&slipCount, "slips", 0, "Recent slip count to evaluate with")
	sessionCmd.Flags().IntVar(&targetMinutes, "target", 25, "Target minutes")
	sessionCmd.Flags().IntVar(&doneMinutes, "completed", 0, "Completed minutes")
	versionCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output version info as JSON")

	creditsCmd.AddCommand(decayCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(blockCmd)
	rootCmd.AddCommand(unblockCmd)
	rootCmd.AddCommand(allowCmd)
	rootCmd.AddCommand(creditsCmd)
	rootCmd.AddCommand(decideCmd)
	rootCmd.AddCommand(sessionCmd)
	rootCmd.AddCommand(versionCmd)
}

// app bundles the wired components shared by the commands.
type app struct {
	cfg       *config.Config
	logger    *zap.Logger
	kv        domain.KVStore
	store     *infra.BlockerPrefs
	blocklist *usecase.Blocklist
	focus     *usecase.FocusTracker
	credits   *usecase.Credits
	closer    func() error
}

func buildApp(verbose bool) (*app, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	var logger *zap.Logger
	if verbose {
		logger = createLogger(cfg.LogPath)
	} else {
		logger = zap.NewNop()
	}

	kv, closer, err := openStore(cfg)
	if err != nil {
		return nil, err
	}

	ledger := infra.NewMemLedger(context.Background(), kv)
	credits := usecase.NewCredits(ledger, logger)
	focus := usecase.NewFocusTracker(infra.NewFocusPrefs(kv), credits, logger)
	store := infra.NewBlockerPrefs(kv)
	blocklist := usecase.NewBlocklist(store, focus, logger)

	return &app{
		cfg:       cfg,
		logger:    logger,
		kv:        kv,
		store:     store,
		blocklist: blocklist,
		focus:     focus,
		credits:   credits,
		closer:    closer,
	}, nil
}

func openStore(cfg *config.Config) (domain.KVStore, func() error, error) {
	if cfg.Store == "encrypted" {
		key, err := infra.EnsureKey(infra.NewFileKeyProvider(cfg.DataDir))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to prepare store key: %w", err)
		}
		store, err := infra.NewEncryptedPrefStore(cfg.DataDir, key)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	}
	store := infra.NewFilePrefStore(prefsPath(cfg))
	return store, func() error { return nil }, nil
}

func prefsPath(cfg *config.Config) string {
	return filepath.Join(cfg.DataDir, "prefs.json")
}

func runRun(cmd *cobra.Command, args []string) error {
	a, err := buildApp(true)
	if err != nil {
		return err
	}
	defer func() { _ = a.closer() }()
	defer func() { _ = a.logger.Sync() }()

	// First daemon start completes onboarding.
	if done, err := a.store.LandingCompleted(context.Background()); err == nil && !done {
		if err := a.store.MarkLandingCompleted(context.Background()); err != nil {
			a.logger.Warn("failed to mark onboarding complete", zap.Error(err))
		}
	}

	handler := daemon.NewHandler(
		a.cfg.SelfIDs,
		a.blocklist,
		a.focus,
		infra.NewStaticLabelResolver(a.cfg.Labels),
		infra.NewLogPresenter(a.logger),
		a.logger,
	)
	defer handler.Close()
	feed := infra.NewProcessFeed(a.cfg.PollInterval(), a.logger)
	runner := daemon.NewRunner(
		daemon.RunnerConfig{
			DecaySweepInterval: a.cfg.DecaySweepInterval(),
			CreditExpiryHours:  a.cfg.CreditExpiryHours,
		},
		feed, handler, a.credits, a.logger,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		a.logger.Info("received shutdown signal")
		cancel()
	}()

	go func() {
		if err := feed.Run(ctx); err != nil && ctx.Err() == nil {
			a.logger.Error("foreground feed stopped", zap.Error(err))
		}
	}()

	// External edits to the preference store (another process, manual
	// fixes) are worth a trace in the log.
	if watcher, ok := a.kv.(domain.KVWatcher); ok {
		if changes, err := watcher.Changes(ctx); err == nil {
			go func() {
				for range changes {
					a.logger.Debug("preference store changed")
				}
			}()
		}
	}

	err = runner.Run(ctx)
	if err == context.Canceled {
		return nil
	}
	return err
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := buildApp(false)
	if err != nil {
		return err
	}
	defer func() { _ = a.closer() }()
	ctx := context.Background()
	now := time.Now()

	fmt.Println("\n=== appguard Status ===")

	balance, err := a.credits.Balance(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Credits: %d min %d s\n", balance/60, balance%60)

	focusState := a.focus.State(ctx)
	fmt.Printf("Focus progress: %d min toward the next reward\n",
		focusState.AccumulatedFocusMillis/60_000)

	if done, err := a.store.LandingCompleted(ctx); err == nil {
		fmt.Printf("Onboarding complete: %v\n", done)
	}

	blocked := a.blocklist.BlockedItems(ctx)
	allowances := a.blocklist.ActiveAllowances(ctx, now)
	locks := a.blocklist.ActiveLocks(ctx, now)

	if len(blocked) == 0 {
		fmt.Println("\nNo blocked items.")
	} else {
		fmt.Println("\nBlocked items:")
		for _, id := range sortedKeys(blocked) {
			line := "  - " + id
			if lock, ok := locks[id]; ok {
				line += fmt.Sprintf(" (locked until %s)",
					humanize.Time(time.UnixMilli(lock.LockUntilMillis)))
			}
			if until, ok := allowances[id]; ok {
				line += fmt.Sprintf(" (allowed until %s)",
					humanize.Time(time.UnixMilli(until)))
			}
			fmt.Println(line)
		}
	}

	fmt.Println("=======================")
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	a, err := buildApp(false)
	if err != nil {
		return err
	}
	defer func() { _ = a.closer() }()
	ctx := context.Background()

	fmt.Println("\n=== Blocked Items ===")
	blocked := a.blocklist.BlockedItems(ctx)
	for _, id := range sortedKeys(blocked) {
		item := policy.NewWatchedItem(id, a.cfg.Labels[id])
		fmt.Printf("\n[%s] %s\n", item.ID, item.Label)
		fmt.Printf("  Category: %s\n", policy.DisplayName(item.Category))
		fmt.Printf("  Lock duration: %d min\n", item.LockDurationMinutes)
	}
	fmt.Println("\n=====================")
	return nil
}

func runBlock(cmd *cobra.Command, args []string) error {
	return toggle(args[0], true)
}

func runUnblock(cmd *cobra.Command, args []string) error {
	return toggle(args[0], false)
}

func toggle(itemID string, shouldBlock bool) error {
	a, err := buildApp(false)
	if err != nil {
		return err
	}
	defer func() { _ = a.closer() }()
	ctx := context.Background()

	item := policy.NewWatchedItem(itemID, a.cfg.Labels[itemID])
	event, err := a.blocklist.Toggle(ctx, item, shouldBlock, time.Now())
	if err != nil {
		return err
	}

	switch e := event.(type) {
	case usecase.LockEngaged:
		fmt.Printf("%s blocked. Lock engaged for %d min (until %s).\n",
			e.Label, e.DurationMinutes, humanize.Time(time.UnixMilli(e.UnlockAtMillis)))
	case usecase.ToggleLocked:
		fmt.Printf("%s stays blocked: the lock holds until %s.\n",
			e.Label, humanize.Time(time.UnixMilli(e.UnlockAtMillis)))
	case usecase.FreeLimitReached:
		fmt.Printf("Free plan limit reached (%d blocked items).\n", e.Limit)
	default:
		if shouldBlock {
			fmt.Printf("%s blocked.\n", item.Label)
		} else {
			fmt.Printf("%s unblocked.\n", item.Label)
		}
	}
	return nil
}

func runAllow(cmd *cobra.Command, args []string) error {
	a, err := buildApp(false)
	if err != nil {
		return err
	}
	defer func() { _ = a.closer() }()

	if err := a.blocklist.GrantAllowance(context.Background(), args[0], time.Now(), allowMinutes); err != nil {
		return err
	}
	fmt.Printf("Allowance granted: %s for %d min.\n", args[0], allowMinutes)
	return nil
}

func runCredits(cmd *cobra.Command, args []string) error {
	a, err := buildApp(false)
	if err != nil {
		return err
	}
	defer func() { _ = a.closer() }()

	balance, err := a.credits.Balance(context.Background())
	if err != nil {
		return err
	}
	fmt.Printf("Credit balance: %d min %d s (cap %d min)\n",
		balance/60, balance%60, domain.MaxCreditsSeconds/60)
	return nil
}

func runDecay(cmd *cobra.Command, args []string) error {
	a, err := buildApp(false)
	if err != nil {
		return err
	}
	defer func() { _ = a.closer() }()

	decayed, err := a.credits.Decay(context.Background(), a.cfg.CreditExpiryHours)
	if err != nil {
		return err
	}
	if decayed == 0 {
		fmt.Println("Nothing to decay.")
	} else {
		fmt.Printf("Decayed %d s of stale credit.\n", decayed)
	}
	return nil
}

func runDecide(cmd *cobra.Command, args []string) error {
	a, err := buildApp(false)
	if err != nil {
		return err
	}
	defer func() { _ = a.closer() }()
	ctx := context.Background()

	balance, err := a.credits.Balance(ctx)
	if err != nil {
		return err
	}
	item := policy.NewWatchedItem(args[0], a.cfg.Labels[args[0]])
	decision := usecase.Engine{}.Evaluate(domain.InterceptContext{
		Item:                    item,
		Timestamp:               time.Now(),
		AvailableCreditsSeconds: balance,
		NotificationTriggered:   notifyFlag,
		RecentSlipCount:         slipCount,
	})

	fmt.Printf("Decision for %s:\n", item.Label)
	switch action := decision.Action.(type) {
	case domain.ActionAllow:
		fmt.Printf("  Allow for %d s", action.DurationSeconds)
		if decision.AutoBypass {
			fmt.Print(" (auto bypass)")
		}
		fmt.Println()
	case domain.ActionNotificationPeek:
		fmt.Printf("  Notification peek for %d s\n", action.DurationSeconds)
	case domain.ActionPromptFocus:
		fmt.Printf("  Prompt a %d-minute focus session\n", action.DurationMinutes)
	case domain.ActionBlock:
		fmt.Println("  Block")
	}
	if decision.CreditCostSeconds > 0 {
		fmt.Printf("  Credit cost: %d s\n", decision.CreditCostSeconds)
	}
	for _, line := range decision.Reasoning {
		fmt.Printf("  - %s\n", line)
	}
	return nil
}

func runSession(cmd *cobra.Command, args []string) error {
	a, err := buildApp(false)
	if err != nil {
		return err
	}
	defer func() { _ = a.closer() }()

	sessions := usecase.NewFocusSessions(infra.NewMemSessions(), a.credits)
	session, err := sessions.Register(context.Background(), targetMinutes, doneMinutes, domain.IntentOther)
	if err != nil {
		return err
	}
	fmt.Printf("Focus session %s registered: %d/%d min, rewarded %d s.\n",
		session.ID, session.CompletedMinutes, session.TargetMinutes, session.RewardedSeconds)
	return nil
}

func createLogger(logPath string) *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{logPath, "stderr"}
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		// Fallback to stderr if file logging fails
		logger, _ = zap.NewProduction()
	}
	return logger
}

func runVersion(cmd *cobra.Command, args []string) {
	if jsonOutput {
		fmt.Printf(`{"version":"%s","commit":"%s","build_time":"%s"}`+"\n",
			Version, Commit, BuildTime)
	} else {
		fmt.Printf("appguard %s (commit: %s, built: %s)\n",
			Version, Commit, BuildTime)
	}
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
