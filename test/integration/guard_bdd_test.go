//go:build integration

package integration

import (
	"context"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/eliteGoblin/focusd/app_guard/internal/daemon"
	"github.com/eliteGoblin/focusd/app_guard/internal/domain"
	"github.com/eliteGoblin/focusd/app_guard/internal/infra"
	"github.com/eliteGoblin/focusd/app_guard/internal/usecase"
	"github.com/eliteGoblin/focusd/app_guard/test/fixtures"
)

var _ = Describe("Foreground Guard", func() {
	var (
		tmpDir    string
		kv        *infra.FilePrefStore
		blocklist *usecase.Blocklist
		credits   *usecase.Credits
		outcomes  *usecase.Outcomes
		feed      *fixtures.ScriptedFeed
		presenter *fixtures.ChannelPresenter
		cancel    context.CancelFunc
		done      chan struct{}
	)

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "appguard-integration-*")
		Expect(err).NotTo(HaveOccurred())

		logger := zap.NewNop()
		kv = infra.NewFilePrefStore(filepath.Join(tmpDir, "prefs.json"))
		credits = usecase.NewCredits(infra.NewMemLedger(context.Background(), kv), logger)
		focus := usecase.NewFocusTracker(infra.NewFocusPrefs(kv), credits, logger)
		blocklist = usecase.NewBlocklist(infra.NewBlockerPrefs(kv), focus, logger)
		outcomes = usecase.NewOutcomes(infra.NewMemIntercepts(usecase.DefaultHistoryLimit), credits, logger)

		feed = fixtures.NewScriptedFeed()
		presenter = fixtures.NewChannelPresenter()
		handler := daemon.NewHandler(nil, blocklist, focus,
			infra.NewStaticLabelResolver(map[string]string{"com.example.feed": "Feed"}),
			presenter, logger)
		runner := daemon.NewRunner(daemon.DefaultRunnerConfig(), feed, handler, credits, logger)

		var ctx context.Context
		ctx, cancel = context.WithCancel(context.Background())
		done = make(chan struct{})
		go func() {
			defer close(done)
			_ = runner.Run(ctx)
		}()
	})

	AfterEach(func() {
		cancel()
		Eventually(done).Should(BeClosed())
		os.RemoveAll(tmpDir)
	})

	Describe("Interception", func() {
		Context("when a blocked item comes to the foreground", func() {
			It("should request the overlay with the lock deadline", func() {
				item := domain.WatchedItem{ID: "com.example.feed", Label: "Feed", LockDurationMinutes: 240}
				event, err := blocklist.Toggle(context.Background(), item, true, time.Now())
				Expect(err).NotTo(HaveOccurred())
				engaged, ok := event.(usecase.LockEngaged)
				Expect(ok).To(BeTrue())

				feed.Foreground("com.example.feed")

				var req domain.OverlayRequest
				Eventually(presenter.Ch).Should(Receive(&req))
				Expect(req.ItemID).To(Equal("com.example.feed"))
				Expect(req.Label).To(Equal("Feed"))
				Expect(req.LockUntilMillis).To(Equal(engaged.UnlockAtMillis))
			})

			It("should not present for unblocked items", func() {
				feed.Foreground("com.example.editor")
				Consistently(presenter.Ch, 200*time.Millisecond).ShouldNot(Receive())
			})
		})

		Context("when credits are spent for an unlock", func() {
			It("should settle the cost and honor the allowance until expiry", func() {
				ctx := context.Background()
				Expect(credits.Earn(ctx, 1800, nil)).To(Succeed())

				item := domain.WatchedItem{ID: "com.example.feed", Label: "Feed", LockDurationMinutes: 240}
				_, err := blocklist.Toggle(ctx, item, true, time.Now())
				Expect(err).NotTo(HaveOccurred())

				balance, err := credits.Balance(ctx)
				Expect(err).NotTo(HaveOccurred())
				decision := usecase.Engine{}.Evaluate(domain.InterceptContext{
					Item:                    item,
					Timestamp:               time.Now(),
					AvailableCreditsSeconds: balance,
				})
				allow, ok := decision.Action.(domain.ActionAllow)
				Expect(ok).To(BeTrue())
				Expect(allow.DurationSeconds).To(Equal(int64(600)))

				Expect(outcomes.Record(ctx, domain.InterceptContext{Item: item},
					decision, domain.OutcomeUseCredits)).To(Succeed())
				balance, err = credits.Balance(ctx)
				Expect(err).NotTo(HaveOccurred())
				Expect(balance).To(Equal(int64(1200)))

				// A short allowance stands in for the granted unlock window.
				Expect(blocklist.GrantAllowance(ctx, item.ID, time.Now().Add(-time.Minute), 1)).To(Succeed())

				// The allowance runs out almost immediately, so the
				// overlay comes back on the next foreground visit.
				feed.Foreground("com.example.feed")
				var req domain.OverlayRequest
				Eventually(presenter.Ch, 2*time.Second).Should(Receive(&req))
				Expect(req.ItemID).To(Equal("com.example.feed"))
			})
		})

		Context("when the allowance is still running", func() {
			It("should suppress the overlay", func() {
				ctx := context.Background()
				item := domain.WatchedItem{ID: "com.example.feed", Label: "Feed", LockDurationMinutes: 240}
				_, err := blocklist.Toggle(ctx, item, true, time.Now())
				Expect(err).NotTo(HaveOccurred())
				Expect(blocklist.GrantAllowance(ctx, item.ID, time.Now(), 10)).To(Succeed())

				feed.Foreground("com.example.feed")
				Consistently(presenter.Ch, 300*time.Millisecond).ShouldNot(Receive())
			})
		})
	})

	Describe("Persistence", func() {
		It("should keep blocks and locks across a store reopen", func() {
			ctx := context.Background()
			item := domain.WatchedItem{ID: "com.example.feed", Label: "Feed", LockDurationMinutes: 240}
			_, err := blocklist.Toggle(ctx, item, true, time.Now())
			Expect(err).NotTo(HaveOccurred())

			reopened := usecase.NewBlocklist(
				infra.NewBlockerPrefs(infra.NewFilePrefStore(kv.Path())),
				usecase.NewFocusTracker(infra.NewFocusPrefs(kv), credits, zap.NewNop()),
				zap.NewNop())

			Expect(reopened.BlockedItems(ctx)).To(HaveKey("com.example.feed"))
			status := reopened.UnlockEligibility(ctx, "com.example.feed", time.Now())
			Expect(status.State).To(Equal(usecase.UnlockLocked))
		})
	})
})
