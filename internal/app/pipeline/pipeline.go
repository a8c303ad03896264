// Package pipeline implements the Coordinator: the top-level state
// machine that wires the Ingestor, the three validation stages, the
// Incumbent Revalidator, and every ledger into one run.
package pipeline

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"log/slog"

	"github.com/sakha1370/openray/internal/app/checkcount"
	"github.com/sakha1370/openray/internal/app/incumbent"
	"github.com/sakha1370/openray/internal/app/ingest"
	"github.com/sakha1370/openray/internal/app/progress"
	"github.com/sakha1370/openray/internal/app/stage1"
	"github.com/sakha1370/openray/internal/app/stage2"
	"github.com/sakha1370/openray/internal/app/stage3"
	"github.com/sakha1370/openray/internal/app/streak"
	"github.com/sakha1370/openray/internal/config"
	"github.com/sakha1370/openray/internal/domain/proxy"
	"github.com/sakha1370/openray/internal/geo"
	"github.com/sakha1370/openray/internal/openrayerrors"
	"github.com/sakha1370/openray/internal/store/availableledger"
	"github.com/sakha1370/openray/internal/store/cache"
	"github.com/sakha1370/openray/internal/store/dedupledger"
	"github.com/sakha1370/openray/internal/uriparse"
)

// connectivityTargets are the pre-flight connectivity gate's probe
// addresses: a local outage must never be mistaken for every proxy in
// the ledger having gone dark.
var connectivityTargets = []string{"1.1.1.1:443", "8.8.8.8:53"}

// Coordinator owns every subsystem and ledger needed to run one full
// harvest-and-validate pass.
type Coordinator struct {
	cfg    *config.Config
	logger *slog.Logger

	sourcesPath     string
	outputDir       string
	topListPath     string
	streakRequired  int
	recheckExisting bool
	topListEnabled  bool

	ingestor   *ingest.Ingestor
	stage1     *stage1.Prober
	stage2     *stage2.Prober
	stage3     *stage3.Validator
	checker    *incumbent.Checker
	tested     *dedupledger.Ledger
	available  *availableledger.Ledger
	streaks    *streak.Store
	checkCount *checkcount.Store
	cache      *cache.Store
	geoSvc     *geo.Service
}

// New wires a Coordinator from a loaded Config. logger may be nil.
func New(cfg *config.Config, logger *slog.Logger) (*Coordinator, error) {
	if logger == nil {
		logger = slog.Default()
	}

	corePath := ""
	if cfg.EnableStage3 {
		corePath = stage3.DiscoverCore(cfg.V2RayCore, cfg.DataDir)
	}

	stateDir := filepath.Join(cfg.DataDir, ".state")
	outputDir := filepath.Join(cfg.DataDir, "output")

	cacheStore, err := cache.Open(stateDir)
	if err != nil {
		return nil, fmt.Errorf("pipeline: open cache: %w", err)
	}

	s1 := stage1.New(stage1.Config{PingTimeout: cfg.PingTimeout, ConnectTimeout: cfg.ConnectTimeout})
	s2 := stage2.New(stage2.Config{ConnectTimeout: cfg.ConnectTimeout, ProbeTimeout: cfg.ProbeTimeout, EnableTLS: cfg.EnableStage2})
	s3 := stage3.New(stage3.Config{
		CorePath: corePath,
		TempDir:  filepath.Join(cfg.DataDir, ".core-tmp"),
		Timeout:  cfg.Stage3Timeout,
		Workers:  cfg.Stage3Workers,
		MaxRun:   cfg.Stage3Max,
	})
	ing := ingest.New(ingest.Config{FetchWorkers: cfg.FetchWorkers, FetchTimeout: cfg.FetchTimeout}, logger)
	ipapi := geo.NewIPAPIClient(5*time.Second, logger)
	geoSvc := geo.NewService(nil, ipapi, cacheStore)

	return &Coordinator{
		cfg:    cfg,
		logger: logger,

		sourcesPath:     resolveRelative(cfg.DataDir, cfg.Sources),
		outputDir:       outputDir,
		topListPath:     filepath.Join(outputDir, "top100.txt"),
		streakRequired:  cfg.StreakRequired,
		recheckExisting: cfg.RecheckExisting,
		topListEnabled:  cfg.TopListEnabled,

		ingestor:   ing,
		stage1:     s1,
		stage2:     s2,
		stage3:     s3,
		checker:    &incumbent.Checker{Stage1: s1, Stage2: s2, Stage3: s3},
		tested:     dedupledger.New(stateDir),
		available:  availableledger.New(filepath.Join(outputDir, "all_valid_proxies.txt")),
		streaks:    streak.New(filepath.Join(stateDir, "streaks.json")),
		checkCount: checkcount.New(filepath.Join(stateDir, "checkcounts.json")),
		cache:      cacheStore,
		geoSvc:     geoSvc,
	}, nil
}

// Close releases resources held by the Coordinator (the cache
// database handle).
func (c *Coordinator) Close() error {
	return c.cache.Close()
}

func resolveRelative(dataDir, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dataDir, p)
}

// Summary reports the headline counts of one Run: the textual
// per-stage figures printed at the end.
type Summary struct {
	SourcesFetched     int
	ExtractedURIs      int
	NewURIs            int
	TruncatedNewURIs   int
	Stage1Passed       int
	Stage2Passed       int
	Stage3Validated    int
	Stage3Null         int
	AvailableAppended  int
	IncumbentChecked   int
	IncumbentSurvivors int
	LedgerReplaced     bool
}

// Run executes one full Init→Persist pass.
func (c *Coordinator) Run(ctx context.Context) (Summary, openrayerrors.OpenRayError) {
	var sum Summary

	progress.ReportStage(ctx, progress.StagePrepare)
	raw, err := os.ReadFile(c.sourcesPath)
	if err != nil {
		return sum, openrayerrors.NewMissingSourcesError(err)
	}
	sources := ingest.ParseSources(string(raw))

	progress.ReportStage(ctx, progress.StageConnectivity)
	connected := checkConnectivity(ctx)
	if !connected {
		return sum, openrayerrors.NewNoConnectivityError()
	}

	existing, err := c.available.Load()
	if err != nil {
		return sum, openrayerrors.New(err)
	}
	streakTable, err := c.streaks.Load()
	if err != nil {
		return sum, openrayerrors.New(err)
	}
	now := time.Now().Unix()

	progress.ReportStage(ctx, progress.StageRevalidate)
	revalResults := c.revalidateIncumbents(ctx, existing, streakTable)
	survivors := incumbent.Survivors(revalResults)
	sum.IncumbentChecked = len(revalResults)
	sum.IncumbentSurvivors = len(survivors)
	revalHosts := make([]string, 0, len(revalResults))
	revalSeen := make(map[string]bool, len(revalResults))
	revalSurvived := make(map[string]bool, len(revalResults))
	for _, r := range revalResults {
		if r.Host == "" {
			continue
		}
		if !revalSeen[r.Host] {
			revalSeen[r.Host] = true
			revalHosts = append(revalHosts, r.Host)
		}
		if r.Survive {
			revalSurvived[r.Host] = true
		}
	}
	for _, host := range revalHosts {
		streak.Record(streakTable, host, revalSurvived[host], now)
	}
	progress.ReportMessage(ctx, progress.StageRevalidate, strconv.Itoa(len(survivors))+" of "+strconv.Itoa(len(existing))+" incumbents survived")

	reconnected := connected
	if len(existing) > 0 && len(survivors) == 0 {
		reconnected = checkConnectivity(ctx)
	}
	shouldReplace := incumbent.ShouldReplace(len(existing) > 0, len(survivors), reconnected)
	if shouldReplace {
		if err := c.available.ReplaceAll(survivors); err != nil {
			return sum, openrayerrors.New(err)
		}
		sum.LedgerReplaced = true
	}

	progress.ReportStage(ctx, progress.StageIngest)
	fetchResults := c.ingestor.FetchAll(ctx, sources)
	var extracted []proxy.URI
	for _, r := range fetchResults {
		if r.Err != nil {
			c.logger.Debug("ingest: source fetch failed", "source", r.Source.URL, "err", r.Err)
			continue
		}
		extracted = append(extracted, r.URIs...)
	}
	sum.SourcesFetched = len(sources)
	sum.ExtractedURIs = len(extracted)
	progress.ReportMessage(ctx, progress.StageIngest, "fetched "+strconv.Itoa(len(sources))+" sources, extracted "+strconv.Itoa(len(extracted))+" URIs")

	progress.ReportStage(ctx, progress.StageDedup)
	testedSet, err := c.tested.Load()
	if err != nil {
		return sum, openrayerrors.New(err)
	}
	newURIs, newHashes := dedupNew(extracted, testedSet)
	sum.NewURIs = len(newURIs)
	if c.cfg.NewURIsLimitOn && len(newURIs) > c.cfg.NewURIsLimit {
		sum.TruncatedNewURIs = len(newURIs) - c.cfg.NewURIsLimit
		newURIs, newHashes = truncateNewURIs(newURIs, newHashes, c.cfg.NewURIsLimit)
	}
	progress.ReportMessage(ctx, progress.StageDedup, "kept "+strconv.Itoa(len(newURIs))+" of "+strconv.Itoa(len(extracted))+" as new")

	if len(newHashes) > 0 {
		if err := c.tested.Append(newHashes); err != nil {
			return sum, openrayerrors.New(err)
		}
	}

	parsed := uriparse.ParseAll(newURIs)

	progress.ReportStage(ctx, progress.StageStage1)
	hosts := uniqueHosts(parsed)
	alive := c.stage1.BatchReachable(ctx, hosts)
	var afterStage1 []proxy.Parsed
	for _, p := range parsed {
		if alive[p.Host] {
			afterStage1 = append(afterStage1, p)
		}
	}
	sum.Stage1Passed = len(afterStage1)
	progress.ReportMessage(ctx, progress.StageStage1, "kept "+strconv.Itoa(len(afterStage1))+" of "+strconv.Itoa(len(parsed))+" URIs on reachable hosts")

	progress.ReportStage(ctx, progress.StageStage2)
	afterStage2 := c.runStage2(ctx, afterStage1)
	sum.Stage2Passed = len(afterStage2)
	progress.ReportMessage(ctx, progress.StageStage2, "kept "+strconv.Itoa(len(afterStage2))+" of "+strconv.Itoa(len(afterStage1))+" ports open")

	progress.ReportStage(ctx, progress.StageStage3)
	finalists, validated, nullCount := c.runStage3(ctx, afterStage2)
	sum.Stage3Validated = validated
	sum.Stage3Null = nullCount
	progress.ReportMessage(ctx, progress.StageStage3, strconv.Itoa(validated)+" validated, "+strconv.Itoa(nullCount)+" unavailable")

	finalHost := make(map[string]bool, len(finalists))
	for _, p := range finalists {
		finalHost[p.Host] = true
	}
	for _, host := range hosts {
		streak.Record(streakTable, host, finalHost[host], now)
	}

	progress.ReportStage(ctx, progress.StageGeoTag)
	appended := 0
	for _, p := range finalists {
		cc := c.geoSvc.Lookup(ctx, p.Host)
		if _, err := c.available.Append(p.Raw, cc); err != nil {
			c.logger.Debug("availableledger: append failed", "uri", string(p.Raw), "err", err)
			continue
		}
		appended++
	}
	sum.AvailableAppended = appended
	progress.ReportMessage(ctx, progress.StageGeoTag, "appended "+strconv.Itoa(appended)+" new proxies")

	progress.ReportStage(ctx, progress.StagePersist)
	zeroSuccesses := len(revalSurvived) == 0 && len(finalHost) == 0
	outageGuard := zeroSuccesses && !checkConnectivity(ctx)
	if err := c.streaks.Save(streakTable, outageGuard); err != nil {
		return sum, openrayerrors.New(err)
	}

	finalLedger, err := c.available.Load()
	if err != nil {
		return sum, openrayerrors.New(err)
	}
	regrouped := availableledger.RegroupByCountry(finalLedger)
	if err := c.available.ReplaceAll(regrouped); err != nil {
		return sum, openrayerrors.New(err)
	}
	if err := availableledger.WriteGroupedViews(c.outputDir, regrouped); err != nil {
		return sum, openrayerrors.New(err)
	}

	if err := c.checkCount.Cleanup(regrouped); err != nil {
		return sum, openrayerrors.New(err)
	}
	if err := c.checkCount.Increment(survivors, regrouped); err != nil {
		return sum, openrayerrors.New(err)
	}
	if c.topListEnabled {
		counts, err := c.checkCount.Load()
		if err != nil {
			return sum, openrayerrors.New(err)
		}
		top := checkcount.Top100(regrouped, counts)
		if err := writeTopList(c.topListPath, top); err != nil {
			return sum, openrayerrors.New(err)
		}
	}

	return sum, nil
}

// revalidateIncumbents runs the full Stage1→Stage2→Stage3 chain on
// every entry, except that a host already carrying a streak of
// streakRequired-or-more consecutive successes is exempted down to a
// Stage 1 reachability check only, unless RecheckExisting forces the
// full chain every run.
func (c *Coordinator) revalidateIncumbents(ctx context.Context, entries []proxy.URI, streakTable map[string]streak.Entry) []incumbent.Result {
	if c.recheckExisting || c.streakRequired <= 0 {
		return c.checker.Revalidate(ctx, entries)
	}

	var full []proxy.URI
	fullIdx := make([]int, 0, len(entries))
	out := make([]incumbent.Result, len(entries))

	for i, u := range entries {
		p, err := uriparse.Parse(u)
		if err != nil {
			out[i] = incumbent.Result{URI: u, Survive: false}
			continue
		}
		if streakTable[p.Host].Streak >= c.streakRequired {
			out[i] = incumbent.Result{URI: u, Host: p.Host, Survive: c.stage1.Reachable(ctx, p.Host)}
			continue
		}
		full = append(full, u)
		fullIdx = append(fullIdx, i)
	}

	fullResults := c.checker.Revalidate(ctx, full)
	for j, idx := range fullIdx {
		out[idx] = fullResults[j]
	}
	return out
}

func (c *Coordinator) runStage2(ctx context.Context, candidates []proxy.Parsed) []proxy.Parsed {
	results := make([]bool, len(candidates))
	var wg sync.WaitGroup
	tokens := make(chan struct{}, workerCount(c.cfg.PingWorkers))
	for i, p := range candidates {
		if !p.Scheme.TCPNative() {
			results[i] = true
			continue
		}
		i, p := i, p
		wg.Add(1)
		tokens <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-tokens }()
			results[i] = c.stage2.Probe(ctx, p)
		}()
	}
	wg.Wait()

	out := make([]proxy.Parsed, 0, len(candidates))
	for i, p := range candidates {
		if results[i] {
			out = append(out, p)
		}
	}
	return out
}

func (c *Coordinator) runStage3(ctx context.Context, candidates []proxy.Parsed) (finalists []proxy.Parsed, validated, nullCount int) {
	type slot struct {
		parsed  proxy.Parsed
		keep    bool
		counted bool
	}
	slots := make([]slot, len(candidates))
	eligible := 0

	var wg sync.WaitGroup
	for i, p := range candidates {
		slots[i].parsed = p
		if !p.Scheme.CoreSupported() || !c.stage3.Available() || eligible >= c.cfg.Stage3Max {
			slots[i].keep = true
			continue
		}
		eligible++
		i, p := i, p
		wg.Add(1)
		go func() {
			defer wg.Done()
			verdict := c.stage3.Validate(ctx, p)
			ok, present := verdict.Get()
			if !present {
				slots[i].keep = true
				return
			}
			slots[i].keep = ok
			slots[i].counted = true
		}()
	}
	wg.Wait()

	finalists = make([]proxy.Parsed, 0, len(slots))
	for _, s := range slots {
		if s.counted {
			validated++
		} else {
			nullCount++
		}
		if s.keep {
			finalists = append(finalists, s.parsed)
		}
	}
	return finalists, validated, nullCount
}

func workerCount(n int) int {
	if n < 1 {
		return 1
	}
	return n
}

// checkConnectivity implements the pre-flight gate: a bare TCP connect
// to any one of connectivityTargets passing is enough.
func checkConnectivity(ctx context.Context) bool {
	dialer := net.Dialer{Timeout: 3 * time.Second}
	for _, addr := range connectivityTargets {
		dialCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		conn, err := dialer.DialContext(dialCtx, "tcp", addr)
		cancel()
		if err == nil {
			conn.Close()
			return true
		}
	}
	return false
}

// dedupNew filters candidates down to those whose content hash isn't
// already present in tested, preserving order and deduplicating
// within candidates itself.
func dedupNew(candidates []proxy.URI, tested map[dedupledger.Hash]struct{}) ([]proxy.URI, []dedupledger.Hash) {
	seen := make(map[dedupledger.Hash]struct{}, len(candidates))
	newURIs := make([]proxy.URI, 0, len(candidates))
	newHashes := make([]dedupledger.Hash, 0, len(candidates))
	for _, u := range candidates {
		h := u.Hash()
		if _, ok := tested[h]; ok {
			continue
		}
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		newURIs = append(newURIs, u)
		newHashes = append(newHashes, h)
	}
	return newURIs, newHashes
}

// truncateNewURIs applies NEW_URIS_LIMIT, keeping the hash slice in
// lockstep with the URI slice so only the processed prefix is marked
// tested; the remainder is picked up again on the next run.
func truncateNewURIs(uris []proxy.URI, hashes []dedupledger.Hash, limit int) ([]proxy.URI, []dedupledger.Hash) {
	if limit < 0 {
		limit = 0
	}
	if len(uris) <= limit {
		return uris, hashes
	}
	return uris[:limit], hashes[:limit]
}

// uniqueHosts returns the distinct hosts among parsed, in first-seen
// order.
func uniqueHosts(parsed []proxy.Parsed) []string {
	seen := make(map[string]struct{}, len(parsed))
	out := make([]string, 0, len(parsed))
	for _, p := range parsed {
		if _, ok := seen[p.Host]; ok {
			continue
		}
		seen[p.Host] = struct{}{}
		out = append(out, p.Host)
	}
	return out
}

func writeTopList(path string, entries []proxy.URI) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	var sb []byte
	for _, e := range entries {
		sb = append(sb, []byte(string(e)+"\n")...)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, sb, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
