// Package tracking follows grabbed releases through the download client
// until they are imported, blocked or failed.
package tracking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"

	"novagrab/config"
	"novagrab/internal/clock"
	"novagrab/models"
	"novagrab/services/downloadclient"
	"novagrab/services/history"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"
)

// item is one tracked download. process serializes everything that may
// transition it; mu only guards reads and writes of td.
type item struct {
	process sync.Mutex

	mu sync.RWMutex
	td models.TrackedDownload
}

func (it *item) snapshot() models.TrackedDownload {
	it.mu.RLock()
	defer it.mu.RUnlock()
	return it.td.Clone()
}

func (it *item) update(fn func(td *models.TrackedDownload)) {
	it.mu.Lock()
	defer it.mu.Unlock()
	fn(&it.td)
}

// Tracker holds the active set of tracked downloads.
type Tracker struct {
	cfg      settingsProvider
	client   DownloadClient
	importer Importer
	ledger   Ledger
	clock    clock.Clock

	researchMu sync.RWMutex
	researcher Researcher

	mu    sync.RWMutex
	items map[string]*item

	listenerMu sync.RWMutex
	listeners  []func(models.Transition)
}

func NewTracker(cfg settingsProvider, client DownloadClient, importer Importer, ledger Ledger) *Tracker {
	return &Tracker{
		cfg:      cfg,
		client:   client,
		importer: importer,
		ledger:   ledger,
		clock:    clock.Real(),
		items:    make(map[string]*item),
	}
}

// SetClock replaces the clock used for timestamps.
func (t *Tracker) SetClock(c clock.Clock) {
	t.clock = c
}

// SetResearcher installs the component asked for a replacement after a
// failed download was blocklisted.
func (t *Tracker) SetResearcher(r Researcher) {
	t.researchMu.Lock()
	defer t.researchMu.Unlock()
	t.researcher = r
}

// OnTransition registers fn to be called after every state change. Listeners
// run synchronously on the goroutine applying the transition and must not
// call back into the tracker for the same download.
func (t *Tracker) OnTransition(fn func(models.Transition)) {
	t.listenerMu.Lock()
	defer t.listenerMu.Unlock()
	t.listeners = append(t.listeners, fn)
}

// Track adds a freshly grabbed download to the active set.
func (t *Tracker) Track(td models.TrackedDownload) (models.TrackedDownload, error) {
	td.ID = strings.TrimSpace(td.ID)
	if td.ID == "" {
		return models.TrackedDownload{}, ErrDownloadIDMissing
	}
	now := t.clock.Now().UTC()
	td.State = models.DownloadStateDownloading
	if td.Client == "" && t.client != nil {
		td.Client = t.client.Name()
	}
	if td.GrabbedAt.IsZero() {
		td.GrabbedAt = now
	}
	if td.SizeBytes == 0 {
		td.SizeBytes = td.Candidate.Release.SizeBytes
		td.SizeLeft = td.SizeBytes
	}
	td.UpdatedAt = now

	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.items[td.ID]; ok {
		return models.TrackedDownload{}, fmt.Errorf("%w: %s", ErrAlreadyTracked, td.ID)
	}
	t.items[td.ID] = &item{td: td.Clone()}
	log.Printf("[tracking] tracking %q as %s", td.Candidate.Release.Title, td.ID)
	return td.Clone(), nil
}

// Get returns a copy of one tracked download.
func (t *Tracker) Get(id string) (models.TrackedDownload, bool) {
	it, ok := t.lookup(id)
	if !ok {
		return models.TrackedDownload{}, false
	}
	return it.snapshot(), true
}

// CurrentlyTracked returns copies of every active download, oldest grab first.
func (t *Tracker) CurrentlyTracked() []models.TrackedDownload {
	items := t.activeItems()
	out := make([]models.TrackedDownload, 0, len(items))
	for _, it := range items {
		out = append(out, it.snapshot())
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].GrabbedAt.Equal(out[j].GrabbedAt) {
			return out[i].GrabbedAt.Before(out[j].GrabbedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// PollOnce refreshes every tracked download once. Items are processed in
// parallel but each item by at most one goroutine at a time. Cancelling ctx
// stops new items from starting; an item already being processed always
// finishes.
func (t *Tracker) PollOnce(ctx context.Context) error {
	settings, err := t.cfg.Load()
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}
	items := t.activeItems()
	if len(items) == 0 {
		return nil
	}

	workers := settings.Tracking.ParallelPolls
	if workers < 1 {
		workers = 1
	}
	itemCtx := context.WithoutCancel(ctx)
	p := pool.New().WithMaxGoroutines(workers)
	for _, it := range items {
		if ctx.Err() != nil {
			break
		}
		p.Go(func() {
			if ctx.Err() != nil {
				return
			}
			t.process(itemCtx, settings, it)
		})
	}
	p.Wait()
	return ctx.Err()
}

// Remove drops a download from the client and the active set. With
// blocklist the release is recorded as failed and blocklisted first so it is
// never grabbed again.
func (t *Tracker) Remove(ctx context.Context, id string, blocklist bool) error {
	it, ok := t.lookup(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotTracked, id)
	}
	it.process.Lock()
	defer it.process.Unlock()

	td := it.snapshot()
	if td.State.Terminal() {
		return fmt.Errorf("%w: %s", ErrNotTracked, id)
	}
	if err := t.client.Remove(ctx, td.ID, false); err != nil && !errors.Is(err, downloadclient.ErrNotFound) {
		return fmt.Errorf("remove %s from %s: %w", td.ID, td.Client, err)
	}

	if !blocklist {
		return t.transition(it, models.DownloadStateRemoved, "removed by user")
	}
	const reason = "removed by user"
	if td.State != models.DownloadStateFailed {
		if err := t.fail(ctx, it, reason); err != nil {
			return err
		}
	}
	return t.blocklist(ctx, it, reason, false, false)
}

// RetryImport attempts the import of a blocked download again.
func (t *Tracker) RetryImport(ctx context.Context, id string) (models.TrackedDownload, error) {
	it, ok := t.lookup(id)
	if !ok {
		return models.TrackedDownload{}, fmt.Errorf("%w: %s", ErrNotTracked, id)
	}
	it.process.Lock()
	defer it.process.Unlock()

	td := it.snapshot()
	switch td.State {
	case models.DownloadStateImportBlocked:
		if err := t.transition(it, models.DownloadStateImportPending, "manual import retry"); err != nil {
			return td, err
		}
	case models.DownloadStateImportPending:
	default:
		return td, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, td.State, models.DownloadStateImporting)
	}
	t.importDownload(ctx, it)
	return it.snapshot(), nil
}

// Restore rebuilds the active set from the download client and the grab
// history, for downloads that were in flight when the process stopped.
func (t *Tracker) Restore(ctx context.Context) (int, error) {
	statuses, err := t.client.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list %s: %w", t.client.Name(), err)
	}
	restored := 0
	for _, st := range statuses {
		if _, ok := t.lookup(st.ExternalID); ok {
			continue
		}
		records, err := t.ledger.ByDownloadID(ctx, st.ExternalID)
		if err != nil {
			return restored, fmt.Errorf("history for %s: %w", st.ExternalID, err)
		}
		if finished(records) {
			continue
		}
		grab, ok := history.LatestGrab(records)
		if !ok {
			log.Printf("[tracking] %s (%q) has no grab history, leaving it alone", st.ExternalID, st.Title)
			continue
		}
		blocked, err := t.downloadBlocklisted(ctx, grab.EntityID, st.ExternalID)
		if err != nil {
			return restored, fmt.Errorf("blocklist for %s: %w", grab.EntityID, err)
		}
		if blocked {
			log.Printf("[tracking] %s (%q) is blocklisted, not restoring it", st.ExternalID, st.Title)
			continue
		}
		if _, err := t.Track(restoreDownload(grab, st, t.client.Name())); err != nil {
			log.Printf("[tracking] failed to restore %s: %v", st.ExternalID, err)
			continue
		}
		restored++
	}
	if restored > 0 {
		log.Printf("[tracking] restored %d downloads from %s", restored, t.client.Name())
	}
	return restored, nil
}

func (t *Tracker) downloadBlocklisted(ctx context.Context, entityID, downloadID string) (bool, error) {
	entries, err := t.ledger.BlocklistForEntity(ctx, entityID)
	if err != nil {
		return false, err
	}
	for _, entry := range entries {
		if entry.MatchesDownload(downloadID) {
			return true, nil
		}
	}
	return false, nil
}

func finished(records []models.HistoryRecord) bool {
	for _, rec := range records {
		if rec.EventType == models.HistoryImported || rec.EventType == models.HistoryFailed {
			return true
		}
	}
	return false
}

func (t *Tracker) process(ctx context.Context, settings config.Settings, it *item) {
	it.process.Lock()
	defer it.process.Unlock()

	td := it.snapshot()
	switch td.State {
	case models.DownloadStateDownloading:
		t.refresh(ctx, settings, it, td)
	case models.DownloadStateImportPending:
		t.importDownload(ctx, it)
	}
}

func (t *Tracker) refresh(ctx context.Context, settings config.Settings, it *item, td models.TrackedDownload) {
	st, err := t.client.Status(ctx, td.ID)
	if errors.Is(err, downloadclient.ErrNotFound) {
		t.failAndApplyPolicy(ctx, settings, it, "download is missing from "+td.Client)
		return
	}
	if err != nil {
		log.Printf("[tracking] status of %s unavailable: %v", td.ID, err)
		t.addMessage(it, "status", err.Error())
		return
	}

	it.update(func(d *models.TrackedDownload) {
		if st.SizeBytes > 0 {
			d.SizeBytes = st.SizeBytes
		}
		d.SizeLeft = st.SizeLeft
		d.ETA = st.ETA
		d.ClientState = st.State
		if st.OutputPath != "" {
			d.OutputPath = st.OutputPath
		}
		d.UpdatedAt = t.clock.Now().UTC()
	})

	switch {
	case st.State == models.ClientStateFailed:
		msg := st.Message
		if msg == "" {
			msg = "download client reported a failure"
		}
		t.failAndApplyPolicy(ctx, settings, it, msg)
	case st.State == models.ClientStateCompleted || (st.SizeLeft == 0 && st.SizeBytes > 0):
		if err := t.transition(it, models.DownloadStateImportPending, "download completed"); err != nil {
			log.Printf("[tracking] %v", err)
			return
		}
		t.importDownload(ctx, it)
	case st.State == models.ClientStateWarning && st.Message != "":
		t.addMessage(it, "warning", st.Message)
	}
}

// importDownload moves an ImportPending download through Importing to one of
// Imported, ImportBlocked or back to ImportPending for transient errors.
func (t *Tracker) importDownload(ctx context.Context, it *item) {
	if err := t.transition(it, models.DownloadStateImporting, "importing"); err != nil {
		log.Printf("[tracking] %v", err)
		return
	}
	td := it.snapshot()

	quality, err := t.importer.Import(ctx, td)
	switch {
	case err == nil:
		if _, herr := t.ledger.Append(ctx, importedRecord(td, quality)); herr != nil {
			log.Printf("[tracking] failed to record import of %s: %v", td.ID, herr)
		}
		_ = t.transition(it, models.DownloadStateImported, "imported as "+quality.String())
	case errors.Is(err, ErrImportRejected):
		t.addMessage(it, "import", err.Error())
		_ = t.transition(it, models.DownloadStateImportBlocked, err.Error())
	default:
		log.Printf("[tracking] import of %s failed, retrying next poll: %v", td.ID, err)
		t.addMessage(it, "import", err.Error())
		_ = t.transition(it, models.DownloadStateImportPending, "import failed: "+err.Error())
	}
}

// failAndApplyPolicy marks the download failed and, when configured,
// blocklists the release and searches for a replacement.
func (t *Tracker) failAndApplyPolicy(ctx context.Context, settings config.Settings, it *item, message string) {
	if err := t.fail(ctx, it, message); err != nil {
		log.Printf("[tracking] %v", err)
		return
	}
	if !settings.Tracking.BlocklistOnFailure {
		return
	}
	if err := t.blocklist(ctx, it, message, true, settings.Tracking.AutoResearch); err != nil {
		log.Printf("[tracking] %v", err)
	}
}

func (t *Tracker) fail(ctx context.Context, it *item, message string) error {
	t.addMessage(it, "failed", message)
	if err := t.transition(it, models.DownloadStateFailed, message); err != nil {
		return err
	}
	td := it.snapshot()
	if _, err := t.ledger.Append(ctx, failedRecord(td, message)); err != nil {
		log.Printf("[tracking] failed to record failure of %s: %v", td.ID, err)
	}
	return nil
}

// blocklist moves a Failed download to Blocklisted and Removed. When the
// blocklist write fails the download stays Failed.
func (t *Tracker) blocklist(ctx context.Context, it *item, message string, removeFromClient, research bool) error {
	td := it.snapshot()
	if _, err := t.ledger.AddBlocklist(ctx, blocklistEntry(td, message)); err != nil {
		t.addMessage(it, "blocklist", err.Error())
		return fmt.Errorf("blocklist %s: %w", td.ID, err)
	}
	if err := t.transition(it, models.DownloadStateBlocklisted, message); err != nil {
		return err
	}
	if removeFromClient {
		if err := t.client.Remove(ctx, td.ID, true); err != nil && !errors.Is(err, downloadclient.ErrNotFound) {
			log.Printf("[tracking] failed to remove %s from %s: %v", td.ID, td.Client, err)
		}
	}
	if err := t.transition(it, models.DownloadStateRemoved, "blocklisted"); err != nil {
		return err
	}
	if research {
		t.research(ctx, td)
	}
	return nil
}

func (t *Tracker) research(ctx context.Context, td models.TrackedDownload) {
	t.researchMu.RLock()
	r := t.researcher
	t.researchMu.RUnlock()
	if r == nil {
		return
	}
	criteria := td.Criteria.WithKnownBad(td.Candidate.Release.Identity())
	criteria.UserInvoked = false
	if err := r.Research(ctx, criteria); err != nil {
		log.Printf("[tracking] re-search for %q failed: %v", criteria.Entity.Title, err)
	}
}

// transition applies one state change, notifies listeners and drops the
// download from the active set once it reaches a terminal state.
func (t *Tracker) transition(it *item, to models.DownloadState, reason string) error {
	now := t.clock.Now().UTC()
	var (
		from models.DownloadState
		id   string
		err  error
	)
	it.update(func(td *models.TrackedDownload) {
		from, id = td.State, td.ID
		if err = checkTransition(from, to); err != nil {
			return
		}
		td.State = to
		td.UpdatedAt = now
	})
	if err != nil {
		return fmt.Errorf("%s: %w", id, err)
	}

	log.Printf("[tracking] %s: %s -> %s (%s)", id, from, to, reason)
	if to.Terminal() {
		t.forget(id, it)
	}
	t.emit(models.Transition{
		ID:         uuid.NewString(),
		DownloadID: id,
		From:       from,
		To:         to,
		At:         now,
		Reason:     reason,
	})
	return nil
}

func (t *Tracker) emit(tr models.Transition) {
	t.listenerMu.RLock()
	listeners := append(([]func(models.Transition))(nil), t.listeners...)
	t.listenerMu.RUnlock()
	for _, fn := range listeners {
		fn(tr)
	}
}

func (t *Tracker) addMessage(it *item, cause, detail string) {
	now := t.clock.Now().UTC()
	it.update(func(td *models.TrackedDownload) {
		td.StatusMessages = append(td.StatusMessages, models.StatusMessage{Cause: cause, Detail: detail, At: now})
	})
}

func (t *Tracker) lookup(id string) (*item, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	it, ok := t.items[strings.TrimSpace(id)]
	return it, ok
}

func (t *Tracker) activeItems() []*item {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*item, 0, len(t.items))
	for _, it := range t.items {
		out = append(out, it)
	}
	return out
}

func (t *Tracker) forget(id string, it *item) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.items[id] == it {
		delete(t.items, id)
	}
}
