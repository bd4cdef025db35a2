package monitor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/adyhwang/clipvault/internal/fingerprint"
	"github.com/adyhwang/clipvault/internal/imaging"
	"github.com/adyhwang/clipvault/internal/store"
)

const (
	insertRetries = 2
	insertBackoff = 100 * time.Millisecond
)

// pollOnce runs one classification pass over the current clipboard.
// Text pre-empts everything else: when text is present, image and file
// data on the same clipboard entry are never considered.
func (m *Monitor) pollOnce(ctx context.Context) {
	if !m.cfg.MonitorEnabled {
		return
	}
	if m.ignoring.Load() {
		// Inside a self-ignore window: our own write, not an external change.
		return
	}

	switch {
	case m.clip.ContainsText():
		m.captureText(ctx)
	case m.cfg.CaptureImages && m.clip.ContainsImage():
		m.captureImage(ctx)
	case m.cfg.CaptureFiles && m.clip.ContainsFileList():
		m.captureFileList(ctx)
	}
}

func (m *Monitor) captureText(ctx context.Context) {
	text, err := m.clip.Text()
	if err != nil {
		m.log.Debug("monitor: text read failed", "error", err)
		return
	}
	if strings.TrimSpace(text) == "" {
		return
	}

	if m.cfg.RemoveDuplicates {
		if text == m.lastText {
			return
		}
		exists, err := m.store.ExistsByContent(ctx, text, store.KindText)
		if err != nil {
			m.log.Error("monitor: dedup lookup failed", "error", err)
			return
		}
		if exists {
			if err := m.store.TouchTimestamp(ctx, text, store.KindText); err != nil {
				m.log.Error("monitor: touch failed", "error", err)
				return
			}
			m.lastText = text
			m.publish(Event{Type: EventDuplicateRefreshed})
			return
		}
	}

	item := &store.Item{
		Kind:    store.KindText,
		Content: text,
	}
	if !m.insert(ctx, item) {
		return
	}
	m.lastText = text
	m.publish(Event{Type: EventItemCaptured, Item: item})
	m.evict(ctx)
}

func (m *Monitor) captureImage(ctx context.Context) {
	img, err := m.clip.Image()
	if err != nil {
		m.log.Debug("monitor: image read failed", "error", err)
		return
	}
	data, err := imaging.Encode(img)
	if err != nil {
		// Unencodable bitmaps are dropped, not retried.
		m.log.Warn("monitor: image encode failed", "error", err)
		return
	}
	fp := fingerprint.Bytes(data)

	if m.cfg.RemoveDuplicates {
		if fp == m.lastImageFP {
			return
		}
		exists, err := m.store.ExistsByImageFingerprint(ctx, fp)
		if err != nil {
			m.log.Error("monitor: dedup lookup failed", "error", err)
			return
		}
		if exists {
			if err := m.store.TouchByImageFingerprint(ctx, fp); err != nil {
				m.log.Error("monitor: touch failed", "error", err)
				return
			}
			m.lastImageFP = fp
			m.publish(Event{Type: EventDuplicateRefreshed})
			return
		}
	}

	name := imaging.BlobName(m.now(), fp)
	if err := os.WriteFile(m.store.BlobPath(name), data, 0o644); err != nil {
		m.log.Error("monitor: blob write failed", "ref", name, "error", err)
		return
	}

	bounds := img.Bounds()
	item := &store.Item{
		Kind:             store.KindImage,
		ImageRef:         name,
		ImageFingerprint: fp,
		PreviewText:      fmt.Sprintf("[image %dx%d]", bounds.Dx(), bounds.Dy()),
	}
	if !m.insert(ctx, item) {
		// Don't leave an orphaned blob behind a failed row.
		if rmErr := os.Remove(m.store.BlobPath(name)); rmErr != nil && !os.IsNotExist(rmErr) {
			m.log.Warn("monitor: orphan blob cleanup failed", "ref", name, "error", rmErr)
		}
		return
	}
	m.lastImageFP = fp
	m.publish(Event{Type: EventItemCaptured, Item: item})
	m.evict(ctx)
}

func (m *Monitor) captureFileList(ctx context.Context) {
	paths, err := m.clip.FileList()
	if err != nil {
		m.log.Debug("monitor: file list read failed", "error", err)
		return
	}
	kept := paths[:0:0]
	for _, p := range paths {
		if m.pathExists(p) {
			kept = append(kept, p)
		}
	}
	if len(kept) == 0 {
		return
	}
	fp := fingerprint.FileSet(kept)

	if m.cfg.RemoveDuplicates {
		if fp == m.lastFileFP {
			return
		}
		exists, matched, err := m.store.ExistsByFileSet(ctx, kept)
		if err != nil {
			m.log.Error("monitor: dedup lookup failed", "error", err)
			return
		}
		if exists {
			if err := m.store.TouchTimestamp(ctx, matched, store.KindFileList); err != nil {
				m.log.Error("monitor: touch failed", "error", err)
				return
			}
			m.lastFileFP = fp
			m.publish(Event{Type: EventDuplicateRefreshed})
			return
		}
	}

	item := &store.Item{
		Kind:        store.KindFileList,
		Content:     store.FileListContent(kept),
		FilePaths:   kept,
		PreviewText: store.FileListPreview(kept),
	}
	if !m.insert(ctx, item) {
		return
	}
	m.lastFileFP = fp
	m.publish(Event{Type: EventItemCaptured, Item: item})
	m.evict(ctx)
}

// insert persists the item with a short bounded retry on transient storage
// failures. Reports whether the row made it in.
func (m *Monitor) insert(ctx context.Context, item *store.Item) bool {
	op := func() error {
		err := m.store.Insert(ctx, item)
		if err != nil && !errors.Is(err, store.ErrStorage) {
			return backoff.Permanent(err)
		}
		return err
	}
	pol := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(insertBackoff), insertRetries),
		ctx,
	)
	if err := backoff.Retry(op, pol); err != nil {
		m.log.Error("monitor: insert failed", "kind", item.Kind.String(), "error", err)
		return false
	}
	return true
}

// evict trims ungrouped history back under the configured cap after an
// insert. Grouped items are exempt and never counted.
func (m *Monitor) evict(ctx context.Context) {
	if m.cfg.MaxHistoryItems <= 0 {
		return
	}
	if err := m.store.EvictExcess(ctx, m.cfg.MaxHistoryItems); err != nil {
		m.log.Error("monitor: eviction failed", "error", err)
	}
}
