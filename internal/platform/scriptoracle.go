package platform

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"go.uber.org/zap"

	"github.com/open-runtime/contextfusion/internal/cache"
	"github.com/open-runtime/contextfusion/internal/cferrors"
	"github.com/open-runtime/contextfusion/internal/logger"
)

// QueryKind identifies what an AppleScript query is after, for cache-key
// purposes and for selecting the script template.
type QueryKind string

const (
	QueryBrowserURL       QueryKind = "browser_url"
	QueryBrowserTitle     QueryKind = "browser_title"
	QueryBrowserTabCount  QueryKind = "browser_tab_count"
	QueryDocumentPath     QueryKind = "document_path"
	QueryFinderFolder     QueryKind = "finder_folder"
	QueryFinderSelection  QueryKind = "finder_selection"
)

// ScriptOracle runs short AppleScript queries through osascript (A.6). It is
// cross-platform at the Go level (os/exec) even though osascript itself only
// exists on macOS; on non-darwin the command simply fails to start and every
// query reports unavailable, which is indistinguishable from a real timeout
// to the extractor.
//
// Results are cached per (bundle id, query kind) for a short TTL so a storm
// of observations against the same frontmost app does not re-invoke
// osascript once per observation.
type ScriptOracle struct {
	Timeout time.Duration
	cache   cache.Cache
	ttl     time.Duration
}

// NewScriptOracle builds an oracle backed by an LRU+TTL cache. ttl is the
// per-key cache lifetime; capacity bounds the number of distinct
// (bundle id, query kind) pairs retained.
func NewScriptOracle(timeout, ttl time.Duration, capacity int) *ScriptOracle {
	return &ScriptOracle{
		Timeout: timeout,
		cache:   cache.NewMemoryCache(capacity, ttl),
		ttl:     ttl,
	}
}

func cacheKey(bundleID string, kind QueryKind) string {
	return bundleID + "|" + string(kind)
}

// Query runs script for the given bundle id and query kind, returning a
// cached result if one is fresh. script is the literal AppleScript source;
// callers (the extractor) build it per app class.
//
// Never call this from the thread that delivers OS notifications: osascript
// can block for the full timeout, and the workspace/AX callbacks must stay
// responsive.
func (o *ScriptOracle) Query(ctx context.Context, bundleID string, kind QueryKind, script string) (string, error) {
	key := cacheKey(bundleID, kind)
	if v, ok := o.cache.Get(key); ok {
		return v.(string), nil
	}

	timeout := o.Timeout
	if timeout <= 0 {
		timeout = 250 * time.Millisecond
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, "osascript", "-e", script)
	out, err := cmd.Output()
	if runCtx.Err() != nil {
		return "", fmt.Errorf("%w: script oracle query %s/%s", cferrors.ErrSourceTimeout, bundleID, kind)
	}
	if err != nil {
		logger.Debug("script oracle query failed", zap.String("bundle_id", bundleID), zap.String("kind", string(kind)), zap.Error(err))
		return "", fmt.Errorf("%w: %v", cferrors.ErrSourceUnavailable, err)
	}

	result := trimTrailingNewline(string(out))
	ttl := o.ttl
	if ttl <= 0 {
		ttl = 200 * time.Millisecond
	}
	if err := o.cache.Set(key, result, ttl); err != nil {
		logger.Warn("script oracle cache set failed", zap.Error(err))
	}
	return result, nil
}

func trimTrailingNewline(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}

func (o *ScriptOracle) Stop() { o.cache.Stop() }
