// Package download implements alias-group resolution, single-file
// streaming with a 95%-complete download counter latch, on-the-fly ZIP
// archiving of multiple files, and the preview-bot redirect page
// (spec §4.8).
package download

import (
	"archive/zip"
	"context"
	"fmt"
	"hash/crc32"
	"html"
	"io"
	"net/http"
	"path"
	"strconv"
	"strings"

	"github.com/scotow/dropit/internal/alias"
	"github.com/scotow/dropit/internal/apierr"
	"github.com/scotow/dropit/internal/blobstore"
	"github.com/scotow/dropit/internal/logger"
	"github.com/scotow/dropit/internal/metastore"
)

// completionThresholdPercent is the fraction of declared bytes that must
// have been forwarded before file_downloaded fires (spec §4.8).
const completionThresholdPercent = 95

// previewBots are case-insensitive User-Agent substrings that trigger the
// HTML redirect page instead of consuming a download.
var previewBots = []string{"discord", "facebook", "twitter"}

// Recorder observes download completions and the resulting file removals.
// *metrics.Metrics implements it; a nil Recorder is fine to pass through.
type Recorder interface {
	DownloadServed(kind string, bytes int64)
	FileRemoved(size int64)
}

// Pipeline wires MetaStore lookups, BlobStore reads and the completion
// callback together to serve download requests.
type Pipeline struct {
	meta    metastore.Store
	blobs   *blobstore.Store
	metrics Recorder
	// OnDownloaded is invoked once per successfully consumed file.
	OnDownloaded func(ctx context.Context, id string, size int64)
}

// New builds a Pipeline whose OnDownloaded performs the counter
// accounting transaction (spec §4.8) by default. metrics may be nil.
func New(meta metastore.Store, blobs *blobstore.Store, metrics Recorder) *Pipeline {
	p := &Pipeline{meta: meta, blobs: blobs, metrics: metrics}
	p.OnDownloaded = p.accountDownload
	return p
}

// accountDownload implements the file_downloaded transaction: fetch
// downloads_remaining; nil means unlimited (no-op); >1 decrements; ==1
// deletes the blob then the row; ==0 is logged as an invariant violation
// (a live row should never reach zero outside this path) and otherwise
// ignored. Errors are logged here and not returned, matching the spec's
// treatment of download-path accounting failures as non-fatal to the
// response already in flight.
func (p *Pipeline) accountDownload(ctx context.Context, id string, size int64) {
	deleted := false
	err := p.meta.WithinDownloadTransaction(ctx, func(tx metastore.Store) error {
		remaining, err := tx.FetchDownloads(ctx, id)
		if err != nil {
			return err
		}
		if remaining == nil {
			return nil
		}
		switch {
		case *remaining > 1:
			next := *remaining - 1
			return tx.UpdateDownloads(ctx, id, &next)
		case *remaining == 1:
			if err := p.blobs.Delete(id); err != nil {
				return err
			}
			if err := tx.Delete(ctx, id); err != nil {
				return err
			}
			deleted = true
			return nil
		case *remaining == 0:
			logger.ErrorCtx(ctx, "download counter invariant violated: row reached zero outside accounting path", "id", id)
			return nil
		default:
			return nil
		}
	})
	if err != nil {
		logger.ErrorCtx(ctx, "download accounting failed", "id", id, "error", err)
		return
	}
	if deleted && p.metrics != nil {
		p.metrics.FileRemoved(size)
	}
}

// fileInfo is one resolved entry of a download group.
type fileInfo struct {
	id   string
	name string
	size int64
}

// ParseGroup splits a `+`-joined path segment into individual aliases.
func ParseGroup(group string) []string {
	return strings.Split(group, "+")
}

// resolve looks up every alias in aliases, validating format and
// existence. Returns apierr.CodeInvalidAlias or apierr.CodeFileNotFound on
// the first failure.
func (p *Pipeline) resolve(ctx context.Context, aliases []string) ([]fileInfo, error) {
	infos := make([]fileInfo, 0, len(aliases))
	for _, a := range aliases {
		if !alias.IsValid(a) {
			return nil, apierr.New(apierr.CodeInvalidAlias)
		}
		f, err := p.meta.FindByAlias(ctx, a)
		if err != nil {
			if err == metastore.ErrNotFound {
				return nil, apierr.New(apierr.CodeFileNotFound)
			}
			return nil, apierr.Wrap(apierr.CodeDatabase, err)
		}
		name := f.Name
		if name == "" {
			name = f.AliasLong
		}
		infos = append(infos, fileInfo{id: f.ID, name: name, size: f.Size})
	}
	return infos, nil
}

// IsPreviewBot reports whether r's User-Agent matches a known preview bot
// and the caller hasn't opted out via ?force-download=true.
func IsPreviewBot(r *http.Request) bool {
	if r.URL.Query().Get("force-download") == "true" {
		return false
	}
	ua := strings.ToLower(r.Header.Get("User-Agent"))
	if ua == "" {
		return false
	}
	for _, bot := range previewBots {
		if strings.Contains(ua, bot) {
			return true
		}
	}
	return false
}

// Serve resolves group and writes either the preview-bot redirect page, a
// single-file stream, or a ZIP archive of all resolved files.
func (p *Pipeline) Serve(ctx context.Context, w http.ResponseWriter, r *http.Request, group []string) error {
	infos, err := p.resolve(ctx, group)
	if err != nil {
		return err
	}

	if IsPreviewBot(r) {
		writeRedirectPage(w, infos)
		return nil
	}

	if len(infos) == 1 {
		return p.serveSingle(ctx, w, infos[0])
	}
	return p.serveArchive(ctx, w, infos)
}

// serveSingle streams one blob, firing OnDownloaded once at least
// completionThresholdPercent of its declared bytes have been forwarded.
func (p *Pipeline) serveSingle(ctx context.Context, w http.ResponseWriter, info fileInfo) error {
	rc, err := p.blobs.Open(info.id)
	if err != nil {
		return apierr.Wrap(apierr.CodeFileNotFound, err)
	}
	defer rc.Close()

	w.Header().Set("Content-Length", strconv.FormatInt(info.size, 10))
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, sanitizeHeaderValue(info.name)))
	w.WriteHeader(http.StatusOK)

	lw := &latchWriter{
		w:        w,
		total:    info.size,
		id:       info.id,
		ctx:      ctx,
		fire:     func(ctx context.Context, id string) { p.fireDownloaded(ctx, id, "single", info.size) },
		pctFired: completionThresholdPercent,
	}
	_, copyErr := io.Copy(lw, rc)
	lw.maybeFireOnClose()
	return copyErr
}

// fireDownloaded records the download kind/bytes and runs the
// caller-supplied completion callback, so serveSingle and serveArchive can
// call it uniformly.
func (p *Pipeline) fireDownloaded(ctx context.Context, id string, kind string, size int64) {
	if p.metrics != nil {
		p.metrics.DownloadServed(kind, size)
	}
	if p.OnDownloaded != nil {
		p.OnDownloaded(ctx, id, size)
	}
}

// latchWriter forwards writes to w while tracking what fraction of total
// bytes have passed through, firing fire exactly once after the
// completion threshold is first crossed.
type latchWriter struct {
	w        io.Writer
	streamed int64
	total    int64
	fired    bool
	id       string
	ctx      context.Context
	fire     func(ctx context.Context, id string)
	pctFired int
}

func (lw *latchWriter) Write(p []byte) (int, error) {
	n, err := lw.w.Write(p)
	lw.streamed += int64(n)
	if !lw.fired && lw.total > 0 && lw.streamed*100/lw.total >= int64(lw.pctFired) {
		lw.fired = true
		lw.fire(lw.ctx, lw.id)
	}
	return n, err
}

func (lw *latchWriter) maybeFireOnClose() {
	if !lw.fired && lw.total == 0 {
		lw.fired = true
		lw.fire(lw.ctx, lw.id)
	}
}

func sanitizeHeaderValue(s string) string {
	return strings.ReplaceAll(s, `"`, "'")
}

// serveArchive assembles a ZIP of infos on the fly, precomputing
// Content-Length so the header matches the emitted byte count exactly.
func (p *Pipeline) serveArchive(ctx context.Context, w http.ResponseWriter, infos []fileInfo) error {
	names := disambiguateNames(infos)

	entries := make([]zipEntry, 0, len(infos))
	for i, info := range infos {
		crc, err := p.crc32Of(info.id)
		if err != nil {
			return apierr.Wrap(apierr.CodeFileNotFound, err)
		}
		entries = append(entries, zipEntry{info: info, name: names[i], crc32: crc})
	}

	total := precomputeZipSize(entries)
	w.Header().Set("Content-Length", strconv.FormatInt(total, 10))
	w.Header().Set("Content-Disposition", `attachment; filename="archive.zip"`)
	w.Header().Set("Content-Type", "application/zip")
	w.WriteHeader(http.StatusOK)

	zw := zip.NewWriter(w)
	for _, e := range entries {
		if err := p.appendEntry(ctx, zw, e); err != nil {
			logger.ErrorCtx(ctx, "archive entry failed, truncating archive", "id", e.info.id, "error", err)
			break
		}
	}
	return zw.Close()
}

type zipEntry struct {
	info  fileInfo
	name  string
	crc32 uint32
}

func (p *Pipeline) crc32Of(id string) (uint32, error) {
	rc, err := p.blobs.Open(id)
	if err != nil {
		return 0, err
	}
	defer rc.Close()
	h := crc32.NewIEEE()
	if _, err := io.Copy(h, rc); err != nil {
		return 0, err
	}
	return h.Sum32(), nil
}

func (p *Pipeline) appendEntry(ctx context.Context, zw *zip.Writer, e zipEntry) error {
	rc, err := p.blobs.Open(e.info.id)
	if err != nil {
		return err
	}
	defer rc.Close()

	fh := &zip.FileHeader{
		Name:               e.name,
		Method:             zip.Store,
		CRC32:              e.crc32,
		UncompressedSize64: uint64(e.info.size),
		CompressedSize64:   uint64(e.info.size),
	}
	fw, err := zw.CreateRaw(fh)
	if err != nil {
		return err
	}
	if _, err := io.Copy(fw, rc); err != nil {
		return err
	}
	p.fireDownloaded(ctx, e.info.id, "archive", e.info.size)
	return nil
}

// disambiguateNames inserts "-<occurrence>" before the extension for the
// 2nd and later occurrences of a duplicate name within one archive.
func disambiguateNames(infos []fileInfo) []string {
	seen := make(map[string]int, len(infos))
	names := make([]string, len(infos))
	for i, info := range infos {
		name := info.name
		seen[name]++
		if seen[name] == 1 {
			names[i] = name
			continue
		}
		ext := path.Ext(name)
		base := strings.TrimSuffix(name, ext)
		names[i] = fmt.Sprintf("%s-%d%s", base, seen[name], ext)
	}
	return names
}

// precomputeZipSize returns the exact byte count archive/zip emits for
// entries written via CreateRaw with Method Store and no Extra field: a
// local header plus stored data per entry, a matching central directory
// record per entry, and one end-of-central-directory record.
func precomputeZipSize(entries []zipEntry) int64 {
	const localHeaderFixed = 30
	const centralHeaderFixed = 46
	const endOfCentralDirectory = 22

	var total int64
	for _, e := range entries {
		total += localHeaderFixed + int64(len(e.name)) + e.info.size
		total += centralHeaderFixed + int64(len(e.name))
	}
	total += endOfCentralDirectory
	return total
}

const redirectTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
<meta property="og:title" content="%s">
<meta property="og:description" content="%s">
</head>
<body></body>
</html>
`

func writeRedirectPage(w http.ResponseWriter, infos []fileInfo) {
	title := "Download File"
	if len(infos) > 1 {
		title = "Download Archive"
	}

	lines := make([]string, 0, len(infos))
	for _, info := range infos {
		lines = append(lines, fmt.Sprintf("%s (%s)", info.name, humanSize(info.size)))
	}
	description := html.EscapeString(strings.Join(lines, "\n"))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, redirectTemplate, html.EscapeString(title), html.EscapeString(title), description)
}

func humanSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(size)/float64(div), "KMGTPE"[exp])
}
