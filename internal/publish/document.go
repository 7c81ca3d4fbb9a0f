package publish

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"

	"github.com/agusespa/diffscribe/internal/logging"
	"github.com/agusespa/diffscribe/internal/report"
	"github.com/agusespa/diffscribe/internal/types"
)

const (
	LedgerFile = ".diffscribe.db"
	IndexFile  = "index.mdx"

	ledgerBucket = "documents"
	documentExt  = ".mdx"
)

// LedgerEntry records where a titled document lives and how often it was written
type LedgerEntry struct {
	File    string    `json:"file"`
	Version int       `json:"version"`
	Updated time.Time `json:"updated"`
}

// DocumentPublisher writes pages as MDX files into a directory and keeps an index
// page listing them newest first. Titles are tracked in a bbolt ledger so that
// publishing the same title again overwrites the same file.
type DocumentPublisher struct {
	dir    string
	now    func() time.Time
	logger logrus.FieldLogger
}

func NewDocumentPublisher(dir string, logger logrus.FieldLogger) *DocumentPublisher {
	if logger == nil {
		logger = logging.Discard()
	}
	return &DocumentPublisher{dir: dir, now: time.Now, logger: logger}
}

// Publish returns the path of the written document. The document, the index and
// the ledger entry are written together: when any of them fails none is kept.
func (p *DocumentPublisher) Publish(ctx context.Context, page report.Page) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", types.ErrPublishFailure, err)
	}
	if err := os.MkdirAll(p.dir, 0755); err != nil {
		return "", fmt.Errorf("%w: failed to create output directory: %w", types.ErrPublishFailure, err)
	}

	db, err := bolt.Open(filepath.Join(p.dir, LedgerFile), 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return "", fmt.Errorf("%w: failed to open document ledger: %w", types.ErrPublishFailure, err)
	}
	defer db.Close()

	var entry LedgerEntry
	err = db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(ledgerBucket))
		if err != nil {
			return err
		}

		if data := bucket.Get([]byte(page.Title)); data != nil {
			if err := json.Unmarshal(data, &entry); err != nil {
				return fmt.Errorf("corrupt ledger entry for %q: %w", page.Title, err)
			}
		} else {
			entry.File = p.documentName(page.Title)
		}
		entry.Version++
		entry.Updated = p.now().UTC()

		data, err := json.Marshal(entry)
		if err != nil {
			return err
		}
		if err := bucket.Put([]byte(page.Title), data); err != nil {
			return err
		}

		entries, err := ledgerEntries(bucket)
		if err != nil {
			return err
		}
		index, err := p.renderIndex(entries, entry.File)
		if err != nil {
			return fmt.Errorf("failed to update index: %w", err)
		}

		// returning an error rolls the ledger back
		return p.writeFiles(entry.File, page.Body, index)
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", types.ErrPublishFailure, err)
	}

	path := filepath.Join(p.dir, entry.File)
	p.logger.WithFields(logrus.Fields{
		"title":   page.Title,
		"path":    path,
		"version": entry.Version,
	}).Info("Wrote documentation file")

	return path, nil
}

// documentName names the file of a new title. Titles ending in a date use that
// date, so the file always matches the day the page was generated for.
func (p *DocumentPublisher) documentName(title string) string {
	day := p.now()
	if i := strings.LastIndex(title, " - "); i >= 0 {
		if parsed, err := time.Parse(time.DateOnly, strings.TrimSpace(title[i+3:])); err == nil {
			day = parsed
		}
	}
	return day.Format("20060102") + "-code-changes" + documentExt
}

// writeFiles stages the document and the index in temporary files and renames
// them into place. A failed index rename restores the previous document.
func (p *DocumentPublisher) writeFiles(file, body, index string) error {
	docTmp, err := p.stage(body)
	if err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}
	defer os.Remove(docTmp)

	indexTmp, err := p.stage(index)
	if err != nil {
		return fmt.Errorf("failed to update index: %w", err)
	}
	defer os.Remove(indexTmp)

	docPath := filepath.Join(p.dir, file)
	previous, readErr := os.ReadFile(docPath)
	existed := readErr == nil

	if err := os.Rename(docTmp, docPath); err != nil {
		return fmt.Errorf("failed to write document: %w", err)
	}
	if err := os.Rename(indexTmp, filepath.Join(p.dir, IndexFile)); err != nil {
		if existed {
			_ = os.WriteFile(docPath, previous, 0644)
		} else {
			_ = os.Remove(docPath)
		}
		return fmt.Errorf("failed to update index: %w", err)
	}
	return nil
}

func (p *DocumentPublisher) stage(content string) (string, error) {
	f, err := os.CreateTemp(p.dir, ".diffscribe-*.tmp")
	if err != nil {
		return "", err
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	if err := os.Chmod(f.Name(), 0644); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

// Entries returns the ledger keyed by title
func (p *DocumentPublisher) Entries() (map[string]LedgerEntry, error) {
	db, err := bolt.Open(filepath.Join(p.dir, LedgerFile), 0600, &bolt.Options{Timeout: 5 * time.Second, ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open document ledger: %w", err)
	}
	defer db.Close()
	return readLedger(db)
}

func readLedger(db *bolt.DB) (map[string]LedgerEntry, error) {
	entries := make(map[string]LedgerEntry)
	err := db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(ledgerBucket))
		if bucket == nil {
			return nil
		}
		var err error
		entries, err = ledgerEntries(bucket)
		return err
	})
	return entries, err
}

func ledgerEntries(bucket *bolt.Bucket) (map[string]LedgerEntry, error) {
	entries := make(map[string]LedgerEntry)
	err := bucket.ForEach(func(k, v []byte) error {
		var entry LedgerEntry
		if err := json.Unmarshal(v, &entry); err != nil {
			return fmt.Errorf("corrupt ledger entry for %q: %w", k, err)
		}
		entries[string(k)] = entry
		return nil
	})
	return entries, err
}

// renderIndex lists every document in the directory plus pending, newest first.
// Documents known to the ledger are linked by title.
func (p *DocumentPublisher) renderIndex(entries map[string]LedgerEntry, pending string) (string, error) {
	titles := make(map[string]string, len(entries))
	for title, entry := range entries {
		titles[entry.File] = title
	}

	dirEntries, err := os.ReadDir(p.dir)
	if err != nil {
		return "", err
	}
	files := []string{pending}
	for _, e := range dirEntries {
		name := e.Name()
		if e.IsDir() || name == IndexFile || name == pending || filepath.Ext(name) != documentExt {
			continue
		}
		files = append(files, name)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(files)))

	var b strings.Builder
	b.WriteString("# Code Changes Documentation\n\n")
	b.WriteString("This section contains automatically generated documentation for code changes, with a focus on business logic modifications.\n\n")
	b.WriteString("## Recent Changes\n\n")
	for _, file := range files {
		text, ok := titles[file]
		if !ok {
			text = strings.ReplaceAll(strings.TrimSuffix(file, documentExt), "-", " ")
		}
		fmt.Fprintf(&b, "- [%s](./%s)\n", text, file)
	}
	return b.String(), nil
}
