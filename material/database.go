// Package material reads and maintains the plasma material file.
package material

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/tliron/commonlog"
	"gopkg.in/ini.v1"

	"github.com/LinuxCNC/linuxcnc-sub008/halsync"
)

var log = commonlog.GetLogger("plasmac.material")

var (
	ErrMaterialFile = errors.New("material file error")
	ErrNumberInUse  = errors.New("material number in use")
	// ErrSync wraps a failure to signal the GUI after the material file
	// or the temporary material file was written successfully.
	ErrSync = errors.New("material sync failed")
)

type Option func(*Database)

// WithPrefs names the GUI preferences file holding the default material's
// feed rate and kerf width.
func WithPrefs(path string) Option {
	return func(db *Database) {
		db.prefsPath = path
	}
}

// WithTemporaryFile names the file temporary materials are written to.
func WithTemporaryFile(path string) Option {
	return func(db *Database) {
		db.tempPath = path
	}
}

// WithSync makes rewrites and temporary materials notify the GUI through
// port, waiting up to timeout for it to acknowledge.
func WithSync(port halsync.Port, timeout time.Duration) Option {
	return func(db *Database) {
		db.port = port
		db.timeout = timeout
	}
}

// WithDryRun keeps every change in memory: no file is written and the GUI
// is never signalled.
func WithDryRun() Option {
	return func(db *Database) {
		db.dryRun = true
	}
}

// Database is the set of materials keyed by number.
type Database struct {
	path      string
	prefsPath string
	tempPath  string
	port      halsync.Port
	timeout   time.Duration
	dryRun    bool

	records map[int]Record
}

func NewDatabase(path string, opts ...Option) *Database {
	db := &Database{
		path:    path,
		port:    halsync.Nop{},
		timeout: 3 * time.Second,
		records: map[int]Record{0: {Number: 0, Name: "Default"}},
	}
	for _, opt := range opts {
		opt(db)
	}
	return db
}

// Load is shorthand for NewDatabase followed by Load.
func Load(path string, opts ...Option) (*Database, error) {
	db := NewDatabase(path, opts...)
	if err := db.Load(); err != nil {
		return nil, err
	}
	return db, nil
}

func (db *Database) Path() string {
	return db.path
}

// Load replaces the in-memory records with the contents of the prefs and
// material files. Temporary materials already added are kept.
func (db *Database) Load() error {
	records := map[int]Record{0: db.loadDefault()}

	cfg, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment: true,
	}, db.path)
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", ErrMaterialFile, db.path, err)
	}

	for _, section := range cfg.Sections() {
		number, ok, err := parseSectionName(section.Name())
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrMaterialFile, db.path, err)
		}
		if !ok {
			continue
		}
		rec := Record{Number: number}
		for _, key := range section.Keys() {
			if err := rec.setField(strings.ToUpper(key.Name()), key.Value()); err != nil {
				return fmt.Errorf("%w: %s [%s]: %v", ErrMaterialFile, db.path, section.Name(), err)
			}
		}
		records[number] = rec
	}

	for number, rec := range db.records {
		if rec.IsTemporary() {
			records[number] = rec
		}
	}
	db.records = records
	log.Debugf("loaded %d materials from %s", len(records), db.path)
	return nil
}

func (db *Database) loadDefault() Record {
	rec := Record{Number: 0, Name: "Default"}
	if db.prefsPath == "" {
		return rec
	}
	cfg, err := ini.LoadSources(ini.LoadOptions{
		IgnoreInlineComment: true,
	}, db.prefsPath)
	if err != nil {
		log.Warningf("read prefs %s: %s", db.prefsPath, err)
		return rec
	}
	for _, section := range cfg.Sections() {
		for _, key := range section.Keys() {
			switch strings.ToLower(key.Name()) {
			case "cut feed rate":
				rec.CutFeedRate = key.MustFloat64(0)
			case "kerf width":
				rec.KerfWidth = key.MustFloat64(0)
			}
		}
	}
	return rec
}

func (db *Database) Lookup(number int) (Record, bool) {
	rec, ok := db.records[number]
	return rec, ok
}

// Records returns every material in number order.
func (db *Database) Records() []Record {
	out := make([]Record, 0, len(db.records))
	for _, rec := range db.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

// NextTemporary returns the lowest unused temporary material number.
func (db *Database) NextTemporary() int {
	n := TemporaryBase
	for {
		if _, ok := db.records[n]; !ok {
			return n
		}
		n++
	}
}

func (db *Database) Add(ctx context.Context, rec Record) error {
	return db.Rewrite(ctx, rec, false)
}

func (db *Database) Edit(ctx context.Context, rec Record) error {
	return db.Rewrite(ctx, rec, true)
}

// Rewrite stores rec in the material file, replacing an existing section
// when replaceExisting is set. The original file is kept as <path>.bkp and
// replaced atomically. A returned error wrapping ErrSync means the file was
// written but the GUI did not confirm the reload.
func (db *Database) Rewrite(ctx context.Context, rec Record, replaceExisting bool) error {
	if _, exists := db.records[rec.Number]; exists && !replaceExisting {
		return fmt.Errorf("material %d: %w", rec.Number, ErrNumberInUse)
	}

	if db.dryRun {
		db.records[rec.Number] = rec
		return nil
	}

	if err := rewriteFile(db.path, rec); err != nil {
		return fmt.Errorf("%w: %v", ErrMaterialFile, err)
	}
	if err := db.Load(); err != nil {
		return err
	}
	log.Infof("material %d (%s) written to %s", rec.Number, rec.Name, db.path)

	if err := halsync.RequestReload(ctx, db.port, db.timeout); err != nil {
		return fmt.Errorf("reload materials: %w: %w", ErrSync, err)
	}
	return nil
}

// AddTemporary registers a material that only lives for this program.
func (db *Database) AddTemporary(ctx context.Context, rec Record) error {
	if _, exists := db.records[rec.Number]; exists {
		return fmt.Errorf("material %d: %w", rec.Number, ErrNumberInUse)
	}
	db.records[rec.Number] = rec

	if db.dryRun || db.tempPath == "" {
		return nil
	}
	if err := writeTemporary(db.tempPath, rec); err != nil {
		return fmt.Errorf("%w: %v", ErrMaterialFile, err)
	}
	if err := halsync.RequestTemporary(ctx, db.port, rec.Number, db.timeout); err != nil {
		return fmt.Errorf("load temporary material: %w: %w", ErrSync, err)
	}
	return nil
}
