// Package dbtest opens a gorm handle on the postgres dialect that renders
// SQL without a database, for asserting the statements repositories build.
package dbtest

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var errNoDatabase = errors.New("dbtest: no database behind a dry run")

// Recorder captures every statement gorm renders, with bound values inlined.
type Recorder struct {
	mu         sync.Mutex
	statements []string
	begins     int
	commits    int
	rollbacks  int
}

// Open returns a dry-run *gorm.DB and the Recorder attached to it.
func Open(t *testing.T) (*gorm.DB, *Recorder) {
	t.Helper()

	rec := &Recorder{}
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: &connPool{rec: rec}}), &gorm.Config{
		DryRun:                 true,
		DisableAutomaticPing:   true,
		SkipDefaultTransaction: true,
		TranslateError:         true,
		Logger:                 rec,
	})
	if err != nil {
		t.Fatalf("open dry-run db: %v", err)
	}
	return db, rec
}

// Statements returns the SQL rendered so far.
func (r *Recorder) Statements() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.statements...)
}

// Last returns the most recent statement, or "" when none was rendered.
func (r *Recorder) Last() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.statements) == 0 {
		return ""
	}
	return r.statements[len(r.statements)-1]
}

// Reset forgets the recorded statements and transaction counts.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statements = nil
	r.begins, r.commits, r.rollbacks = 0, 0, 0
}

// Tx reports how many transactions were begun, committed and rolled back.
func (r *Recorder) Tx() (begins, commits, rollbacks int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.begins, r.commits, r.rollbacks
}

// AssertContains fails t unless sql holds every fragment.
func AssertContains(t *testing.T, sql string, fragments ...string) {
	t.Helper()
	for _, f := range fragments {
		if !strings.Contains(sql, f) {
			t.Errorf("sql %q\n\tdoes not contain %q", sql, f)
		}
	}
}

func (r *Recorder) LogMode(gormlogger.LogLevel) gormlogger.Interface { return r }

func (r *Recorder) Info(context.Context, string, ...interface{})  {}
func (r *Recorder) Warn(context.Context, string, ...interface{})  {}
func (r *Recorder) Error(context.Context, string, ...interface{}) {}

func (r *Recorder) Trace(_ context.Context, _ time.Time, fc func() (string, int64), _ error) {
	sql, _ := fc()
	if sql == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.statements = append(r.statements, sql)
}

// connPool satisfies gorm's pool interfaces. Dry runs never execute, so only
// the transaction bookkeeping does anything.
type connPool struct {
	rec *Recorder
}

func (p *connPool) PrepareContext(context.Context, string) (*sql.Stmt, error) {
	return nil, errNoDatabase
}

func (p *connPool) ExecContext(context.Context, string, ...interface{}) (sql.Result, error) {
	return nil, errNoDatabase
}

func (p *connPool) QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error) {
	return nil, errNoDatabase
}

func (p *connPool) QueryRowContext(context.Context, string, ...interface{}) *sql.Row {
	return nil
}

func (p *connPool) BeginTx(context.Context, *sql.TxOptions) (gorm.ConnPool, error) {
	p.rec.mu.Lock()
	p.rec.begins++
	p.rec.mu.Unlock()
	return &txPool{connPool: p}, nil
}

type txPool struct {
	*connPool
}

func (t *txPool) Commit() error {
	t.rec.mu.Lock()
	defer t.rec.mu.Unlock()
	t.rec.commits++
	return nil
}

func (t *txPool) Rollback() error {
	t.rec.mu.Lock()
	defer t.rec.mu.Unlock()
	t.rec.rollbacks++
	return nil
}
