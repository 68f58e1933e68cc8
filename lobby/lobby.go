// Package lobby is the registry of open tables.
package lobby

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/decred/slog"
	"github.com/lazharichir/holdem/domain"
	"github.com/lazharichir/holdem/table"
)

// Config holds what every new table is created with.
type Config struct {
	Rules domain.TableRules
	// Loop is copied into every table loop.
	Loop table.Config
	Log  slog.Logger
	// EmptyTableTTL is how long a table nobody sits at stays open. Zero
	// keeps such tables forever.
	EmptyTableTTL time.Duration
}

// CreateOptions customise one table. Zero values fall back to the lobby
// defaults.
type CreateOptions struct {
	Name       string
	Password   string
	SmallBlind int
	BigBlind   int
	BuyIn      int
	MaxPlayers int

	HostAvatar    string
	HostCharacter string
}

// Lobby owns the table loops.
type Lobby struct {
	cfg Config
	log slog.Logger

	mu     sync.RWMutex
	tables map[string]*table.Loop
	opened map[string]time.Time
}

func New(cfg Config) *Lobby {
	if cfg.Log == nil {
		cfg.Log = slog.Disabled
	}
	if cfg.Rules == (domain.TableRules{}) {
		cfg.Rules = domain.DefaultRules()
	}
	return &Lobby{
		cfg:    cfg,
		log:    cfg.Log,
		tables: make(map[string]*table.Loop),
		opened: make(map[string]time.Time),
	}
}

func (l *Lobby) rules(opts CreateOptions) domain.TableRules {
	rules := l.cfg.Rules
	if opts.SmallBlind > 0 {
		rules.SmallBlind = opts.SmallBlind
	}
	if opts.BigBlind > 0 {
		rules.BigBlind = opts.BigBlind
	}
	if opts.BuyIn > 0 {
		rules.BuyIn = opts.BuyIn
	}
	if opts.MaxPlayers > 0 {
		rules.MaxPlayers = opts.MaxPlayers
	}
	return rules
}

// CreateTable opens a table and, when hostID is set, seats the host in it.
func (l *Lobby) CreateTable(hostID, hostName string, opts CreateOptions) (string, error) {
	name := opts.Name
	if name == "" {
		name = fmt.Sprintf("%s's table", hostName)
	}

	t, err := domain.NewTable(name, l.rules(opts), domain.WithPassword(opts.Password))
	if err != nil {
		return "", fmt.Errorf("create table: %w", err)
	}

	loop := table.NewLoop(t, l.cfg.Loop)
	loop.Start()

	if hostID != "" {
		if _, err := loop.Join(hostID, hostName, 0, opts.Password,
			domain.WithAvatar(opts.HostAvatar), domain.WithCharacter(opts.HostCharacter)); err != nil {
			loop.Stop()
			return "", err
		}
	}

	l.mu.Lock()
	l.tables[t.ID] = loop
	l.opened[t.ID] = time.Now()
	l.mu.Unlock()

	l.log.Infof("Table %s (%q) created by %s", t.ID, name, hostID)
	return t.ID, nil
}

func (l *Lobby) Get(tableID string) (*table.Loop, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	loop, ok := l.tables[tableID]
	if !ok {
		return nil, &domain.Rejection{Kind: domain.KindPrecondition, Code: domain.ErrTableNotFound, Reason: tableID}
	}
	return loop, nil
}

// Join seats a player at a table. buyIn <= 0 takes the table buy-in.
func (l *Lobby) Join(tableID, playerID, name string, buyIn int, password string, opts ...domain.SeatOption) (*domain.Seat, error) {
	loop, err := l.Get(tableID)
	if err != nil {
		return nil, err
	}
	seat, err := loop.Join(playerID, name, buyIn, password, opts...)
	if err != nil {
		return nil, err
	}
	l.log.Debugf("%s joined table %s", playerID, tableID)
	return seat, nil
}

// Leave takes a player off a table and closes the table once empty.
func (l *Lobby) Leave(tableID, playerID string) error {
	loop, err := l.Get(tableID)
	if err != nil {
		return err
	}
	empty, err := loop.Leave(playerID)
	if err != nil {
		return err
	}
	if empty {
		return l.Delete(tableID)
	}
	return nil
}

// Delete closes a table and cancels everything scheduled on it.
func (l *Lobby) Delete(tableID string) error {
	l.mu.Lock()
	loop, ok := l.tables[tableID]
	delete(l.tables, tableID)
	delete(l.opened, tableID)
	l.mu.Unlock()

	if !ok {
		return &domain.Rejection{Kind: domain.KindPrecondition, Code: domain.ErrTableNotFound, Reason: tableID}
	}

	loop.Stop()
	if l.cfg.Loop.EventStore != nil {
		l.cfg.Loop.EventStore.Clear(tableID)
	}
	l.log.Infof("Table %s closed", tableID)
	return nil
}

// List returns the public listing of every table, by name.
func (l *Lobby) List() []table.Summary {
	l.mu.RLock()
	loops := make([]*table.Loop, 0, len(l.tables))
	for _, loop := range l.tables {
		loops = append(loops, loop)
	}
	l.mu.RUnlock()

	out := make([]table.Summary, 0, len(loops))
	for _, loop := range loops {
		s, err := loop.Summary()
		if err != nil {
			// deleted while listing
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Close stops every table.
func (l *Lobby) Close() {
	l.mu.Lock()
	loops := l.tables
	l.tables = make(map[string]*table.Loop)
	l.opened = make(map[string]time.Time)
	l.mu.Unlock()

	for _, loop := range loops {
		loop.Stop()
	}
}

// ReapEmpty closes the tables that were opened more than EmptyTableTTL
// before now and still have nobody seated. It returns how many it closed.
func (l *Lobby) ReapEmpty(now time.Time) int {
	if l.cfg.EmptyTableTTL <= 0 {
		return 0
	}

	l.mu.RLock()
	var stale []string
	for id, at := range l.opened {
		if now.Sub(at) >= l.cfg.EmptyTableTTL {
			stale = append(stale, id)
		}
	}
	l.mu.RUnlock()

	closed := 0
	for _, id := range stale {
		loop, err := l.Get(id)
		if err != nil {
			continue
		}
		summary, err := loop.Summary()
		if err != nil || summary.Players > 0 {
			continue
		}
		if err := l.Delete(id); err == nil {
			l.log.Infof("Table %s closed after %s without players", id, l.cfg.EmptyTableTTL)
			closed++
		}
	}
	return closed
}

// Run reaps empty tables every interval until ctx is done.
func (l *Lobby) Run(ctx context.Context, interval time.Duration) {
	if l.cfg.EmptyTableTTL <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			l.ReapEmpty(now)
		}
	}
}
