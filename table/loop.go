// Package table runs one goroutine per poker table. Every request against a
// table goes through its loop, and the loop also drives what happens on a
// timer: all-in run-outs, the next deal and bot turns.
package table

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/decred/slog"
	"github.com/google/uuid"
	"github.com/lazharichir/holdem/bot"
	"github.com/lazharichir/holdem/domain"
	"github.com/lazharichir/holdem/domain/events"
	"github.com/lazharichir/holdem/ledger"
)

// ErrStopped is returned for requests made after the loop stopped.
var ErrStopped = errors.New("table loop stopped")

const ledgerTimeout = 3 * time.Second

// Config wires a loop to the rest of the server. Every field is optional.
type Config struct {
	NextHandDelay time.Duration
	RunoutDelay   time.Duration
	BotDelay      time.Duration

	Log        slog.Logger
	Ledger     ledger.Store
	EventStore events.EventStore
	Policy     bot.Policy

	// OnEvent receives every table event, private ones included.
	OnEvent func(tableID string, event events.Event)
	// OnSnapshot receives the public table state after every change.
	OnSnapshot func(snap domain.Snapshot)
}

// Summary is the lobby listing entry of a table.
type Summary struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Players     int               `json:"players"`
	MaxPlayers  int               `json:"maxPlayers"`
	HasPassword bool              `json:"hasPassword"`
	Phase       domain.TablePhase `json:"phase"`
	SmallBlind  int               `json:"smallBlind"`
	BigBlind    int               `json:"bigBlind"`
	HandNumber  int               `json:"handNumber"`
}

type taskKind string

const (
	taskRunout   taskKind = "runout"
	taskNextHand taskKind = "next-hand"
	taskBotTurn  taskKind = "bot-turn"
)

// task is a pending timer. key names the table state it was scheduled for
// and gen identifies this particular arming of the timer.
type task struct {
	key   string
	gen   uint64
	timer *time.Timer
}

type firing struct {
	kind taskKind
	gen  uint64
}

type command struct {
	fn       func(t *domain.Table) error
	mutating bool
	reply    chan error
}

// Loop owns a table. Only the loop goroutine touches the table.
type Loop struct {
	table *domain.Table
	cfg   Config
	log   slog.Logger

	commands chan command
	fired    chan firing
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup

	// owned by the loop goroutine
	tasks   map[taskKind]*task
	gen     uint64
	pending []events.Event
	bots    int
}

// NewLoop wraps table in a loop. Call Start before sending requests.
func NewLoop(table *domain.Table, cfg Config) *Loop {
	ctx, cancel := context.WithCancel(context.Background())
	if cfg.Log == nil {
		cfg.Log = slog.Disabled
	}
	if cfg.Ledger == nil {
		cfg.Ledger = ledger.NopStore{}
	}

	l := &Loop{
		table:    table,
		cfg:      cfg,
		log:      cfg.Log,
		commands: make(chan command, 64),
		fired:    make(chan firing, 8),
		ctx:      ctx,
		cancel:   cancel,
		tasks:    make(map[taskKind]*task),
	}
	table.RegisterEventHandler(func(e events.Event) {
		l.pending = append(l.pending, e)
	})
	return l
}

// ID is the id of the table, safe to call from any goroutine.
func (l *Loop) ID() string {
	return l.table.ID
}

func (l *Loop) Start() {
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		l.run()
	}()
}

// Stop ends the loop and cancels every scheduled task. Timers that already
// fired are dropped.
func (l *Loop) Stop() {
	l.cancel()
	l.wg.Wait()
	for kind := range l.tasks {
		l.cancelTask(kind)
	}
}

func (l *Loop) run() {
	for {
		select {
		case <-l.ctx.Done():
			return

		case cmd := <-l.commands:
			err := cmd.fn(l.table)
			if (cmd.mutating && err == nil) || len(l.pending) > 0 {
				l.afterChange()
			}
			cmd.reply <- err

		case f := <-l.fired:
			l.runTask(f)
		}
	}
}

// do runs fn on the loop goroutine and waits for its result.
func (l *Loop) do(mutating bool, fn func(t *domain.Table) error) error {
	reply := make(chan error, 1)
	select {
	case l.commands <- command{fn: fn, mutating: mutating, reply: reply}:
	case <-l.ctx.Done():
		return ErrStopped
	}

	select {
	case err := <-reply:
		return err
	case <-l.ctx.Done():
		return ErrStopped
	}
}

// Join seats a player after checking the table password.
func (l *Loop) Join(playerID, name string, buyIn int, password string, opts ...domain.SeatOption) (*domain.Seat, error) {
	var seat *domain.Seat
	err := l.do(true, func(t *domain.Table) error {
		if err := t.CheckPassword(password); err != nil {
			return err
		}
		s, err := t.Sit(playerID, name, buyIn, opts...)
		seat = s
		return err
	})
	return seat, err
}

// Leave removes a player. empty reports whether nobody is left seated.
func (l *Loop) Leave(playerID string) (empty bool, err error) {
	err = l.do(true, func(t *domain.Table) error {
		if _, err := t.RemoveOccupant(playerID); err != nil {
			return err
		}
		empty = t.IsEmpty()
		return nil
	})
	return empty, err
}

func (l *Loop) SetReady(playerID string, ready bool) error {
	return l.do(true, func(t *domain.Table) error {
		return t.SetReady(playerID, ready)
	})
}

// StartHand is the host's request to deal from the lobby.
func (l *Loop) StartHand(requesterID string) error {
	return l.do(true, func(t *domain.Table) error {
		return t.Start(requesterID)
	})
}

func (l *Loop) Act(playerID string, action domain.ActionType, amount int) (domain.ActionResult, error) {
	var result domain.ActionResult
	err := l.do(true, func(t *domain.Table) error {
		r, err := t.ApplyAction(playerID, action, amount)
		result = r
		return err
	})
	return result, err
}

// AddBot seats a computer player. Only the host may add bots.
func (l *Loop) AddBot(requesterID string) (*domain.Seat, error) {
	var seat *domain.Seat
	err := l.do(true, func(t *domain.Table) error {
		if requesterID != t.HostID {
			return &domain.Rejection{Kind: domain.KindPrecondition, Code: domain.ErrNotHost}
		}
		l.bots++
		s := domain.NewSeat("bot-"+uuid.NewString()[:8], fmt.Sprintf("Bot %d", l.bots), t.Rules.BuyIn)
		s.IsBot = true
		if err := t.AddOccupant(s); err != nil {
			return err
		}
		seat = s
		return nil
	})
	return seat, err
}

func (l *Loop) Snapshot() (domain.Snapshot, error) {
	var snap domain.Snapshot
	err := l.do(false, func(t *domain.Table) error {
		snap = t.Snapshot()
		return nil
	})
	return snap, err
}

// PlayerView returns the table as seen by one player.
func (l *Loop) PlayerView(playerID string) (domain.PlayerView, error) {
	var view domain.PlayerView
	err := l.do(false, func(t *domain.Table) error {
		view = t.PlayerView(playerID)
		return nil
	})
	return view, err
}

func (l *Loop) Summary() (Summary, error) {
	var s Summary
	err := l.do(false, func(t *domain.Table) error {
		s = Summary{
			ID:          t.ID,
			Name:        t.Name,
			Players:     t.OccupantCount(),
			MaxPlayers:  t.Rules.MaxPlayers,
			HasPassword: t.HasPassword(),
			Phase:       t.Phase,
			SmallBlind:  t.Rules.SmallBlind,
			BigBlind:    t.Rules.BigBlind,
			HandNumber:  t.HandCount,
		}
		return nil
	})
	return s, err
}

// afterChange publishes what the last change produced and re-arms the
// timers for the new state.
func (l *Loop) afterChange() {
	l.flush()
	l.reschedule()

	if l.log.Level() <= slog.LevelDebug {
		l.log.Debugf("Table %s state:\n%s", l.table.ID, l.table.PrintState())
	}
	if l.cfg.OnSnapshot != nil {
		l.cfg.OnSnapshot(l.table.Snapshot())
	}
}

func (l *Loop) flush() {
	evs := l.pending
	l.pending = nil

	for _, e := range evs {
		if l.cfg.EventStore != nil && !events.IsPrivate(e) {
			if err := l.cfg.EventStore.Append(e); err != nil {
				l.log.Errorf("Table %s: store %s: %v", l.table.ID, e.Name(), err)
			}
		}
		if settled, ok := e.(events.HandSettled); ok {
			l.record(settled)
		}
		if l.cfg.OnEvent != nil {
			l.cfg.OnEvent(l.table.ID, e)
		}
	}
}

func (l *Loop) record(settled events.HandSettled) {
	s := l.table.LastSettlement
	if s == nil || s.HandID != settled.HandID {
		return
	}
	l.log.Infof("Table %s: hand #%d settled, pot %d to %v", l.table.ID, s.HandNumber, s.Pot, s.WinnerIDs())

	ctx, cancel := context.WithTimeout(l.ctx, ledgerTimeout)
	defer cancel()
	if err := l.cfg.Ledger.RecordHand(ctx, ledger.NewHandRecord(l.table.ID, s)); err != nil {
		l.log.Errorf("Table %s: record hand %s: %v", l.table.ID, s.HandID, err)
	}
}

func (l *Loop) reschedule() {
	t := l.table

	if t.RunoutPending() {
		key := fmt.Sprintf("%s/%s", t.Hand.ID, t.Hand.Street)
		l.schedule(taskRunout, key, l.cfg.RunoutDelay)
	} else {
		l.cancelTask(taskRunout)
	}

	if t.Phase == domain.PhaseShowdown && t.Hand != nil {
		l.schedule(taskNextHand, t.Hand.ID, l.cfg.NextHandDelay)
	} else {
		l.cancelTask(taskNextHand)
	}

	if seat := t.GetSeat(t.TurnSeatID()); seat != nil && seat.IsBot && l.cfg.Policy != nil {
		key := fmt.Sprintf("%s/%s/%d/%s", t.Hand.ID, t.Hand.Street, t.Hand.Pot, seat.ID)
		l.schedule(taskBotTurn, key, l.cfg.BotDelay)
	} else {
		l.cancelTask(taskBotTurn)
	}
}

// schedule arms a timer unless one is already armed for the same state.
func (l *Loop) schedule(kind taskKind, key string, delay time.Duration) {
	if existing, ok := l.tasks[kind]; ok {
		if existing.key == key {
			return
		}
		existing.timer.Stop()
	}

	l.gen++
	gen := l.gen
	timer := time.AfterFunc(delay, func() {
		select {
		case l.fired <- firing{kind: kind, gen: gen}:
		case <-l.ctx.Done():
		}
	})
	l.tasks[kind] = &task{key: key, gen: gen, timer: timer}
}

func (l *Loop) cancelTask(kind taskKind) {
	if existing, ok := l.tasks[kind]; ok {
		existing.timer.Stop()
		delete(l.tasks, kind)
	}
}

func (l *Loop) runTask(f firing) {
	current, ok := l.tasks[f.kind]
	if !ok || current.gen != f.gen {
		l.log.Tracef("Table %s: dropping stale %s task", l.table.ID, f.kind)
		return
	}
	delete(l.tasks, f.kind)

	switch f.kind {
	case taskRunout:
		if err := l.table.AdvanceRunout(); err != nil {
			l.log.Warnf("Table %s: run-out: %v", l.table.ID, err)
		}
	case taskNextHand:
		l.nextHand()
	case taskBotTurn:
		l.botTurn()
	}
	l.afterChange()
}

func (l *Loop) nextHand() {
	err := l.table.NextHand()
	if err == nil {
		return
	}

	if errors.Is(err, domain.ErrTooFewPlayers) {
		l.log.Infof("Table %s: %v, back to the lobby", l.table.ID, err)
	} else {
		l.log.Errorf("Table %s: next hand: %v", l.table.ID, err)
	}
	if err := l.table.ResetToLobby(); err != nil {
		l.log.Errorf("Table %s: reset to lobby: %v", l.table.ID, err)
	}
}

func (l *Loop) botTurn() {
	id := l.table.TurnSeatID()
	decision := l.cfg.Policy.Decide(l.table.PlayerView(id))
	l.log.Debugf("Table %s: bot %s %s %d (%s)", l.table.ID, id, decision.Action, decision.Amount, decision.Reasoning)

	_, err := l.table.ApplyAction(id, decision.Action, decision.Amount)
	if err == nil {
		return
	}

	l.log.Warnf("Table %s: bot %s: %v, folding", l.table.ID, id, err)
	if _, err := l.table.ApplyAction(id, domain.ActionFold, 0); err != nil {
		l.log.Errorf("Table %s: bot %s cannot fold: %v", l.table.ID, id, err)
	}
}
