package lineup

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/derbybench/lineup-server-go/internal/history"
	"github.com/derbybench/lineup-server-go/internal/metrics"
	"github.com/derbybench/lineup-server-go/internal/roster"
	"github.com/derbybench/lineup-server-go/internal/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Operation names used in logs, metrics and outcomes
const (
	OpAddPlayer          = "add_player"
	OpDeletePlayer       = "delete_player"
	OpAssign             = "assign"
	OpDropToPool         = "drop_to_pool"
	OpClearAll           = "clear_all"
	OpSetStatus          = "set_status"
	OpFillLine           = "fill_line"
	OpRotate             = "rotate"
	OpRotateWithAutoFill = "rotate_autofill"
	OpForceRotate        = "rotate_force"
	OpUndo               = "undo"
	OpRedo               = "redo"
	OpImport             = "import"
)

// Store is the roster persistence the engine needs
type Store interface {
	LoadPlayers(ctx context.Context) (storage.LoadResult, error)
	SavePlayers(ctx context.Context, players []roster.Player) error
}

// ChangeHandler receives the new view after every committed change
type ChangeHandler func(View)

// MoveView is a box change reported by roster index
type MoveView struct {
	Player int    `json:"player"`
	Name   string `json:"name"`
	From   Box    `json:"from"`
	To     Box    `json:"to"`
}

// Outcome is what a mutating operation reports back to the UI
type Outcome struct {
	Op      string `json:"op"`
	Changed bool   `json:"changed"`
	// Notice is a short message for the user; empty when there is nothing
	// to say
	Notice string     `json:"notice,omitempty"`
	Moves  []MoveView `json:"moves,omitempty"`
	// Player is the roster index the operation targeted, -1 if none
	Player int `json:"player"`
	// Rotated reports whether a rotation actually happened
	Rotated bool `json:"rotated,omitempty"`
	// Complete reports whether the current line is playable afterwards
	Complete bool `json:"complete"`
	// Benched lists resting players a line rotation pushed back to the pool
	Benched []int `json:"benched,omitempty"`
	// Reassigned is the box a player recovering from injury landed in
	Reassigned  *Box     `json:"reassigned,omitempty"`
	CurrentLine LineInfo `json:"currentLine"`
	SaveError   string   `json:"saveError,omitempty"`
}

// Option configures an Engine
type Option func(*Engine)

// WithStore persists the roster after every commit
func WithStore(store Store) Option {
	return func(e *Engine) { e.store = store }
}

// WithHistoryDepth bounds the undo history
func WithHistoryDepth(depth int) Option {
	return func(e *Engine) { e.history = history.New[*State](depth) }
}

// WithRecorder publishes engine metrics
func WithRecorder(rec *metrics.Recorder) Option {
	return func(e *Engine) { e.metrics = rec }
}

// Engine owns the live lineup state. Every operation runs under one mutex
// and, when it changes anything, records a snapshot, persists the roster and
// notifies the change handler.
type Engine struct {
	logger    *zap.Logger
	sessionID string

	mu       sync.Mutex
	state    *State
	history  *history.Manager[*State]
	store    Store
	metrics  *metrics.Recorder
	onChange ChangeHandler
}

// NewEngine creates an engine with an empty roster
func NewEngine(logger *zap.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	sessionID := uuid.NewString()
	e := &Engine{
		logger:    logger.With(zap.String("session_id", sessionID)),
		sessionID: sessionID,
		state:     NewState(nil),
		history:   history.New[*State](history.DefaultDepth),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.history.Commit(e.state.Clone())
	return e
}

// SessionID identifies this engine instance in logs
func (e *Engine) SessionID() string {
	return e.sessionID
}

// SetChangeHandler registers the function called after each change
func (e *Engine) SetChangeHandler(handler ChangeHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onChange = handler
}

// Load reads the roster from the store and makes it the first history
// entry. On a read error the engine falls back to an empty roster and
// returns the error for the caller to report.
func (e *Engine) Load(ctx context.Context) error {
	e.mu.Lock()

	var loadErr error
	loaded := storage.LoadResult{}
	if e.store != nil {
		loaded, loadErr = e.store.LoadPlayers(ctx)
		if loadErr != nil {
			e.logger.Warn("failed to load roster, starting empty", zap.Error(loadErr))
			loaded = storage.LoadResult{}
		}
	}

	e.state = NewState(roster.FromRecords(loaded.Players))
	e.history.Reset()
	e.history.Commit(e.state.Clone())
	e.metrics.SetHistory(e.history.Index(), e.history.Size())

	e.logger.Info("roster loaded",
		zap.Int("players", e.state.roster.Len()),
		zap.Bool("migrated", loaded.Migrated),
	)

	if loaded.Migrated {
		if err := e.persist(ctx); err != nil {
			e.logger.Warn("failed to rewrite migrated roster", zap.Error(err))
		}
	}

	view, handler := e.viewLocked(), e.onChange
	e.mu.Unlock()

	if handler != nil {
		handler(view)
	}
	if loadErr != nil {
		return fmt.Errorf("load roster: %w", loadErr)
	}
	return nil
}

// State returns a read-only view of the live state
func (e *Engine) State() View {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.viewLocked()
}

// Player returns a copy of the roster entry at index
func (e *Engine) Player(index int) (roster.Player, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, err := e.playerAt(index)
	if err != nil {
		return roster.Player{}, err
	}
	return *p, nil
}

// LineInfo describes a line of the live state
func (e *Engine) LineInfo(line Box) LineInfo {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.LineInfo(line)
}

// ExportPlayers renders the roster as JSON
func (e *Engine) ExportPlayers() ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.ExportPlayers()
}

// ExportLineup renders the roster and assignments as JSON
func (e *Engine) ExportLineup() ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.ExportLineup()
}

// AddPlayer registers a new player in the pool
func (e *Engine) AddPlayer(ctx context.Context, name, number, role string) (Outcome, error) {
	return e.mutate(ctx, OpAddPlayer, func(s *State) (Outcome, error) {
		p, err := roster.NewPlayer(name, number, role)
		if err != nil {
			return Outcome{}, err
		}
		if err := s.AddPlayer(p); err != nil {
			return Outcome{}, err
		}
		e.logger.Info("player added",
			zap.String("player", p.Name),
			zap.String("number", p.Number),
			zap.String("role", string(p.Role)),
		)
		return Outcome{Changed: true, Player: s.roster.IndexOf(p)}, nil
	})
}

// DeletePlayer removes the player at index from every box and the roster
func (e *Engine) DeletePlayer(ctx context.Context, index int) (Outcome, error) {
	return e.mutate(ctx, OpDeletePlayer, func(s *State) (Outcome, error) {
		p, err := e.playerAt(index)
		if err != nil {
			return Outcome{}, err
		}
		from := s.BoxOf(p)
		s.DeletePlayer(p)
		e.logger.Info("player deleted",
			zap.String("player", p.Name),
			zap.String("box", from.String()),
		)
		return Outcome{Changed: true, Player: index}, nil
	})
}

// Assign moves the player at index into box
func (e *Engine) Assign(ctx context.Context, index int, box Box) (Outcome, error) {
	return e.mutate(ctx, OpAssign, func(s *State) (Outcome, error) {
		p, err := e.playerAt(index)
		if err != nil {
			return Outcome{}, err
		}
		from := s.BoxOf(p)
		changed, err := s.Assign(p, box)
		if err != nil {
			if rejection, ok := IsRejection(err); ok {
				e.metrics.RecordRejection(rejection.Reason())
				e.logger.Warn("assignment rejected",
					zap.String("player", p.Name),
					zap.String("box", box.String()),
					zap.String("reason", rejection.Reason()),
				)
				return Outcome{Notice: rejection.Result.Message, Player: index}, err
			}
			return Outcome{}, err
		}
		out := Outcome{Changed: changed, Player: index}
		if changed {
			out.Moves = []MoveView{{Player: index, Name: p.Name, From: from, To: s.BoxOf(p)}}
			e.logger.Info("player assigned",
				zap.String("player", p.Name),
				zap.String("from", from.String()),
				zap.String("box", s.BoxOf(p).String()),
			)
		}
		return out, nil
	})
}

// DropToPool returns the player at index to the pool
func (e *Engine) DropToPool(ctx context.Context, index int) (Outcome, error) {
	return e.mutate(ctx, OpDropToPool, func(s *State) (Outcome, error) {
		p, err := e.playerAt(index)
		if err != nil {
			return Outcome{}, err
		}
		from := s.BoxOf(p)
		if !s.DropToPool(p) {
			return Outcome{Player: index}, nil
		}
		e.logger.Info("player returned to pool",
			zap.String("player", p.Name),
			zap.String("from", from.String()),
		)
		return Outcome{
			Changed: true,
			Player:  index,
			Moves:   []MoveView{{Player: index, Name: p.Name, From: from, To: BoxPool}},
		}, nil
	})
}

// ClearAll empties every box
func (e *Engine) ClearAll(ctx context.Context) (Outcome, error) {
	return e.mutate(ctx, OpClearAll, func(s *State) (Outcome, error) {
		changed := s.ClearAll()
		if changed {
			e.logger.Info("all boxes cleared")
		}
		return Outcome{Changed: changed, Player: -1}, nil
	})
}

// SetStatus changes the status of the player at index
func (e *Engine) SetStatus(ctx context.Context, index int, status roster.Status) (Outcome, error) {
	return e.mutate(ctx, OpSetStatus, func(s *State) (Outcome, error) {
		p, err := e.playerAt(index)
		if err != nil {
			return Outcome{}, err
		}
		change, err := s.SetStatus(p, status)
		if err != nil {
			return Outcome{}, err
		}
		out := Outcome{Changed: change.Changed, Player: index}
		if !change.Changed {
			return out, nil
		}
		if to := s.BoxOf(p); to != change.PreviousBox {
			out.Moves = []MoveView{{Player: index, Name: p.Name, From: change.PreviousBox, To: to}}
		}
		if change.Recovered {
			box := change.Reassigned
			out.Reassigned = &box
			if box == BoxPool {
				out.Notice = fmt.Sprintf("%s is back but no box has room", p.Name)
			}
		}
		e.logger.Info("player status changed",
			zap.String("player", p.Name),
			zap.String("from", string(change.From)),
			zap.String("to", string(change.To)),
			zap.String("box", s.BoxOf(p).String()),
		)
		return out, nil
	})
}

// FillCurrentLine tops up lineA from the reserve lines
func (e *Engine) FillCurrentLine(ctx context.Context) (Outcome, error) {
	return e.mutate(ctx, OpFillLine, func(s *State) (Outcome, error) {
		already := s.LineComplete(BoxLineA)
		fill := s.AutoFillCurrentLine()
		out := Outcome{
			Changed:  len(fill.Moved) > 0,
			Player:   -1,
			Complete: fill.Complete,
			Moves:    moveViews(s, fill.Moved),
		}
		switch {
		case already:
			out.Notice = "Current line is already complete"
		case fill.Complete:
			out.Notice = "Current line filled"
		default:
			out.Notice = "No reserves available in the next or third line"
			e.metrics.RecordShortfall()
			e.logger.Warn("auto-fill shortfall",
				zap.Int("moved", len(fill.Moved)),
				zap.Int("missing", s.LineInfo(BoxLineA).Missing),
			)
		}
		return out, nil
	})
}

// Rotate advances jammers and lines; the current line must be complete
func (e *Engine) Rotate(ctx context.Context) (Outcome, error) {
	return e.mutate(ctx, OpRotate, func(s *State) (Outcome, error) {
		report, err := s.Rotate()
		if err != nil {
			e.logger.Info("rotation refused", zap.String("problem", report.CurrentLine.Problem))
			return Outcome{Player: -1, Notice: report.CurrentLine.Problem}, err
		}
		return e.rotationOutcome(s, report), nil
	})
}

// RotateWithAutoFill fills the current line and rotates if that succeeded
func (e *Engine) RotateWithAutoFill(ctx context.Context) (Outcome, error) {
	return e.mutate(ctx, OpRotateWithAutoFill, func(s *State) (Outcome, error) {
		report := s.RotateWithAutoFill()
		if !report.Rotated {
			e.metrics.RecordShortfall()
			e.logger.Warn("rotation cancelled, no reserves",
				zap.Int("moved", len(report.PreFill.Moved)),
				zap.Int("missing", report.CurrentLine.Missing),
			)
			return Outcome{
				Changed: len(report.PreFill.Moved) > 0,
				Player:  -1,
				Notice:  "No reserves available, rotation cancelled",
				Moves:   moveViews(s, report.PreFill.Moved),
			}, nil
		}
		out := e.rotationOutcome(s, report)
		out.Notice = "Line filled and rotated"
		return out, nil
	})
}

// ForceRotate rotates regardless of the current line
func (e *Engine) ForceRotate(ctx context.Context) (Outcome, error) {
	return e.mutate(ctx, OpForceRotate, func(s *State) (Outcome, error) {
		return e.rotationOutcome(s, s.ForceRotate()), nil
	})
}

func (e *Engine) rotationOutcome(s *State, report RotationReport) Outcome {
	out := Outcome{
		Rotated: true,
		Player:  -1,
	}
	var moved []Move
	if report.PreFill != nil {
		moved = append(moved, report.PreFill.Moved...)
	}
	moved = append(moved, report.JammerMoves...)
	moved = append(moved, report.LineMoves...)
	if report.PostFill != nil {
		moved = append(moved, report.PostFill.Moved...)
		if !report.PostFill.Complete {
			e.metrics.RecordShortfall()
		}
	}
	if report.Promoted != nil {
		moved = append(moved, Move{Player: report.Promoted, From: report.PromotedFrom, To: BoxCurrentJammer})
	}
	out.Moves = moveViews(s, moved)
	// a rotation that moved nobody leaves nothing to record
	out.Changed = len(out.Moves) > 0
	for _, p := range report.Benched {
		out.Benched = append(out.Benched, s.roster.IndexOf(p))
	}
	if len(out.Benched) > 0 {
		out.Notice = fmt.Sprintf("%d resting player(s) returned to the pool", len(out.Benched))
	}
	e.logger.Info("rotated",
		zap.Int("jammer_moves", len(report.JammerMoves)),
		zap.Int("line_moves", len(report.LineMoves)),
		zap.Int("benched", len(report.Benched)),
		zap.Bool("promoted", report.Promoted != nil),
	)
	return out
}

// Undo restores the previous snapshot
func (e *Engine) Undo(ctx context.Context) (Outcome, error) {
	return e.travel(ctx, OpUndo, e.history.Undo, ErrNothingToUndo, "Undo")
}

// Redo restores the next snapshot
func (e *Engine) Redo(ctx context.Context) (Outcome, error) {
	return e.travel(ctx, OpRedo, e.history.Redo, ErrNothingToRedo, "Redo")
}

func (e *Engine) travel(ctx context.Context, op string, step func() (*State, error), boundary error, label string) (Outcome, error) {
	e.mu.Lock()

	snapshot, err := step()
	if err != nil {
		e.mu.Unlock()
		if errors.Is(err, history.ErrAtOldest) || errors.Is(err, history.ErrAtNewest) || errors.Is(err, history.ErrEmpty) {
			return Outcome{Op: op, Player: -1, Notice: boundary.Error()}, boundary
		}
		return Outcome{Op: op, Player: -1}, err
	}

	e.state = snapshot.Clone()
	out := Outcome{
		Op:          op,
		Changed:     true,
		Player:      -1,
		Notice:      fmt.Sprintf("%s: step %d/%d", label, e.history.Index()+1, e.history.Size()),
		Complete:    e.state.LineComplete(BoxLineA),
		CurrentLine: e.state.LineInfo(BoxLineA),
	}
	if err := e.persist(ctx); err != nil {
		out.SaveError = err.Error()
	}
	e.metrics.RecordMutation(op)
	e.metrics.SetHistory(e.history.Index(), e.history.Size())
	e.logger.Info("history step",
		zap.String("op", op),
		zap.Int("history_index", e.history.Index()),
		zap.Int("history_size", e.history.Size()),
	)

	view, handler := e.viewLocked(), e.onChange
	e.mu.Unlock()

	if handler != nil {
		handler(view)
	}
	return out, nil
}

// Import replaces the live state with an exported document
func (e *Engine) Import(ctx context.Context, data []byte) (ImportResult, Outcome, error) {
	imported, result, err := ParseImport(data)
	if err != nil {
		e.logger.Warn("import rejected", zap.Error(err))
		return result, Outcome{Op: OpImport, Player: -1}, err
	}
	out, err := e.mutate(ctx, OpImport, func(s *State) (Outcome, error) {
		e.state = imported
		if len(result.Skipped) > 0 {
			e.logger.Warn("import skipped entries", zap.Int("skipped", len(result.Skipped)))
		}
		e.logger.Info("lineup imported",
			zap.Int("players", result.Players),
			zap.Int("assigned", result.Assigned),
			zap.Bool("migrated", result.Migrated),
		)
		out := Outcome{Changed: true, Player: -1}
		if len(result.Skipped) > 0 {
			out.Notice = fmt.Sprintf("Imported with %d skipped assignment(s)", len(result.Skipped))
		}
		return out, nil
	})
	return result, out, err
}

// mutate runs fn against the live state under the lock and commits when it
// reports a change
func (e *Engine) mutate(ctx context.Context, op string, fn func(*State) (Outcome, error)) (Outcome, error) {
	e.mu.Lock()

	out, err := fn(e.state)
	out.Op = op
	out.CurrentLine = e.state.LineInfo(BoxLineA)
	out.Complete = out.Complete || e.state.LineComplete(BoxLineA)
	if err != nil || !out.Changed {
		e.mu.Unlock()
		return out, err
	}

	e.history.Commit(e.state.Clone())
	e.logger.Debug("snapshot committed",
		zap.String("op", op),
		zap.Int("history_index", e.history.Index()),
		zap.String("checksum", e.state.Checksum()),
	)
	if err := e.persist(ctx); err != nil {
		out.SaveError = err.Error()
	}
	e.metrics.RecordMutation(op)
	e.metrics.SetHistory(e.history.Index(), e.history.Size())

	view, handler := e.viewLocked(), e.onChange
	e.mu.Unlock()

	if handler != nil {
		handler(view)
	}
	return out, nil
}

// persist writes the roster; failures are logged and never roll back
func (e *Engine) persist(ctx context.Context) error {
	if e.store == nil {
		return nil
	}
	if err := e.store.SavePlayers(ctx, e.state.roster.Records()); err != nil {
		e.metrics.RecordSaveFailure()
		e.logger.Error("failed to save roster", zap.Error(err))
		return fmt.Errorf("save roster: %w", err)
	}
	return nil
}

func (e *Engine) viewLocked() View {
	v := e.state.View()
	v.HistoryIndex = e.history.Index()
	v.HistoryDepth = e.history.Size()
	return v
}

func (e *Engine) playerAt(index int) (*roster.Player, error) {
	p, ok := e.state.roster.At(index)
	if !ok {
		return nil, fmt.Errorf("%w: index %d", ErrUnknownPlayer, index)
	}
	return p, nil
}

func moveViews(s *State, moves []Move) []MoveView {
	if len(moves) == 0 {
		return nil
	}
	views := make([]MoveView, 0, len(moves))
	for _, m := range moves {
		views = append(views, MoveView{
			Player: s.roster.IndexOf(m.Player),
			Name:   m.Player.Name,
			From:   m.From,
			To:     m.To,
		})
	}
	return views
}
