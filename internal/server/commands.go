package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/derbybench/lineup-server-go/internal/lineup"
	"github.com/derbybench/lineup-server-go/internal/roster"
	"go.uber.org/zap"
)

// Client commands
const (
	CmdGetState      = "get_state"
	CmdAddPlayer     = "add_player"
	CmdDeletePlayer  = "delete_player"
	CmdAssign        = "assign"
	CmdDropToPool    = "drop_to_pool"
	CmdClearAll      = "clear_all"
	CmdSetStatus     = "set_status"
	CmdFillLine      = "fill_line"
	CmdRotate        = "rotate"
	CmdRotateFill    = "rotate_autofill"
	CmdRotateForce   = "rotate_force"
	CmdUndo          = "undo"
	CmdRedo          = "redo"
	CmdExportPlayers = "export_players"
	CmdExportLineup  = "export_lineup"
	CmdImport        = "import"
)

// Server messages
const (
	MsgState          = "state"
	MsgResult         = "result"
	MsgNotice         = "notice"
	MsgIncompleteLine = "incomplete_line"
	MsgExport         = "export"
	MsgImported       = "import_result"
	MsgError          = "error"
)

type inbound struct {
	Type      string          `json:"type"`
	RequestID string          `json:"request_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

type addPlayerRequest struct {
	Name   string `json:"name"`
	Number string `json:"number"`
	Role   string `json:"role"`
}

type playerRequest struct {
	Player *int `json:"player"`
}

type assignRequest struct {
	Player *int        `json:"player"`
	Box    *lineup.Box `json:"box"`
}

type statusRequest struct {
	Player *int          `json:"player"`
	Status roster.Status `json:"status"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type noticePayload struct {
	Message string `json:"message"`
	Reason  string `json:"reason,omitempty"`
	Op      string `json:"op,omitempty"`
}

type incompletePayload struct {
	Message string          `json:"message"`
	Line    lineup.LineInfo `json:"line"`
}

type exportPayload struct {
	Kind     string          `json:"kind"`
	Document json.RawMessage `json:"document"`
}

type importPayload struct {
	Result  lineup.ImportResult `json:"result"`
	Outcome lineup.Outcome      `json:"outcome"`
}

var (
	errMissingPlayer = errors.New("player index is required")
	errMissingBox    = errors.New("target box is required")
)

func decode(data json.RawMessage, v any) error {
	if len(data) == 0 {
		return errors.New("missing data")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %T: %w", v, err)
	}
	return nil
}

func index(p *int) (int, error) {
	if p == nil {
		return 0, errMissingPlayer
	}
	return *p, nil
}

// handleMessage runs one client command against the engine. State changes
// reach every client through the engine change handler; everything else is
// answered to the sender only.
func (s *Server) handleMessage(ctx context.Context, c *Client, msg inbound) {
	s.logger.Debug("websocket command",
		zap.String("client_id", c.id),
		zap.String("type", msg.Type),
	)

	reply := func(typ string, data any) {
		s.hub.Send(c, WSMessage{Type: typ, RequestID: msg.RequestID, Data: data})
	}

	var (
		out lineup.Outcome
		err error
	)
	switch msg.Type {
	case CmdGetState:
		reply(MsgState, s.engine.State())
		return

	case CmdAddPlayer:
		var req addPlayerRequest
		if err = decode(msg.Data, &req); err == nil {
			out, err = s.engine.AddPlayer(ctx, req.Name, req.Number, req.Role)
		}

	case CmdDeletePlayer, CmdDropToPool:
		var req playerRequest
		var i int
		if err = decode(msg.Data, &req); err == nil {
			if i, err = index(req.Player); err == nil {
				if msg.Type == CmdDeletePlayer {
					out, err = s.engine.DeletePlayer(ctx, i)
				} else {
					out, err = s.engine.DropToPool(ctx, i)
				}
			}
		}

	case CmdAssign:
		var req assignRequest
		var i int
		if err = decode(msg.Data, &req); err == nil {
			if i, err = index(req.Player); err == nil {
				if req.Box == nil {
					err = errMissingBox
				} else {
					out, err = s.engine.Assign(ctx, i, *req.Box)
				}
			}
		}

	case CmdSetStatus:
		var req statusRequest
		var i int
		if err = decode(msg.Data, &req); err == nil {
			if i, err = index(req.Player); err == nil {
				out, err = s.engine.SetStatus(ctx, i, req.Status)
			}
		}

	case CmdClearAll:
		out, err = s.engine.ClearAll(ctx)
	case CmdFillLine:
		out, err = s.engine.FillCurrentLine(ctx)
	case CmdRotate:
		out, err = s.engine.Rotate(ctx)
	case CmdRotateFill:
		out, err = s.engine.RotateWithAutoFill(ctx)
	case CmdRotateForce:
		out, err = s.engine.ForceRotate(ctx)
	case CmdUndo:
		out, err = s.engine.Undo(ctx)
	case CmdRedo:
		out, err = s.engine.Redo(ctx)

	case CmdExportPlayers, CmdExportLineup:
		kind := exportPlayers
		if msg.Type == CmdExportLineup {
			kind = exportLineup
		}
		doc, exportErr := s.export(kind)
		if exportErr != nil {
			reply(MsgError, errorPayload{Message: exportErr.Error()})
			return
		}
		reply(MsgExport, exportPayload{Kind: kind, Document: doc})
		return

	case CmdImport:
		result, outcome, importErr := s.engine.Import(ctx, msg.Data)
		if importErr != nil {
			reply(MsgError, errorPayload{Message: importErr.Error()})
			return
		}
		reply(MsgImported, importPayload{Result: result, Outcome: outcome})
		return

	default:
		s.logger.Warn("unknown websocket command",
			zap.String("client_id", c.id),
			zap.String("type", msg.Type),
		)
		reply(MsgError, errorPayload{Message: fmt.Sprintf("unknown command %q", msg.Type)})
		return
	}

	if err != nil {
		s.replyError(reply, out, err)
		return
	}
	reply(MsgResult, out)
}

func (s *Server) replyError(reply func(string, any), out lineup.Outcome, err error) {
	if rejection, ok := lineup.IsRejection(err); ok {
		reply(MsgNotice, noticePayload{Message: rejection.Result.Message, Reason: rejection.Reason(), Op: out.Op})
		return
	}
	switch {
	case errors.Is(err, lineup.ErrIncompleteLine):
		reply(MsgIncompleteLine, incompletePayload{Message: out.Notice, Line: out.CurrentLine})
	case errors.Is(err, lineup.ErrNothingToUndo), errors.Is(err, lineup.ErrNothingToRedo):
		reply(MsgNotice, noticePayload{Message: out.Notice, Op: out.Op})
	default:
		reply(MsgError, errorPayload{Message: err.Error()})
	}
}
