// Copyright © 2024 The Quill authors

package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/luthersystems/quill/parser/token"
	"github.com/luthersystems/quill/query"
	"github.com/luthersystems/quill/service"
	"gitlab.com/tozd/go/errors"
)

// AnalyzeRequest is the body of POST /v1/analyze.
type AnalyzeRequest struct {
	URI  string `json:"uri"`
	Text string `json:"text"`
}

// HoverResponse is the hover of a symbol with its rendered markdown.
type HoverResponse struct {
	*query.HoverInfo
	Markdown string         `json:"markdown"`
	Start    query.Position `json:"start"`
	End      query.Position `json:"end"`
}

// RenameRequest is the body of POST /v1/snapshots/{id}/rename.
type RenameRequest struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	NewName string `json:"newName"`
}

// EditRequest replaces the text between two positions.
type EditRequest struct {
	Start   query.Position `json:"start"`
	End     query.Position `json:"end"`
	NewText string         `json:"newText"`
}

// CommitRequest is the body of POST /v1/snapshots/{id}/commit.
type CommitRequest struct {
	Edits []EditRequest `json:"edits"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	if req.URI == "" {
		writeError(w, r, errors.WithDetails(errBadRequest, "field", "uri"))
		return
	}
	res, err := s.svc.Analyze(r.Context(), req.URI, req.Text)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleClose(w http.ResponseWriter, r *http.Request) {
	uri := r.URL.Query().Get("uri")
	if uri == "" {
		writeError(w, r, errors.WithDetails(errBadRequest, "field", "uri"))
		return
	}
	s.svc.Close(uri)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleHover(w http.ResponseWriter, r *http.Request) {
	id, pos, err := snapshotPosition(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	info, err := s.svc.Hover(id, pos.Line, pos.Col)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if info == nil {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	snap, err := s.svc.Snapshot(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, HoverResponse{
		HoverInfo: info,
		Markdown:  info.Markdown(),
		Start:     snap.PositionOf(info.Span.Start),
		End:       snap.PositionOf(info.Span.End),
	})
}

func (s *Server) handleDefinition(w http.ResponseWriter, r *http.Request) {
	id, pos, err := snapshotPosition(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	loc, err := s.svc.Definition(id, pos.Line, pos.Col)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, loc)
}

func (s *Server) handleReferences(w http.ResponseWriter, r *http.Request) {
	id, pos, err := snapshotPosition(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	locs, err := s.svc.References(id, pos.Line, pos.Col)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, locs)
}

func (s *Server) handleRename(w http.ResponseWriter, r *http.Request) {
	var req RenameRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := s.svc.Rename(service.ID(chi.URLParam(r, "id")), req.Line, req.Col, req.NewName)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleCommit(w http.ResponseWriter, r *http.Request) {
	var req CommitRequest
	if err := decode(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	id := service.ID(chi.URLParam(r, "id"))
	snap, err := s.svc.Snapshot(id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	edits := make([]query.Edit, 0, len(req.Edits))
	for i, e := range req.Edits {
		start, ok := snap.Offset(e.Start)
		end, ok2 := snap.Offset(e.End)
		if !ok || !ok2 {
			writeError(w, r, errors.WithDetails(query.ErrInvalidEdit, "edit", i))
			return
		}
		edits = append(edits, query.Edit{Span: token.Span{Start: start, End: end}, NewText: e.NewText})
	}
	res, err := s.svc.Commit(r.Context(), id, edits)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// snapshotPosition reads the snapshot id path parameter and the line and
// col query parameters.
func snapshotPosition(r *http.Request) (service.ID, query.Position, error) {
	id := service.ID(chi.URLParam(r, "id"))
	q := r.URL.Query()
	line, err := strconv.Atoi(q.Get("line"))
	if err != nil {
		return id, query.Position{}, errors.WithDetails(errBadRequest, "field", "line")
	}
	col, err := strconv.Atoi(q.Get("col"))
	if err != nil {
		return id, query.Position{}, errors.WithDetails(errBadRequest, "field", "col")
	}
	return id, query.Position{Line: line, Col: col}, nil
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.WrapWith(err, errBadRequest)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
