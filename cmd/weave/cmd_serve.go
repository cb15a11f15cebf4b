package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	weavepkg "github.com/ctweave/weave"
	"github.com/ctweave/weave/internal/textview"
)

// serve runs a single persisted replica behind a small HTTP API, loading its
// weave from cfg.StatePath on startup and writing it back after every
// mutation: one replica, one file, no multi-replica fan-out (that's what
// the demo subcommand is for).

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a single persisted replica over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		srv, err := newServeServer(logger, cfg.StatePath)
		if err != nil {
			return err
		}
		mux := http.NewServeMux()
		mux.Handle("/text", http.HandlerFunc(srv.handleText))
		mux.Handle("/insert", http.HandlerFunc(srv.handleInsert))
		mux.Handle("/delete", http.HandlerFunc(srv.handleDelete))

		addr := fmt.Sprintf(":%d", servePort)
		logger.Info("serve listening", zap.String("addr", addr), zap.String("state", cfg.StatePath))
		return http.ListenAndServe(addr, mux)
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 8010, "port to serve on")
}

type serveServer struct {
	logger    *zap.Logger
	statePath string

	mu    sync.Mutex
	doc   *textview.Document
	clock weavepkg.Clock
}

func newServeServer(logger *zap.Logger, statePath string) (*serveServer, error) {
	data, err := os.ReadFile(statePath)
	if os.IsNotExist(err) {
		return &serveServer{logger: logger, statePath: statePath, doc: textview.New(1)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("serve: read %s: %w", statePath, err)
	}
	w, err := weavepkg.UnmarshalWeave[rune](data)
	if err != nil {
		return nil, fmt.Errorf("serve: decode %s: %w", statePath, err)
	}
	if err := w.Validate(); err != nil {
		return nil, fmt.Errorf("serve: %s failed validation: %w", statePath, err)
	}
	return &serveServer{logger: logger, statePath: statePath, doc: textview.Wrap(w)}, nil
}

// persist must be called with s.mu held.
func (s *serveServer) persist() error {
	if s.statePath == "" {
		return nil
	}
	data, err := s.doc.Weave().MarshalBinary()
	if err != nil {
		return fmt.Errorf("serve: encode: %w", err)
	}
	return os.WriteFile(s.statePath, data, 0o644)
}

func (s *serveServer) handleText(w http.ResponseWriter, req *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte(s.doc.String()))
}

type insertRequest struct {
	Pos int    `json:"pos"`
	Ch  string `json:"ch"`
}

func (s *serveServer) handleInsert(w http.ResponseWriter, req *http.Request) {
	var in insertRequest
	if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
		httpError(w, http.StatusBadRequest, fmt.Errorf("insert: %w", err))
		return
	}
	ch := []rune(in.Ch)
	if len(ch) == 0 {
		httpError(w, http.StatusBadRequest, fmt.Errorf("insert: empty ch"))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock++
	if _, ok := s.doc.InsertChar(in.Pos, ch[0], s.clock); !ok {
		httpError(w, http.StatusBadRequest, fmt.Errorf("insert: position %d out of range", in.Pos))
		return
	}
	if err := s.persist(); err != nil {
		httpError(w, http.StatusInternalServerError, err)
		return
	}
	s.logger.Info("inserted", zap.Int("pos", in.Pos))
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte(s.doc.String()))
}

type deleteRequest struct {
	Pos int `json:"pos"`
}

func (s *serveServer) handleDelete(w http.ResponseWriter, req *http.Request) {
	var in deleteRequest
	if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
		httpError(w, http.StatusBadRequest, fmt.Errorf("delete: %w", err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock++
	if _, ok := s.doc.DeleteChar(in.Pos, s.clock); !ok {
		httpError(w, http.StatusBadRequest, fmt.Errorf("delete: position %d out of range", in.Pos))
		return
	}
	if err := s.persist(); err != nil {
		httpError(w, http.StatusInternalServerError, err)
		return
	}
	s.logger.Info("deleted", zap.Int("pos", in.Pos))
	w.Header().Set("Content-Type", "text/plain")
	_, _ = w.Write([]byte(s.doc.String()))
}
