package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ctweave/weave"
	"github.com/ctweave/weave/internal/siteregistry"
	"github.com/ctweave/weave/internal/textview"
)

// This demo simulates several parallel editors sharing one server process,
// forking and syncing their work: /load lists every known replica, /edit
// applies a keep/insert/delete script to one, /fork spins up a new replica
// seeded from an existing one's current state, and /sync merges one
// replica's weave into another's. There is no network loss or reordering to
// contend with here: each HTTP call runs Integrate synchronously against
// server-held state.

var demoPort int

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a multi-replica editing demo server",
	RunE: func(cmd *cobra.Command, args []string) error {
		srv := newDemoServer(logger)
		mux := http.NewServeMux()
		mux.Handle("/load", http.HandlerFunc(srv.handleLoad))
		mux.Handle("/edit", http.HandlerFunc(srv.handleEdit))
		mux.Handle("/fork", http.HandlerFunc(srv.handleFork))
		mux.Handle("/sync", http.HandlerFunc(srv.handleSync))

		addr := fmt.Sprintf(":%d", demoPort)
		logger.Info("demo server listening", zap.String("addr", addr))
		return http.ListenAndServe(addr, mux)
	},
}

func init() {
	demoCmd.Flags().IntVar(&demoPort, "port", 8009, "port to serve the demo on")
}

type replica struct {
	id    string
	doc   *textview.Document
	mu    sync.Mutex
	order int
}

type demoServer struct {
	logger   *zap.Logger
	registry *siteregistry.Registry

	mu       sync.Mutex
	replicas map[string]*replica
	nextSeq  int

	numLoad, numEdit, numFork, numSync int
}

func newDemoServer(logger *zap.Logger) *demoServer {
	reg := siteregistry.New()
	rootID, _ := reg.UUID(reg.Self())
	doc := textview.New(reg.Self())
	s := &demoServer{
		logger:   logger,
		registry: reg,
		replicas: map[string]*replica{
			rootID.String(): {id: rootID.String(), doc: doc, order: 0},
		},
		nextSeq: 1,
	}
	return s
}

func (s *demoServer) sorted() []*replica {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*replica, 0, len(s.replicas))
	for _, r := range s.replicas {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].order < out[j].order })
	return out
}

func (s *demoServer) get(id string) (*replica, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.replicas[id]
	return r, ok
}

// -----

type replicaResponse struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

type loadResponse struct {
	Replicas []replicaResponse `json:"replicas"`
}

func (s *demoServer) handleLoad(w http.ResponseWriter, req *http.Request) {
	s.mu.Lock()
	s.numLoad++
	s.mu.Unlock()

	replicas := s.sorted()
	resp := loadResponse{Replicas: make([]replicaResponse, len(replicas))}
	for i, r := range replicas {
		r.mu.Lock()
		resp.Replicas[i] = replicaResponse{ID: r.id, Content: r.doc.String()}
		r.mu.Unlock()
	}
	writeJSON(w, resp)
}

// -----

type editOp struct {
	Op string `json:"op"`
	Ch string `json:"ch"`
}

type editRequest struct {
	ID  string   `json:"id"`
	Ops []editOp `json:"ops"`
}

func (s *demoServer) handleEdit(w http.ResponseWriter, req *http.Request) {
	var editReq editRequest
	if err := json.NewDecoder(req.Body).Decode(&editReq); err != nil {
		httpError(w, http.StatusBadRequest, fmt.Errorf("edit: %w", err))
		return
	}
	r, ok := s.get(editReq.ID)
	if !ok {
		httpError(w, http.StatusNotFound, fmt.Errorf("edit: unknown replica %q", editReq.ID))
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	s.mu.Lock()
	s.numEdit++
	s.mu.Unlock()

	var pos int
	var clock weave.Clock
	for _, op := range editReq.Ops {
		clock++
		switch op.Op {
		case "keep":
			pos++
		case "insert":
			ch := []rune(op.Ch)
			if len(ch) == 0 {
				continue
			}
			if _, ok := r.doc.InsertChar(pos, ch[0], clock); !ok {
				httpError(w, http.StatusInternalServerError, fmt.Errorf("edit: insert at %d failed", pos))
				return
			}
			pos++
		case "delete":
			if _, ok := r.doc.DeleteChar(pos, clock); !ok {
				httpError(w, http.StatusInternalServerError, fmt.Errorf("edit: delete at %d failed", pos))
				return
			}
		}
	}
	s.logger.Info("edit applied", zap.String("id", editReq.ID), zap.Int("ops", len(editReq.Ops)))

	w.Header().Set("Content-Type", "text/plain")
	io.WriteString(w, r.doc.String())
}

// -----

type forkRequest struct {
	LocalID string `json:"local"`
}

func (s *demoServer) handleFork(w http.ResponseWriter, req *http.Request) {
	var forkReq forkRequest
	if err := json.NewDecoder(req.Body).Decode(&forkReq); err != nil {
		httpError(w, http.StatusBadRequest, fmt.Errorf("fork: %w", err))
		return
	}
	local, ok := s.get(forkReq.LocalID)
	if !ok {
		httpError(w, http.StatusNotFound, fmt.Errorf("fork: unknown replica %q", forkReq.LocalID))
		return
	}

	newUUID, err := uuid.NewUUID()
	if err != nil {
		httpError(w, http.StatusInternalServerError, fmt.Errorf("fork: %w", err))
		return
	}

	local.mu.Lock()
	newSite, remap := s.registry.Admit(newUUID)
	if remap != nil {
		// The new site sorted before an existing one: every live replica's
		// weave must be remapped to keep SiteIDs consistent with the shared
		// registry.
		for _, r := range s.sorted() {
			if r.id == local.id {
				continue
			}
			r.mu.Lock()
			r.doc.Weave().RemapIndices(remap)
			r.mu.Unlock()
		}
		local.doc.Weave().RemapIndices(remap)
	}
	forkedDoc := textview.Wrap(weave.FromSerialized[rune](newSite, local.doc.Weave().Atoms()))
	local.mu.Unlock()

	s.mu.Lock()
	order := s.nextSeq
	s.nextSeq++
	s.numFork++
	remoteID := newUUID.String()
	s.replicas[remoteID] = &replica{id: remoteID, doc: forkedDoc, order: order}
	s.mu.Unlock()

	s.logger.Info("forked replica", zap.String("from", local.id), zap.String("to", remoteID))
	writeJSON(w, replicaResponse{ID: remoteID, Content: forkedDoc.String()})
}

// -----

type syncRequest struct {
	LocalID   string   `json:"id"`
	RemoteIDs []string `json:"mergeIds"`
}

func (s *demoServer) handleSync(w http.ResponseWriter, req *http.Request) {
	var syncReq syncRequest
	if err := json.NewDecoder(req.Body).Decode(&syncReq); err != nil {
		httpError(w, http.StatusBadRequest, fmt.Errorf("sync: %w", err))
		return
	}
	local, ok := s.get(syncReq.LocalID)
	if !ok {
		httpError(w, http.StatusNotFound, fmt.Errorf("sync: unknown replica %q", syncReq.LocalID))
		return
	}

	s.mu.Lock()
	s.numSync++
	s.mu.Unlock()

	for _, remoteID := range syncReq.RemoteIDs {
		remote, ok := s.get(remoteID)
		if !ok {
			httpError(w, http.StatusNotFound, fmt.Errorf("sync: unknown replica %q", remoteID))
			return
		}
		lockInOrder(local, remote)
		err := local.doc.Weave().Integrate(remote.doc.Weave())
		unlockInOrder(local, remote)
		if err != nil {
			httpError(w, http.StatusInternalServerError, fmt.Errorf("sync: %w", err))
			return
		}
		s.logger.Info("merged replica", zap.String("into", local.id), zap.String("from", remoteID))
	}

	w.Header().Set("Content-Type", "text/plain")
	io.WriteString(w, local.doc.String())
}

// lockInOrder/unlockInOrder lock two replicas by ID order, so concurrent
// syncs that share a replica never deadlock.
func lockInOrder(a, b *replica) {
	if a.id <= b.id {
		a.mu.Lock()
		b.mu.Lock()
	} else {
		b.mu.Lock()
		a.mu.Lock()
	}
}

func unlockInOrder(a, b *replica) {
	if a.id <= b.id {
		b.mu.Unlock()
		a.mu.Unlock()
	} else {
		a.mu.Unlock()
		b.mu.Unlock()
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	bs, err := json.Marshal(v)
	if err != nil {
		httpError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(bs)
}

func httpError(w http.ResponseWriter, status int, err error) {
	w.WriteHeader(status)
	fmt.Fprintf(w, "error: %v", err)
}
