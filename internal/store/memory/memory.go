package memory

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/taneryldrm/bugless-crm-sub000/internal/core"
	"github.com/taneryldrm/bugless-crm-sub000/internal/store"
)

// Operation names accepted by FailNext.
const (
	OpList        = "list"
	OpInsert      = "insert"
	OpUpdate      = "update"
	OpMarkSettled = "mark_settled"
	OpDelete      = "delete"
	OpRecord      = "record_pending"
	OpResolve     = "resolve_pending"
)

type Store struct {
	mu       sync.Mutex
	nextID   int64
	nextPend int64
	txs      map[int64]core.Transaction
	clients  []core.Client
	projects []core.Project
	pending  map[int64]core.PendingWrite
	// failures queued per operation, consumed one per call
	failures map[string][]error
	// inserted keeps every successful insert in order, for tests
	inserted []core.Transaction
}

func New(clients []core.Client, projects []core.Project) *Store {
	return &Store{
		txs:      make(map[int64]core.Transaction),
		clients:  append([]core.Client(nil), clients...),
		projects: append([]core.Project(nil), projects...),
		pending:  make(map[int64]core.PendingWrite),
		failures: make(map[string][]error),
	}
}

// NewFromFiles seeds clients and projects from base/seed_clients.txt.
// Each line is "client name;agreed price", one project per line.
func NewFromFiles(base string) *Store {
	var (
		clients  []core.Client
		projects []core.Project
		byName   = map[string]int64{}
	)
	for _, line := range readLines(filepath.Join(base, "seed_clients.txt")) {
		name, price, _ := strings.Cut(line, ";")
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		id, ok := byName[name]
		if !ok {
			id = int64(len(clients) + 1)
			byName[name] = id
			clients = append(clients, core.Client{ID: id, Name: name, Status: "active"})
		}
		agreed, err := core.ParseAmount(price)
		if err != nil {
			continue
		}
		projects = append(projects, core.Project{
			ID:          int64(len(projects) + 1),
			ClientID:    id,
			Name:        fmt.Sprintf("%s #%d", name, len(projects)+1),
			AgreedPrice: agreed,
		})
	}
	return New(clients, projects)
}

// FailNext makes the next call of op return err.
func (s *Store) FailNext(op string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = append(s.failures[op], err)
}

func (s *Store) takeFailure(op string) error {
	q := s.failures[op]
	if len(q) == 0 {
		return nil
	}
	s.failures[op] = q[1:]
	return q[0]
}

// Seed stores transactions as they are, assigning ids to those without one.
// It bypasses failure injection.
func (s *Store) Seed(txs ...core.Transaction) []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Transaction, len(txs))
	for i, t := range txs {
		if t.ID == 0 {
			s.nextID++
			t.ID = s.nextID
		} else if t.ID > s.nextID {
			s.nextID = t.ID
		}
		s.txs[t.ID] = t
		out[i] = t
	}
	return out
}

// Inserted returns every transaction inserted through Insert, in order.
func (s *Store) Inserted() []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction(nil), s.inserted...)
}

// Get returns one transaction by id.
func (s *Store) Get(id int64) (core.Transaction, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.txs[id]
	return t, ok
}

func (s *Store) List(_ context.Context, filter store.ListFilter) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(OpList); err != nil {
		return nil, err
	}
	out := make([]core.Transaction, 0, len(s.txs))
	for _, t := range s.txs {
		if filter.Matches(t) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) Insert(_ context.Context, t core.Transaction) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(OpInsert); err != nil {
		return core.Transaction{}, err
	}
	s.nextID++
	t.ID = s.nextID
	s.txs[t.ID] = t
	s.inserted = append(s.inserted, t)
	return t, nil
}

func (s *Store) Update(_ context.Context, id int64, patch store.TransactionPatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(OpUpdate); err != nil {
		return err
	}
	t, ok := s.txs[id]
	if !ok {
		return fmt.Errorf("transaction %d: %w", id, store.ErrNotFound)
	}
	updated, err := patch.Apply(t)
	if err != nil {
		return err
	}
	s.txs[id] = updated
	return nil
}

func (s *Store) MarkSettled(_ context.Context, ids []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(OpMarkSettled); err != nil {
		return err
	}
	for _, id := range ids {
		if _, ok := s.txs[id]; !ok {
			return fmt.Errorf("transaction %d: %w", id, store.ErrNotFound)
		}
	}
	for _, id := range ids {
		t := s.txs[id]
		t.Settled = true
		s.txs[id] = t
	}
	return nil
}

func (s *Store) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(OpDelete); err != nil {
		return err
	}
	if _, ok := s.txs[id]; !ok {
		return fmt.Errorf("transaction %d: %w", id, store.ErrNotFound)
	}
	delete(s.txs, id)
	return nil
}

func (s *Store) ListProjects(_ context.Context, clientID *int64) ([]core.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Project
	for _, p := range s.projects {
		if clientID == nil || p.ClientID == *clientID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Store) ListClients(_ context.Context) ([]core.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Client(nil), s.clients...), nil
}

func (s *Store) RecordPending(_ context.Context, w core.PendingWrite) (core.PendingWrite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(OpRecord); err != nil {
		return core.PendingWrite{}, err
	}
	s.nextPend++
	w.ID = s.nextPend
	if w.CreatedAt.IsZero() {
		w.CreatedAt = time.Now().UTC()
	}
	w.MemberIDs = append([]int64(nil), w.MemberIDs...)
	s.pending[w.ID] = w
	return w, nil
}

func (s *Store) ResolvePending(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(OpResolve); err != nil {
		return err
	}
	if _, ok := s.pending[id]; !ok {
		return fmt.Errorf("pending write %d: %w", id, store.ErrNotFound)
	}
	delete(s.pending, id)
	return nil
}

func (s *Store) ListPending(_ context.Context) ([]core.PendingWrite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.PendingWrite, 0, len(s.pending))
	for _, w := range s.pending {
		out = append(out, w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out
}

var _ store.Store = (*Store)(nil)
