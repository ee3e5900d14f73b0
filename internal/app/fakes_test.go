package app

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"time"

	"finance-doc-analyzer/internal/analysis"
	"finance-doc-analyzer/internal/model"
)

type fakeGateway struct {
	mu         sync.Mutex
	docs       map[string]*model.Document
	replaceErr error
	createErr  error
	replaces   int
	// onGet runs after the row is read and before GetByID returns.
	onGet func(id string)
}

func newFakeGateway(docs ...*model.Document) *fakeGateway {
	g := &fakeGateway{docs: make(map[string]*model.Document)}
	for _, d := range docs {
		g.docs[d.ID] = d
	}
	return g
}

func (g *fakeGateway) Create(ctx context.Context, doc *model.Document) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.createErr != nil {
		return g.createErr
	}
	cp := *doc
	g.docs[doc.ID] = &cp
	return nil
}

func (g *fakeGateway) Exists(ctx context.Context, id string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.docs[id]
	return ok, nil
}

func (g *fakeGateway) GetByID(ctx context.Context, id string) (*model.Document, error) {
	g.mu.Lock()
	d, ok := g.docs[id]
	if !ok {
		g.mu.Unlock()
		return nil, nil
	}
	cp := *d
	hook := g.onGet
	g.mu.Unlock()
	if hook != nil {
		hook(id)
	}
	return &cp, nil
}

func (g *fakeGateway) ListRecent(ctx context.Context, limit int) ([]model.Document, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]model.Document, 0, len(g.docs))
	for _, d := range g.docs {
		out = append(out, *d)
	}
	return out, nil
}

func (g *fakeGateway) ReplaceAnalysisResults(ctx context.Context, id string, results model.AnalysisResults) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.replaces++
	if g.replaceErr != nil {
		return g.replaceErr
	}
	d, ok := g.docs[id]
	if !ok {
		return ErrDocumentNotFound
	}
	d.AnalysisResults = results
	return nil
}

func (g *fakeGateway) DeleteByID(ctx context.Context, id string) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.docs[id]; !ok {
		return 0, nil
	}
	delete(g.docs, id)
	return 1, nil
}

func (g *fakeGateway) results(id string) model.AnalysisResults {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.docs[id].AnalysisResults
}

type fakeCache struct {
	mu          sync.Mutex
	docs        map[string]*model.Document
	deleted     []string
	invalidated map[string]time.Time
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		docs:        make(map[string]*model.Document),
		invalidated: make(map[string]time.Time),
	}
}

func (c *fakeCache) Get(ctx context.Context, id string) (*model.Document, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.docs[id]
	return d, ok, nil
}

func (c *fakeCache) Set(ctx context.Context, doc *model.Document, readAt time.Time) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if inv, ok := c.invalidated[doc.ID]; ok && !inv.Before(readAt) {
		return false, nil
	}
	c.docs[doc.ID] = doc
	return true, nil
}

func (c *fakeCache) Delete(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.docs, id)
	c.deleted = append(c.deleted, id)
	c.invalidated[id] = time.Now()
	return nil
}

type fakeBlobs struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
	getErr  error
	removed []string
}

func newFakeBlobs() *fakeBlobs {
	return &fakeBlobs{objects: make(map[string][]byte)}
}

func (b *fakeBlobs) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if b.putErr != nil {
		return b.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = data
	return nil
}

func (b *fakeBlobs) Get(ctx context.Context, key string) ([]byte, error) {
	if b.getErr != nil {
		return nil, b.getErr
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	data, ok := b.objects[key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return data, nil
}

func (b *fakeBlobs) Remove(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, key)
	b.removed = append(b.removed, key)
	return nil
}

type fakePublisher struct {
	mu   sync.Mutex
	sent []model.AnalysisRequest
	err  error
}

func (p *fakePublisher) Publish(ctx context.Context, req model.AnalysisRequest) error {
	if p.err != nil {
		return p.err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, req)
	return nil
}

// stubInvoker answers from a per-type script and records what it saw.
type stubInvoker struct {
	mu          sync.Mutex
	calls       int
	invocations []analysis.Invocation
	ctxErrs     []error
	fail        map[model.AnalysisType]string
	delay       time.Duration
}

func (s *stubInvoker) Invoke(ctx context.Context, reg analysis.Registration, in analysis.Invocation) model.AnalysisOutcome {
	s.mu.Lock()
	s.calls++
	s.invocations = append(s.invocations, in)
	s.ctxErrs = append(s.ctxErrs, ctx.Err())
	msg, failing := s.fail[reg.Type]
	delay := s.delay
	s.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if failing {
		return model.FailedOutcome(reg.Type, msg)
	}
	payload, _ := json.Marshal(map[string]string{"type": string(reg.Type)})
	return model.CompletedOutcome(reg.Type, payload)
}

func (s *stubInvoker) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func coordinatorFor(invoker analysis.Invoker, types ...model.AnalysisType) *analysis.Coordinator {
	regs := make([]analysis.Registration, len(types))
	for i, t := range types {
		regs[i] = analysis.Registration{Type: t, URL: "http://analysis.test/" + string(t)}
	}
	return analysis.NewCoordinator(invoker, regs, analysis.CoordinatorConfig{})
}
