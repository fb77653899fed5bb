package session

import (
	"context"
	"sync"

	"text2phenotype.com/sdoh/types"
)

type events struct {
	mu  sync.Mutex
	log []string
}

func (e *events) add(event string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.log = append(e.log, event)
}

func (e *events) all() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.log...)
}

type patchCall struct {
	token   string
	payload types.UpdatePayload
}

type serviceMock struct {
	events *events

	mu          sync.Mutex
	fetchResp   *types.ScreeningResponse
	fetchErr    error
	patchErr    error
	patchCalls  []patchCall
	patchGate   chan struct{}
	submitResp  *types.SubmitResponse
	submitErr   error
	submitCalls int
}

func (m *serviceMock) Fetch(_ context.Context, _ string) (*types.ScreeningResponse, error) {
	m.events.add("fetch")
	return m.fetchResp, m.fetchErr
}

func (m *serviceMock) Patch(_ context.Context, token string, payload types.UpdatePayload) error {
	if m.patchGate != nil {
		<-m.patchGate
	}
	m.events.add("patch")
	m.mu.Lock()
	defer m.mu.Unlock()
	m.patchCalls = append(m.patchCalls, patchCall{token: token, payload: payload})
	return m.patchErr
}

func (m *serviceMock) Submit(_ context.Context, _ string) (*types.SubmitResponse, error) {
	m.events.add("submit")
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submitCalls++
	return m.submitResp, m.submitErr
}

func (m *serviceMock) patches() []patchCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]patchCall(nil), m.patchCalls...)
}

type cacheMock struct {
	events *events

	mu        sync.Mutex
	snapshots map[string]types.Snapshot
	loadErr   error
	saveErr   error
	cleared   []string
}

func newCacheMock(e *events) *cacheMock {
	return &cacheMock{events: e, snapshots: map[string]types.Snapshot{}}
}

func (m *cacheMock) Save(_ context.Context, token string, snapshot types.Snapshot) error {
	m.events.add("cache.save")
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.snapshots[token] = snapshot
	return nil
}

func (m *cacheMock) Load(_ context.Context, token string) (*types.Snapshot, error) {
	m.events.add("cache.load")
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	snapshot, ok := m.snapshots[token]
	if !ok {
		return nil, nil
	}
	return &snapshot, nil
}

func (m *cacheMock) Clear(_ context.Context, token string) error {
	m.events.add("cache.clear")
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.snapshots, token)
	m.cleared = append(m.cleared, token)
	return nil
}
