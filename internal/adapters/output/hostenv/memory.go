// Package hostenv provides an in-memory ports.HostEnvironment used by the
// demo command and by tests: a stand-in for the real flow-engine host
// described in spec.md §6, supplementing the spec with a runnable example
// since no Non-goal excludes having a demo host.
package hostenv

import (
	"context"
	"fmt"
	"sync"

	"echo-hue-bridge/internal/ports"
)

// demoSink records what it receives, remembering the last payload per topic,
// enough to prove dispatch reached the right device in tests and demos.
type demoSink struct {
	mu   sync.Mutex
	last map[string]interface{}
}

func newDemoSink() *demoSink {
	return &demoSink{last: make(map[string]interface{})}
}

func (s *demoSink) Receive(ctx context.Context, topic string, payload interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last[topic] = payload
	return nil
}

func (s *demoSink) Last(topic string) (interface{}, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.last[topic]
	return v, ok
}

type node struct {
	record ports.NodeRecord
	sink   *demoSink
}

// Memory is a concurrency-safe, single-process ports.HostEnvironment backed
// by a map. It supports multiple hubs by namespacing nodes under hubID.
type Memory struct {
	mu    sync.RWMutex
	byHub map[string][]string // hubID -> node ids, in registration order
	nodes map[string]node
	types map[string]func() ports.Sink
}

func New() *Memory {
	return &Memory{
		byHub: make(map[string][]string),
		nodes: make(map[string]node),
		types: make(map[string]func() ports.Sink),
	}
}

func (m *Memory) RegisterType(nodeType string, factory func() ports.Sink) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.types[nodeType] = factory
	return nil
}

// CreateNode adds a node under hubID using a demo sink unless nodeType was
// registered with a custom factory.
func (m *Memory) CreateNode(ctx context.Context, nodeType, id, hubID, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.nodes[id]; exists {
		return fmt.Errorf("hostenv: node %q already exists", id)
	}

	n := node{record: ports.NodeRecord{ID: id, Type: nodeType, Name: name}}
	if factory, ok := m.types[nodeType]; ok {
		if sink, ok := factory().(*demoSink); ok {
			n.sink = sink
		}
	} else {
		n.sink = newDemoSink()
	}

	m.nodes[id] = n
	m.byHub[hubID] = append(m.byHub[hubID], id)
	return nil
}

func (m *Memory) IterateNodes(ctx context.Context, hubID string, visit func(ports.NodeRecord)) error {
	m.mu.RLock()
	ids := append([]string(nil), m.byHub[hubID]...)
	records := make([]ports.NodeRecord, 0, len(ids))
	for _, id := range ids {
		records = append(records, m.nodes[id].record)
	}
	m.mu.RUnlock()

	for _, r := range records {
		visit(r)
	}
	return nil
}

func (m *Memory) GetNode(ctx context.Context, id string) (ports.Sink, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n, ok := m.nodes[id]
	if !ok || n.sink == nil {
		return nil, false
	}
	return n.sink, true
}

// LastPayload is a test/demo convenience: inspect what the last dispatched
// event on a topic looked like for a given node.
func (m *Memory) LastPayload(id, topic string) (interface{}, bool) {
	m.mu.RLock()
	n, ok := m.nodes[id]
	m.mu.RUnlock()
	if !ok || n.sink == nil {
		return nil, false
	}
	return n.sink.Last(topic)
}
