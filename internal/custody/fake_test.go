package custody

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/erazemk/orodjarna/internal/model"
)

// memStore is an in-memory RecordStore with failure injection.
type memStore struct {
	mu    sync.Mutex
	tools []model.Tool

	searches int
	patches  int

	// searchErrs is consumed one entry per Search call.
	searchErrs []error
	patchErrs  map[int64]error
	// hang makes Search block until its context ends.
	hang bool
}

func newMemStore(tools ...model.Tool) *memStore {
	return &memStore{tools: tools, patchErrs: map[int64]error{}}
}

func (m *memStore) Search(ctx context.Context, f model.ToolFilter) ([]model.Tool, error) {
	m.mu.Lock()
	m.searches++
	hang := m.hang
	var err error
	if len(m.searchErrs) > 0 {
		err, m.searchErrs = m.searchErrs[0], m.searchErrs[1:]
	}
	m.mu.Unlock()

	if hang {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Tool
	for _, t := range m.tools {
		var v string
		switch f.Field {
		case model.FieldCode:
			v = t.Code
		case model.FieldName:
			v = t.Name
		case model.FieldHolder:
			v = t.Holder
		}
		if f.Match == model.MatchEquals && v == f.Value ||
			f.Match == model.MatchContains && strings.Contains(strings.ToLower(v), strings.ToLower(f.Value)) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memStore) Patch(ctx context.Context, id int64, u model.ToolUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.patches++
	if err := m.patchErrs[id]; err != nil {
		return err
	}
	for i := range m.tools {
		if m.tools[i].ID == id {
			m.tools[i].Holder = u.Holder
			m.tools[i].Location = u.Location
			m.tools[i].LastUpdated = u.LastUpdated.Format(model.DateLayout)
			return nil
		}
	}
	return model.ErrToolNotFound
}

func (m *memStore) tool(id int64) model.Tool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tools {
		if t.ID == id {
			return t
		}
	}
	return model.Tool{}
}

func fastPolicy() Policy {
	return Policy{
		Timeout:   time.Second,
		Attempts:  2,
		BaseDelay: time.Millisecond,
		MaxDelay:  2 * time.Millisecond,
	}
}

func sampleTools() []model.Tool {
	return []model.Tool{
		{ID: 1, Code: "101", Name: "Aluminium ladder", Holder: "Alice", Location: "Alice"},
		{ID: 2, Code: "102", Name: "Cordless drill", Holder: "Alice", Location: "Alice"},
		{ID: 3, Code: "103", Name: "Step ladder", Holder: "Storage", Location: "Storage"},
	}
}
