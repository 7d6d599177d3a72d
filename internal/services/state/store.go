package state

import (
	"sync"
	"time"

	"github.com/iwtcode/servoSweep/internal/domain/models"
)

// entry разделяет поля по владельцам: снимок телеметрии пишет только внешний
// источник телеметрии, последнюю команду пишет только планировщик устройства.
type entry struct {
	telemetryMu sync.RWMutex
	snapshot    models.Snapshot
	observedAt  time.Time

	commandMu       sync.RWMutex
	lastCommanded   *int
	lastCommandedAt time.Time

	discovered bool
}

// Store - общее хранилище последнего известного состояния устройств.
type Store struct {
	mu      sync.RWMutex
	entries map[models.DeviceID]*entry
	order   []models.DeviceID
}

func NewStore() *Store {
	return &Store{entries: make(map[models.DeviceID]*entry)}
}

// Discover отмечает устройства как найденные на шине и возвращает те,
// что найдены впервые. Порядок первого обнаружения сохраняется.
func (s *Store) Discover(ids []models.DeviceID) []models.DeviceID {
	s.mu.Lock()
	defer s.mu.Unlock()

	var added []models.DeviceID
	for _, id := range ids {
		e, ok := s.entries[id]
		if !ok {
			e = &entry{snapshot: models.Snapshot{}}
			s.entries[id] = e
		}
		if e.discovered {
			continue
		}
		e.discovered = true
		s.order = append(s.order, id)
		added = append(added, id)
	}
	return added
}

// Discovered возвращает найденные устройства в порядке первого обнаружения.
func (s *Store) Discovered() []models.DeviceID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.DeviceID, len(s.order))
	copy(out, s.order)
	return out
}

// Has сообщает, было ли устройство обнаружено.
func (s *Store) Has(id models.DeviceID) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[id]
	return ok && e.discovered
}

func (s *Store) getOrCreate(id models.DeviceID) *entry {
	s.mu.RLock()
	e, ok := s.entries[id]
	s.mu.RUnlock()
	if ok {
		return e
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok = s.entries[id]; ok {
		return e
	}
	e = &entry{snapshot: models.Snapshot{}}
	s.entries[id] = e
	return e
}

// Observe объединяет обновление телеметрии со снимком устройства (последняя запись побеждает).
func (s *Store) Observe(id models.DeviceID, update models.Snapshot, at time.Time) {
	e := s.getOrCreate(id)
	e.telemetryMu.Lock()
	defer e.telemetryMu.Unlock()
	for k, v := range update {
		e.snapshot[k] = v
	}
	e.observedAt = at
}

// RecordCommand запоминает последнюю успешно отправленную целевую позицию.
func (s *Store) RecordCommand(id models.DeviceID, target int, at time.Time) {
	e := s.getOrCreate(id)
	e.commandMu.Lock()
	defer e.commandMu.Unlock()
	v := target
	e.lastCommanded = &v
	e.lastCommandedAt = at
}

// View возвращает копию состояния устройства.
func (s *Store) View(id models.DeviceID) (models.DeviceView, bool) {
	s.mu.RLock()
	e, ok := s.entries[id]
	var discovered bool
	if ok {
		discovered = e.discovered
	}
	s.mu.RUnlock()
	if !ok {
		return models.DeviceView{DeviceID: id, Telemetry: models.Snapshot{}}, false
	}

	view := models.DeviceView{DeviceID: id, Discovered: discovered}

	e.commandMu.RLock()
	if e.lastCommanded != nil {
		v := *e.lastCommanded
		at := e.lastCommandedAt
		view.LastCommanded = &v
		view.LastCommandedAt = &at
	}
	e.commandMu.RUnlock()

	e.telemetryMu.RLock()
	view.Telemetry = e.snapshot.Clone()
	if !e.observedAt.IsZero() {
		at := e.observedAt
		view.ObservedAt = &at
	}
	e.telemetryMu.RUnlock()

	return view, true
}

// Views возвращает состояние всех устройств: сначала найденные в порядке
// обнаружения, затем известные только по телеметрии или командам.
func (s *Store) Views() []models.DeviceView {
	s.mu.RLock()
	ids := make([]models.DeviceID, 0, len(s.entries))
	ids = append(ids, s.order...)
	for id, e := range s.entries {
		if !e.discovered {
			ids = append(ids, id)
		}
	}
	s.mu.RUnlock()

	views := make([]models.DeviceView, 0, len(ids))
	for _, id := range ids {
		if v, ok := s.View(id); ok {
			views = append(views, v)
		}
	}
	return views
}
