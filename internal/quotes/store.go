package quotes

import "sync"

// Store holds the single quote a session works on. Reads return copies;
// writes are reserved to the session and its mutation service.
type Store struct {
	mu    sync.RWMutex
	quote *Quote
}

func NewStore() *Store {
	return &Store{}
}

// Snapshot returns a copy of the held quote.
func (s *Store) Snapshot() (Quote, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.quote == nil {
		return Quote{}, false
	}
	return s.quote.clone(), true
}

// Serial returns the held quote's serial, zero when empty.
func (s *Store) Serial() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.quote == nil {
		return 0
	}
	return s.quote.Serial
}

func (s *Store) replace(q Quote) {
	q = q.clone()
	q.Skills = positive(q.Skills)
	q.Equipment = positive(q.Equipment)
	s.mu.Lock()
	s.quote = &q
	s.mu.Unlock()
}

func (s *Store) reset() {
	s.mu.Lock()
	s.quote = nil
	s.mu.Unlock()
}

func (s *Store) update(fn func(q *Quote)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.quote == nil {
		return false
	}
	fn(s.quote)
	return true
}

// setResourceCount replaces the count of the item, inserting it when absent,
// and then drops every item whose count is no longer positive.
func (s *Store) setResourceCount(kind ResourceKind, serial int64, name string, count int) {
	s.update(func(q *Quote) {
		items := q.Resources(kind)
		found := false
		for i := range items {
			if items[i].Serial == serial {
				items[i].Count = count
				if name != "" {
					items[i].Name = name
				}
				found = true
			}
		}
		if !found && count > 0 {
			items = append(items, ResourceItem{Kind: kind, Serial: serial, Name: name, Count: count})
		}
		q.setResources(kind, positive(items))
	})
}

func (s *Store) removeResource(kind ResourceKind, serial int64) {
	s.update(func(q *Quote) {
		items := q.Resources(kind)
		kept := items[:0:0]
		for _, item := range items {
			if item.Serial != serial {
				kept = append(kept, item)
			}
		}
		q.setResources(kind, positive(kept))
	})
}

func (s *Store) removeQuoteWorkPackages(serials ...int64) {
	drop := make(map[int64]struct{}, len(serials))
	for _, serial := range serials {
		drop[serial] = struct{}{}
	}
	s.update(func(q *Quote) {
		kept := q.QuoteWorkPackages[:0:0]
		for _, a := range q.QuoteWorkPackages {
			if _, ok := drop[a.Serial]; !ok {
				kept = append(kept, a)
			}
		}
		q.QuoteWorkPackages = kept
	})
}

func (s *Store) setScalars(v scalarValues) {
	s.update(func(q *Quote) {
		q.Hours = v.Hours
		q.Priority = v.Priority
		q.NotBefore = cloneDate(v.NotBefore)
		q.NiceToHaveBy = cloneDate(v.NiceToHaveBy)
		q.MustCompleteBy = cloneDate(v.MustCompleteBy)
		q.Blackout = v.Blackout
	})
}

func (q *Quote) setResources(kind ResourceKind, items []ResourceItem) {
	if kind == KindEquipment {
		q.Equipment = items
		return
	}
	q.Skills = items
}

func positive(items []ResourceItem) []ResourceItem {
	out := make([]ResourceItem, 0, len(items))
	for _, item := range items {
		if item.Count > 0 {
			out = append(out, item)
		}
	}
	return out
}

func indexAssignment(list []WorkPackageAssignment, serial int64) int {
	for i, a := range list {
		if a.Serial == serial {
			return i
		}
	}
	return -1
}
