package core

import "slices"

// Rooms is the ordered set of rooms. Iteration order is insertion order
// until Reorder is called.
type Rooms struct {
	byID  map[string]*Room
	order []string
}

// NewRooms creates an empty set.
func NewRooms() *Rooms {
	return &Rooms{byID: make(map[string]*Room)}
}

// Add inserts a room. A room with the same id is replaced in place.
func (rs *Rooms) Add(r *Room) {
	if _, ok := rs.byID[r.ID]; !ok {
		rs.order = append(rs.order, r.ID)
	}
	rs.byID[r.ID] = r
}

// Get returns the room with id, or nil.
func (rs *Rooms) Get(id string) *Room {
	return rs.byID[id]
}

// Delete removes a room. Returns true if removed.
func (rs *Rooms) Delete(id string) bool {
	if _, ok := rs.byID[id]; !ok {
		return false
	}
	delete(rs.byID, id)
	rs.order = slices.DeleteFunc(rs.order, func(s string) bool { return s == id })
	return true
}

// All returns every room in order.
func (rs *Rooms) All() []*Room {
	out := make([]*Room, 0, len(rs.order))
	for _, id := range rs.order {
		out = append(out, rs.byID[id])
	}
	return out
}

// Open returns the open rooms in order.
func (rs *Rooms) Open() []*Room {
	out := make([]*Room, 0, len(rs.order))
	for _, id := range rs.order {
		if r := rs.byID[id]; r.Open {
			out = append(out, r)
		}
	}
	return out
}

// Len is the number of rooms.
func (rs *Rooms) Len() int {
	return len(rs.order)
}

// Reorder moves the listed ids to the front in the given order. Unknown and
// repeated ids are ignored; unlisted rooms keep their relative order.
func (rs *Rooms) Reorder(ids []string) {
	seen := make(map[string]struct{}, len(ids))
	order := make([]string, 0, len(rs.order))
	for _, id := range ids {
		if _, ok := rs.byID[id]; !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		order = append(order, id)
	}
	for _, id := range rs.order {
		if _, ok := seen[id]; !ok {
			order = append(order, id)
		}
	}
	rs.order = order
}
