package domain

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// UserStore links a user to a store with a 1-based priority rank.
// Priority 1 is the user's primary store.
type UserStore struct {
	UserID           string
	StoreID          string
	Priority         int
	Active           bool
	MaxDeliveryFee   decimal.NullDecimal
	MaxDistanceMiles float64
	Notes            string
	AddedAt          time.Time
}

func (u UserStore) IsPrimary() bool {
	return u.Priority == 1
}

// Ledger is one user's ranked store list. Priorities must form a dense
// sequence 1..N with no gaps or duplicates; every mutation either preserves
// that invariant or returns an error leaving the ledger untouched.
type Ledger []UserStore

func (l Ledger) indexOf(storeID string) int {
	for i := range l {
		if l[i].StoreID == storeID {
			return i
		}
	}
	return -1
}

func (l Ledger) indexOfPriority(priority int) int {
	for i := range l {
		if l[i].Priority == priority {
			return i
		}
	}
	return -1
}

func (l Ledger) sortByPriority() {
	sort.Slice(l, func(i, j int) bool { return l[i].Priority < l[j].Priority })
}

// Insert adds a store. requestedPriority 0 means append after the current
// lowest rank; an explicit priority shifts every rank at or below it down by
// one slot first.
func (l *Ledger) Insert(entry UserStore, requestedPriority int) error {
	if l.indexOf(entry.StoreID) >= 0 {
		return fmt.Errorf("%w: user already has store %s", ErrConflict, entry.StoreID)
	}
	if requestedPriority < 0 || requestedPriority > len(*l)+1 {
		return fmt.Errorf("%w: priority %d out of range 1..%d", ErrInvalidArgument, requestedPriority, len(*l)+1)
	}

	if requestedPriority == 0 {
		entry.Priority = len(*l) + 1
	} else {
		for i := range *l {
			if (*l)[i].Priority >= requestedPriority {
				(*l)[i].Priority++
			}
		}
		entry.Priority = requestedPriority
	}

	*l = append(*l, entry)
	l.sortByPriority()
	return nil
}

// Remove deletes the store's entry and closes the gap it leaves.
func (l *Ledger) Remove(storeID string) error {
	idx := l.indexOf(storeID)
	if idx < 0 {
		return fmt.Errorf("%w: user has no store %s", ErrNotFound, storeID)
	}

	removed := (*l)[idx].Priority
	*l = append((*l)[:idx], (*l)[idx+1:]...)
	for i := range *l {
		if (*l)[i].Priority > removed {
			(*l)[i].Priority--
		}
	}
	l.sortByPriority()
	return nil
}

// PromoteToPrimary swaps the store's rank with the current primary. The set
// of priorities in use does not change.
func (l *Ledger) PromoteToPrimary(storeID string) error {
	idx := l.indexOf(storeID)
	if idx < 0 {
		return fmt.Errorf("%w: user has no store %s", ErrNotFound, storeID)
	}
	if (*l)[idx].Priority == 1 {
		return nil
	}

	current := l.indexOfPriority(1)
	if current >= 0 {
		(*l)[current].Priority = (*l)[idx].Priority
	}
	(*l)[idx].Priority = 1
	l.sortByPriority()
	return nil
}

// Reorder assigns priorities from the position of each store in storeIDs.
// The input must be an exact permutation of the ledger's store IDs.
func (l *Ledger) Reorder(storeIDs []string) error {
	if len(storeIDs) != len(*l) {
		return fmt.Errorf("%w: got %d store ids, ledger has %d", ErrInvalidArgument, len(storeIDs), len(*l))
	}

	ranks := make(map[string]int, len(storeIDs))
	for i, id := range storeIDs {
		if _, dup := ranks[id]; dup {
			return fmt.Errorf("%w: duplicate store id %s", ErrInvalidArgument, id)
		}
		if l.indexOf(id) < 0 {
			return fmt.Errorf("%w: store %s is not in the user's ledger", ErrInvalidArgument, id)
		}
		ranks[id] = i + 1
	}

	for i := range *l {
		(*l)[i].Priority = ranks[(*l)[i].StoreID]
	}
	l.sortByPriority()
	return nil
}

// ActiveByPriority returns the active entries in rank order.
func (l Ledger) ActiveByPriority() Ledger {
	out := make(Ledger, 0, len(l))
	for _, e := range l {
		if e.Active {
			out = append(out, e)
		}
	}
	out.sortByPriority()
	return out
}

// Primary returns the best-ranked active entry, if any.
func (l Ledger) Primary() (UserStore, bool) {
	active := l.ActiveByPriority()
	if len(active) == 0 {
		return UserStore{}, false
	}
	return active[0], true
}

// Entry returns a pointer to the entry for storeID so callers can update
// per-store preferences in place.
func (l Ledger) Entry(storeID string) (*UserStore, bool) {
	idx := l.indexOf(storeID)
	if idx < 0 {
		return nil, false
	}
	return &l[idx], true
}

// Validate checks the dense-priority invariant.
func (l Ledger) Validate() error {
	seen := make(map[int]bool, len(l))
	for _, e := range l {
		if e.Priority < 1 || e.Priority > len(l) {
			return fmt.Errorf("%w: priority %d outside 1..%d", ErrInvalidArgument, e.Priority, len(l))
		}
		if seen[e.Priority] {
			return fmt.Errorf("%w: duplicate priority %d", ErrInvalidArgument, e.Priority)
		}
		seen[e.Priority] = true
	}
	return nil
}
