// Package ledger holds the ordered set of account balances committed by the
// proof of reserve.
package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
)

var (
	// ErrDuplicateID is returned when two records share the same account id.
	ErrDuplicateID = errors.New("duplicate account id")
	// ErrNotFound is returned when an account id is not part of the ledger.
	ErrNotFound = errors.New("account not found")
)

// Record is the balance of one account.
type Record struct {
	ID      uint64 `json:"id"`
	Balance uint64 `json:"balance"`
}

// Serialize returns the canonical form of the record, "(id,balance)" with
// both integers in non padded decimal.
func (r Record) Serialize() []byte {
	b := make([]byte, 0, 44)
	b = append(b, '(')
	b = strconv.AppendUint(b, r.ID, 10)
	b = append(b, ',')
	b = strconv.AppendUint(b, r.Balance, 10)
	return append(b, ')')
}

func (r Record) String() string {
	return string(r.Serialize())
}

// Ledger is an ordered, immutable list of records with unique ids. The
// position of a record is its leaf index in the commitment.
type Ledger struct {
	records []Record
	index   map[uint64]int
}

// New returns a Ledger keeping the order of records. The slice is copied.
func New(records []Record) (*Ledger, error) {
	l := &Ledger{
		records: make([]Record, len(records)),
		index:   make(map[uint64]int, len(records)),
	}
	copy(l.records, records)
	for i, r := range l.records {
		if j, ok := l.index[r.ID]; ok {
			return nil, fmt.Errorf("%w: %d at positions %d and %d", ErrDuplicateID, r.ID, j, i)
		}
		l.index[r.ID] = i
	}
	return l, nil
}

// Default returns the sample accounts served when no ledger file is given.
func Default() *Ledger {
	l, err := New([]Record{
		{ID: 1, Balance: 100},
		{ID: 2, Balance: 200},
		{ID: 3, Balance: 300},
		{ID: 4, Balance: 400},
		{ID: 5, Balance: 500},
	})
	if err != nil {
		panic(err)
	}
	return l
}

// Load reads a JSON array of records, such as [{"id":1,"balance":100}].
func Load(r io.Reader) (*Ledger, error) {
	var records []Record
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&records); err != nil {
		return nil, fmt.Errorf("cannot decode ledger: %w", err)
	}
	return New(records)
}

// LoadFile reads the ledger stored as JSON at path.
func LoadFile(path string) (*Ledger, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

// Len returns the number of accounts.
func (l *Ledger) Len() int {
	return len(l.records)
}

// IndexOf returns the position of the account id.
func (l *Ledger) IndexOf(id uint64) (int, bool) {
	i, ok := l.index[id]
	return i, ok
}

// Get returns the record and position of the account id.
func (l *Ledger) Get(id uint64) (Record, int, error) {
	i, ok := l.index[id]
	if !ok {
		return Record{}, -1, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return l.records[i], i, nil
}

// At returns the record at position i. It panics if i is out of range.
func (l *Ledger) At(i int) Record {
	return l.records[i]
}

// Records returns a copy of the records in order.
func (l *Ledger) Records() []Record {
	r := make([]Record, len(l.records))
	copy(r, l.records)
	return r
}

// Leaves returns the canonical serialization of every record, in order.
func (l *Ledger) Leaves() [][]byte {
	leaves := make([][]byte, len(l.records))
	for i, r := range l.records {
		leaves[i] = r.Serialize()
	}
	return leaves
}

// TotalBalance returns the sum of all balances. The second value is false if
// the sum overflows uint64.
func (l *Ledger) TotalBalance() (uint64, bool) {
	var total uint64
	for _, r := range l.records {
		if total+r.Balance < total {
			return 0, false
		}
		total += r.Balance
	}
	return total, true
}
