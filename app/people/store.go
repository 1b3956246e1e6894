package people

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Person is a stored person.
type Person struct {
	ID         int    `json:"person_id"`
	FirstName  string `json:"first_name"`
	SecondName string `json:"second_name"`
	Age        int    `json:"age"`
}

// ErrDisconnected is returned by a Connection used outside its open scope.
var ErrDisconnected = errors.New("people: connection is not open")

// Database is what the store needs from a connection.
type Database interface {
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context) error
	FetchOne(ctx context.Context, id int) (Person, bool, error)
	Insert(ctx context.Context, p Person) (int, error)
}

// ── Connection ───────────────────────────────────────────────────────────────

// PoolOptions sizes the connection pool.
type PoolOptions struct {
	MinSize int
	MaxSize int
}

// Connection is an in-memory stand-in for a pooled database connection.
type Connection struct {
	dsn  string
	pool PoolOptions

	mu        sync.Mutex
	connected bool
	rows      map[int]Person
	nextID    int
}

// NewConnection prepares a connection to dsn. It does not connect.
func NewConnection(dsn string, pool PoolOptions) (*Connection, error) {
	if pool.MinSize > pool.MaxSize {
		return nil, fmt.Errorf("people: pool min size %d exceeds max size %d", pool.MinSize, pool.MaxSize)
	}
	return &Connection{dsn: dsn, pool: pool, rows: map[int]Person{}, nextID: 1}, nil
}

func (c *Connection) Connect(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = true
	return nil
}

func (c *Connection) Disconnect(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = false
	return nil
}

// Connected reports whether the connection is open.
func (c *Connection) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *Connection) FetchOne(_ context.Context, id int) (Person, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected {
		return Person{}, false, ErrDisconnected
	}
	p, ok := c.rows[id]
	return p, ok, nil
}

func (c *Connection) Insert(_ context.Context, p Person) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.connected {
		return 0, ErrDisconnected
	}
	p.ID = c.nextID
	c.nextID++
	c.rows[p.ID] = p
	return p.ID, nil
}

// IDs lists the stored ids in ascending order.
func (c *Connection) IDs() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]int, 0, len(c.rows))
	for id := range c.rows {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// ── Store ────────────────────────────────────────────────────────────────────

// Store is the people repository. As a container resource it connects on
// Enter and disconnects on Exit.
type Store struct {
	db Database
}

// NewStore wraps db.
func NewStore(db Database) *Store {
	return &Store{db: db}
}

func (s *Store) Enter(ctx context.Context) (any, error) {
	if err := s.db.Connect(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Exit(ctx context.Context, _ error) error {
	return s.db.Disconnect(ctx)
}

// FetchPerson returns the person with id, or false if there is none.
func (s *Store) FetchPerson(ctx context.Context, id int) (Person, bool, error) {
	return s.db.FetchOne(ctx, id)
}

// InsertPerson stores p and returns its new id.
func (s *Store) InsertPerson(ctx context.Context, p Person) (int, error) {
	return s.db.Insert(ctx, p)
}
