// Package persistence holds the in-memory tables behind an auth adapter: the
// Collection handles, the Registry that owns them, the TableMutator that
// reads and writes them, and the Persistence facade that adapters call.
package persistence

import (
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/asaidimu/go-events"
	"github.com/asaidimu/go-memtable/core/schema"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Persistence is the adapter-facing entry point. Every call resolves the
// model through the Registry, runs the TableMutator under the registry lock
// and reports the outcome on the event bus.
type Persistence struct {
	registry *Registry
	mutator  *TableMutator
	bus      *events.TypedEventBus[PersistenceEvent]
	logger   *zap.Logger
	debug    bool
	subs     *subscriptionSet
	tx       *transaction
}

// Option configures a Persistence.
type Option func(*Persistence)

// WithLogger sets the logger used for operation failures and debug output.
func WithLogger(logger *zap.Logger) Option {
	return func(p *Persistence) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithDebugLogs logs the input and output of every operation at debug level.
func WithDebugLogs(enabled bool) Option {
	return func(p *Persistence) {
		p.debug = enabled
	}
}

// WithMutator replaces the default TableMutator, e.g. to compile OR
// connectors in grouped mode.
func WithMutator(mutator *TableMutator) Option {
	return func(p *Persistence) {
		p.mutator = mutator
	}
}

// NewPersistence creates a new instance of the Persistence service over
// registry. A nil registry is replaced with one holding the default tables.
func NewPersistence(registry *Registry, opts ...Option) (*Persistence, error) {
	bus, err := events.NewTypedEventBus[PersistenceEvent](events.DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("could not initialize event bus: %w", err)
	}

	p := &Persistence{
		bus:    bus,
		logger: zap.NewNop(),
		subs:   &subscriptionSet{items: make(map[string]*SubscriptionInfo)},
	}
	for _, opt := range opts {
		opt(p)
	}

	if registry == nil {
		registry = NewRegistry(nil, p.logger)
	}
	p.registry = registry
	if p.mutator == nil {
		p.mutator = NewTableMutator(nil, p.logger)
	}
	return p, nil
}

// Registry returns the registry the service operates on.
func (p *Persistence) Registry() *Registry {
	return p.registry
}

// Collections returns the names of all registered tables, sorted.
func (p *Persistence) Collections() []string {
	return p.registry.Tables()
}

// Create inserts params.Data into the model's table and returns it,
// projected to params.Select when given.
func (p *Persistence) Create(params CreateParams) (schema.Document, error) {
	op := opInfo{name: opCreate, events: createEvents, broadcast: ItemsCreated}
	return execute(p, op, params.Model, params.Data, nil, func(c *Collection) (schema.Document, []schema.Document, error) {
		created, err := p.mutator.Create(c, params.Data)
		if err != nil {
			return nil, nil, err
		}
		if len(params.Select) > 0 {
			return created.Pick(params.Select...), []schema.Document{created.Clone()}, nil
		}
		return created, []schema.Document{created.Clone()}, nil
	})
}

// FindOne returns the first record matching params.Where, or nil.
func (p *Persistence) FindOne(params FindParams) (schema.Document, error) {
	op := opInfo{name: opFindOne, events: readEvents}
	return execute(p, op, params.Model, nil, params.Where, func(c *Collection) (schema.Document, []schema.Document, error) {
		found, err := p.mutator.FindOne(c, params.Where, params.Select)
		return found, nil, err
	})
}

// FindMany runs the filter, sort and pagination pipeline over the model's
// table.
func (p *Persistence) FindMany(params FindManyParams) ([]schema.Document, error) {
	op := opInfo{name: opFindMany, events: readEvents}
	opts := params.Options()
	return execute(p, op, params.Model, nil, opts, func(c *Collection) ([]schema.Document, []schema.Document, error) {
		found, err := p.mutator.FindMany(c, opts)
		return found, nil, err
	})
}

// Update merges params.Update into the first matching record.
func (p *Persistence) Update(params UpdateParams) (schema.Document, error) {
	op := opInfo{name: opUpdate, events: updateEvents, broadcast: ItemsUpdated}
	return execute(p, op, params.Model, params.Update, params.Where, func(c *Collection) (schema.Document, []schema.Document, error) {
		updated, err := p.mutator.Update(c, params.Where, params.Update)
		if err != nil {
			return nil, nil, err
		}
		return updated, []schema.Document{updated.Clone()}, nil
	})
}

// UpdateMany merges params.Update into every matching record and returns
// the number of records changed.
func (p *Persistence) UpdateMany(params UpdateParams) (int, error) {
	op := opInfo{name: opUpdateMany, events: updateEvents, broadcast: ItemsUpdated}
	return execute(p, op, params.Model, params.Update, params.Where, func(c *Collection) (int, []schema.Document, error) {
		updated, err := p.mutator.updateMatching(c, params.Where, params.Update, -1)
		return len(updated), updated, err
	})
}

// Delete removes the first matching record and returns 0 or 1.
func (p *Persistence) Delete(params DeleteParams) (int, error) {
	op := opInfo{name: opDelete, events: deleteEvents, broadcast: ItemsDeleted}
	return execute(p, op, params.Model, nil, params.Where, func(c *Collection) (int, []schema.Document, error) {
		removed, err := p.mutator.removeMatching(c, params.Where, 1)
		return len(removed), removed, err
	})
}

// DeleteMany removes every matching record and returns how many were removed.
func (p *Persistence) DeleteMany(params DeleteParams) (int, error) {
	op := opInfo{name: opDeleteMany, events: deleteEvents, broadcast: ItemsDeleted}
	return execute(p, op, params.Model, nil, params.Where, func(c *Collection) (int, []schema.Document, error) {
		removed, err := p.mutator.removeMatching(c, params.Where, -1)
		return len(removed), removed, err
	})
}

// Count returns the number of records matching params.Where.
func (p *Persistence) Count(params CountParams) (int, error) {
	op := opInfo{name: opCount, events: readEvents}
	return execute(p, op, params.Model, nil, params.Where, func(c *Collection) (int, []schema.Document, error) {
		n, err := p.mutator.Count(c, params.Where)
		return n, nil, err
	})
}

// Transact runs callback with exclusive access to every table. The tx
// handed to the callback must be used for all operations inside it; calling
// the outer Persistence from the callback blocks. When the callback returns
// an error or panics, every table it touched is restored and no items.*
// broadcasts are sent.
func (p *Persistence) Transact(callback func(tx *Persistence) error) error {
	if p.tx != nil {
		return callback(p)
	}

	start := time.Now()
	t := &transaction{id: uuid.New().String(), snapshots: make(map[*Collection][]schema.Document)}
	txp := &Persistence{
		registry: p.registry,
		mutator:  p.mutator,
		bus:      p.bus,
		logger:   p.logger.With(zap.String("transactionId", t.id)),
		debug:    p.debug,
		subs:     p.subs,
		tx:       t,
	}

	p.emit(t.stamp(createEvent(TransactionStart, opTransact, "", "", nil, nil, nil, nil, time.Time{})))

	err := p.registry.Exec(func() error {
		committed := false
		defer func() {
			if !committed {
				t.rollback()
			}
		}()

		if err := callback(txp); err != nil {
			return err
		}
		committed = true
		return nil
	})

	for _, ev := range t.pending {
		if err != nil && isBroadcast(ev.Type) {
			continue
		}
		p.emit(ev)
	}

	if err != nil {
		p.logger.Error("Transaction rolled back", zap.String("transactionId", t.id), zap.Error(err))
		p.emit(t.stamp(createEvent(TransactionFailed, opTransact, "", "", nil, nil, nil, errorString(err), start)))
		return err
	}
	p.emit(t.stamp(createEvent(TransactionSuccess, opTransact, "", "", nil, nil, nil, nil, start)))
	return nil
}

// RegisterSubscription registers a callback for a specific persistence event. It returns
// a unique ID that can be used to unregister the subscription later.
func (p *Persistence) RegisterSubscription(options RegisterSubscriptionOptions) string {
	unsubscribe := p.bus.Subscribe(string(options.Event), options.Callback)
	id := uuid.New().String()

	p.subs.add(id, &SubscriptionInfo{
		Id:          &id,
		Event:       options.Event,
		Label:       options.Label,
		Description: options.Description,
		Unsubscribe: unsubscribe,
	})

	p.emit(createEvent(SubscriptionRegister, "register_subscription", "", "",
		map[string]any{"event": options.Event, "label": options.Label, "description": options.Description},
		map[string]any{"subscriptionId": id},
		nil, nil, time.Time{},
	))
	return id
}

// UnregisterSubscription removes a subscription by its ID. Unknown IDs are
// ignored.
func (p *Persistence) UnregisterSubscription(id string) {
	if !p.subs.remove(id) {
		return
	}
	p.emit(createEvent(SubscriptionUnregister, "unregister_subscription", "", "",
		map[string]any{"subscriptionId": id}, nil, nil, nil, time.Time{},
	))
}

// Subscriptions returns a list of all currently active subscriptions.
func (p *Persistence) Subscriptions() ([]SubscriptionInfo, error) {
	return p.subs.list(), nil
}

// opInfo names an operation and the events it reports.
type opInfo struct {
	name      string
	events    eventTypes
	broadcast PersistenceEventType
}

// execute is the shared flow of every table operation: start event, model
// resolution, the operation itself under the registry lock, then the
// success or failure event and, for mutations, the items.* broadcast.
func execute[T any](
	p *Persistence,
	op opInfo,
	model string,
	input any,
	q any,
	fn func(c *Collection) (T, []schema.Document, error),
) (T, error) {
	start := time.Now()
	table, _ := p.registry.TableName(model)
	p.dispatch(createEvent(op.events.start, op.name, model, table, input, nil, q, nil, time.Time{}))

	var (
		result   T
		affected []schema.Document
	)
	run := func() error {
		c, err := p.registry.Resolve(model)
		if err != nil {
			return err
		}
		p.tx.track(c)
		result, affected, err = fn(c)
		return err
	}

	var err error
	if p.tx != nil {
		err = run()
	} else {
		err = p.registry.Exec(run)
	}

	if err != nil {
		p.logger.Error("Persistence operation failed",
			zap.String("operation", op.name),
			zap.String("model", model),
			zap.Error(err),
		)
		p.dispatch(createEvent(op.events.failed, op.name, model, table, input, nil, q, errorString(err), start))
		var zero T
		return zero, err
	}

	if p.debug {
		p.logger.Debug("Persistence operation completed",
			zap.String("operation", op.name),
			zap.String("model", model),
			zap.String("table", table),
			zap.Any("input", input),
			zap.Any("query", q),
			zap.Any("output", result),
		)
	}

	p.dispatch(createEvent(op.events.success, op.name, model, table, input, result, q, nil, start))
	if op.broadcast != "" && len(affected) > 0 {
		ev := createEvent(op.broadcast, op.name, model, table, nil, nil, nil, nil, time.Time{})
		ev.Records = affected
		p.dispatch(ev)
	}
	return result, nil
}

// dispatch emits ev now, or queues it until the surrounding transaction
// has released the registry.
func (p *Persistence) dispatch(ev PersistenceEvent) {
	if p.tx != nil {
		p.tx.pending = append(p.tx.pending, p.tx.stamp(ev))
		return
	}
	p.emit(ev)
}

func (p *Persistence) emit(ev PersistenceEvent) {
	if p.bus != nil {
		p.bus.Emit(string(ev.Type), ev)
	}
}

func isBroadcast(t PersistenceEventType) bool {
	return t == ItemsCreated || t == ItemsUpdated || t == ItemsDeleted
}

// transaction records the state needed to undo the tables touched inside
// Transact and the events held back until it ends.
type transaction struct {
	id        string
	snapshots map[*Collection][]schema.Document
	pending   []PersistenceEvent
}

// track snapshots c the first time the transaction touches it. It is a
// no-op outside a transaction.
func (t *transaction) track(c *Collection) {
	if t == nil {
		return
	}
	if _, ok := t.snapshots[c]; !ok {
		t.snapshots[c] = c.snapshot()
	}
}

func (t *transaction) rollback() {
	for c, records := range t.snapshots {
		c.Reset(records)
	}
}

func (t *transaction) stamp(ev PersistenceEvent) PersistenceEvent {
	id := t.id
	ev.TransactionID = &id
	return ev
}

type subscriptionSet struct {
	mu    sync.RWMutex
	items map[string]*SubscriptionInfo
}

func (s *subscriptionSet) add(id string, info *SubscriptionInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[id] = info
}

func (s *subscriptionSet) remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, ok := s.items[id]
	if !ok {
		return false
	}
	if info.Unsubscribe != nil {
		info.Unsubscribe()
	}
	delete(s.items, id)
	return true
}

// list returns the subscriptions ordered by id.
func (s *subscriptionSet) list() []SubscriptionInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	subs := make([]SubscriptionInfo, 0, len(s.items))
	for _, id := range slices.Sorted(maps.Keys(s.items)) {
		subs = append(subs, *s.items[id])
	}
	return subs
}
