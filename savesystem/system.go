// Package savesystem ties the identity, capture, codec and storage layers
// together into the controller host applications talk to.
package savesystem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	goerrors "github.com/pixil98/go-errors"
	"github.com/pixil98/go-savestate/capture"
	"github.com/pixil98/go-savestate/codec"
	"github.com/pixil98/go-savestate/convert"
	"github.com/pixil98/go-savestate/identity"
	"github.com/pixil98/go-savestate/internal/driver"
	"github.com/pixil98/go-savestate/internal/errlist"
	"github.com/pixil98/go-savestate/internal/storage"
	"github.com/pixil98/go-savestate/schema"
	"github.com/pixil98/go-savestate/snapshot"
	"github.com/pixil98/go-service"
	"golang.org/x/sync/errgroup"
)

// Entity is a live object the system can persist. Embedding an
// identity.Holder provides both methods identity needs.
type Entity interface {
	capture.Entity
	IdentityHolder() *identity.Holder
}

// Options configures a System.
type Options struct {
	Types *schema.Registry
	// Converters defaults to convert.Default().
	Converters *convert.Registry
	Slot       storage.Slot
	AppVersion snapshot.Version
	// Identities is shared with other systems when set; a private registry
	// is created otherwise.
	Identities *identity.Registry

	// AutosaveInterval enables periodic saves from Tick. Zero disables them.
	AutosaveInterval time.Duration
	// TickInterval is how often Start calls Tick.
	TickInterval time.Duration

	// OnComplete is called from the write goroutine after every durable
	// write or delete.
	OnComplete func(storage.Result)
	// Workers are run alongside the system by Start.
	Workers []service.Worker
}

func (o *Options) validate() error {
	el := goerrors.NewErrorList()

	if o.Types == nil {
		el.Add(ErrMissingTypes)
	}
	if o.Slot == nil {
		el.Add(ErrMissingSlot)
	}
	if o.AutosaveInterval < 0 {
		el.Add(fmt.Errorf("autosave: %w", ErrNegativeInterval))
	}
	if o.TickInterval < 0 {
		el.Add(fmt.Errorf("tick: %w", ErrNegativeInterval))
	}

	return el.Err()
}

// System owns the cached profile and the set of live entities. Its methods
// may be called from any goroutine; when Start is running, autosaves capture
// entities from the driver goroutine.
type System struct {
	codec    *codec.Codec
	engine   *capture.Engine
	ids      *identity.Registry
	pipeline *storage.Pipeline
	driver   *driver.Driver
	workers  []service.Worker

	appVersion       snapshot.Version
	autosaveInterval time.Duration
	now              func() time.Time

	mu       sync.Mutex
	entities []Entity
	profile  *snapshot.Profile
	hasSave  bool
	loaded   bool
	lastSave time.Time
}

var _ service.Worker = (*System)(nil)

func New(opts Options) (*System, error) {
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("validating options: %w", err)
	}

	converters := opts.Converters
	if converters == nil {
		converters = convert.Default()
	}
	ids := opts.Identities
	if ids == nil {
		ids = identity.NewRegistry()
	}

	var pipelineOpts []storage.PipelineOpt
	if opts.OnComplete != nil {
		pipelineOpts = append(pipelineOpts, storage.WithOnComplete(opts.OnComplete))
	}

	s := &System{
		codec:            codec.New(opts.Types, converters),
		engine:           capture.NewEngine(opts.Types),
		ids:              ids,
		pipeline:         storage.NewPipeline(opts.Slot, pipelineOpts...),
		workers:          opts.Workers,
		appVersion:       opts.AppVersion,
		autosaveInterval: opts.AutosaveInterval,
		now:              time.Now,
	}
	s.profile = s.emptyProfile()

	var driverOpts []driver.DriverOpt
	if opts.TickInterval > 0 {
		driverOpts = append(driverOpts, driver.WithTickLength(opts.TickInterval))
	}
	s.driver = driver.NewDriver([]driver.Manager{s}, driverOpts...)

	return s, nil
}

// RegisterEntity starts tracking ent. Its generated identity is claimed,
// and regenerated if another live entity already holds it, then its state is
// restored from the cached profile. Entities with no saved instance, or an
// invalid identity, keep their defaults but still see OnRestore.
func (s *System) RegisterEntity(ent Entity) error {
	if ent == nil {
		return ErrNilEntity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	h := ent.IdentityHolder()
	if s.indexOf(h) >= 0 {
		return fmt.Errorf("%s: %w", h.Identity(), ErrAlreadyRegistered)
	}

	h.Claim(s.ids)
	s.entities = append(s.entities, ent)

	return s.restore(ent)
}

// UnregisterEntity stops tracking ent. Its saved instance stays in the
// cached profile.
func (s *System) UnregisterEntity(ent Entity) {
	if ent == nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.unregister(ent)
}

// RetireEntity captures ent one last time and stops tracking it. Use it when
// an entity is about to be destroyed so its latest state reaches the next
// save.
func (s *System) RetireEntity(ent Entity) error {
	if ent == nil {
		return ErrNilEntity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.captureEntity(ent)
	s.unregister(ent)
	return err
}

// Load replaces the cached profile with the durable save. A missing save is
// not an error. A save whose body cannot be parsed leaves an empty profile
// and HasSave false. A malformed version line is reported but the body is
// still loaded under the application version.
func (s *System) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.loaded = true

	data, err := s.pipeline.Slot().Read(ctx)
	if errors.Is(err, storage.ErrSlotEmpty) {
		s.reset()
		slog.InfoContext(ctx, "no save found", "slot", s.pipeline.Slot().Name())
		return nil
	}
	if err != nil {
		s.reset()
		slog.WarnContext(ctx, "loading failed", "error", err)
		return fmt.Errorf("reading save: %w", err)
	}

	profile, err := s.codec.DecodeFile(data)
	if profile == nil {
		s.reset()
		slog.WarnContext(ctx, "loading failed", "error", err)
		return fmt.Errorf("decoding save: %w", err)
	}

	versionErr := err
	if versionErr != nil {
		slog.WarnContext(ctx, "save has a malformed version", "error", versionErr)
		profile.Version = s.appVersion
	} else if profile.Version.Compare(s.appVersion) > 0 {
		slog.WarnContext(ctx, "save was written by a newer version",
			"save_version", profile.Version.String(), "app_version", s.appVersion.String())
	}

	s.profile = profile
	s.hasSave = true
	slog.InfoContext(ctx, "loaded save", "version", profile.Version.String(), "instances", profile.Len())

	if versionErr != nil {
		return fmt.Errorf("decoding save: %w", versionErr)
	}
	return nil
}

// Save captures every live entity into the cached profile, serializes it
// and queues the durable write. It returns once the write is queued; the
// write's outcome is reported through OnComplete. Capture problems are
// returned but do not stop the save.
func (s *System) Save(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.save(ctx)
}

// ForceSave captures ent into the cached profile immediately without
// queueing a write.
func (s *System) ForceSave(ent Entity) error {
	if ent == nil {
		return ErrNilEntity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.captureEntity(ent)
}

// DeleteSave discards queued writes, schedules removal of the durable save
// and resets the cached profile. It returns once the removal has run or ctx
// ends.
func (s *System) DeleteSave(ctx context.Context) error {
	s.mu.Lock()
	dropped := s.pipeline.DropPending()
	s.pipeline.Enqueue(storage.DeleteRequest())
	s.reset()
	s.mu.Unlock()

	slog.InfoContext(ctx, "deleting save", "slot", s.pipeline.Slot().Name(), "dropped_writes", dropped)

	if err := s.pipeline.Wait(ctx); err != nil {
		return fmt.Errorf("waiting for delete: %w", err)
	}
	return nil
}

// HasSave reports whether a durable save exists or has been queued.
func (s *System) HasSave() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasSave
}

// IsSaving reports whether a durable write or delete is queued or running.
func (s *System) IsSaving() bool {
	return s.pipeline.Busy()
}

// Profile returns the cached profile. Callers must treat it as read-only.
func (s *System) Profile() *snapshot.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile
}

// Tick saves when autosave is enabled, a load has happened and the interval
// has elapsed since the last save.
func (s *System) Tick(ctx context.Context) error {
	if s.autosaveInterval <= 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded || s.now().Sub(s.lastSave) < s.autosaveInterval {
		return nil
	}

	slog.DebugContext(ctx, "autosave")
	return s.save(ctx)
}

// Wait blocks until no durable write is queued or running.
func (s *System) Wait(ctx context.Context) error {
	return s.pipeline.Wait(ctx)
}

// Start runs the write pipeline, the autosave driver and any extra workers
// until ctx is cancelled.
func (s *System) Start(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return s.pipeline.Start(ctx) })
	g.Go(func() error { return s.driver.Start(ctx) })
	for _, w := range s.workers {
		g.Go(func() error { return w.Start(ctx) })
	}

	return g.Wait()
}

// Close releases the save slot if it holds resources.
func (s *System) Close() error {
	if c, ok := s.pipeline.Slot().(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (s *System) save(ctx context.Context) error {
	el := errlist.New()
	for _, ent := range s.entities {
		el.Add(s.captureEntity(ent))
	}

	data, err := s.codec.EncodeFile(s.appVersion, s.profile)
	if err != nil {
		slog.WarnContext(ctx, "saving failed", "error", err)
		return fmt.Errorf("serializing save: %w", err)
	}

	s.profile.Version = s.appVersion
	s.pipeline.Enqueue(storage.WriteRequest(data))
	s.hasSave = true
	s.lastSave = s.now()

	slog.InfoContext(ctx, "saving", "version", s.appVersion.String(), "instances", s.profile.Len(), "bytes", len(data))

	return el.Err()
}

// captureEntity records ent into the cached profile. Entities with an
// invalid identity are captured into a throwaway instance.
func (s *System) captureEntity(ent Entity) error {
	id := ent.Identity()
	if !id.Valid() {
		slog.Warn("entity has invalid identity, its state will not be saved", "identity", id.String())
		if err := s.engine.Capture(ent, snapshot.NewInstance(id)); err != nil {
			return fmt.Errorf("capturing %s: %w", id, err)
		}
		return fmt.Errorf("capturing %q: %w", id.Value, ErrInvalidIdentity)
	}

	inst, ok := s.profile.Instance(id)
	if !ok {
		inst = snapshot.NewInstance(id)
		if err := s.profile.Put(inst); err != nil {
			return fmt.Errorf("capturing %s: %w", id, err)
		}
	}

	if err := s.engine.Capture(ent, inst); err != nil {
		slog.Warn("capture incomplete", "identity", id.String(), "error", err)
		return fmt.Errorf("capturing %s: %w", id, err)
	}
	return nil
}

func (s *System) restore(ent Entity) error {
	id := ent.Identity()

	inst, ok := s.profile.Instance(id)
	if !ok || !id.Valid() {
		inst = snapshot.NewInstance(id)
	}

	if err := s.engine.Restore(ent, inst); err != nil {
		slog.Warn("restore incomplete", "identity", id.String(), "error", err)
		return fmt.Errorf("restoring %s: %w", id, err)
	}
	return nil
}

func (s *System) unregister(ent Entity) {
	h := ent.IdentityHolder()

	if i := s.indexOf(h); i >= 0 {
		s.entities = slices.Delete(s.entities, i, i+1)
	}
	if owner, ok := s.ids.Owner(h.Identity()); ok && owner == h {
		s.ids.Unregister(h)
	}
}

func (s *System) indexOf(h *identity.Holder) int {
	return slices.IndexFunc(s.entities, func(e Entity) bool {
		return e.IdentityHolder() == h
	})
}

func (s *System) reset() {
	s.profile = s.emptyProfile()
	s.hasSave = false
}

func (s *System) emptyProfile() *snapshot.Profile {
	p := snapshot.NewProfile()
	p.Version = s.appVersion
	return p
}
