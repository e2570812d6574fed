package savesystem

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pixil98/go-savestate/capture"
	"github.com/pixil98/go-savestate/codec"
	"github.com/pixil98/go-savestate/convert"
	"github.com/pixil98/go-savestate/identity"
	"github.com/pixil98/go-savestate/internal/storage"
	"github.com/pixil98/go-savestate/schema"
	"github.com/pixil98/go-savestate/snapshot"
	"github.com/pixil98/go-testutil"
)

var appVersion = snapshot.MustParseVersion("1.0.0")

// chest is a saveable component with two bound fields.
type chest struct {
	capture.Bindings

	coins int
	open  bool

	persist  bool
	captures int
	restores int
}

func newChest() *chest {
	c := &chest{persist: true}
	c.Bindings = capture.Bindings{
		"coins": capture.Int(&c.coins),
		"open":  capture.Value(&c.open),
	}
	return c
}

func (c *chest) SaveType() string       { return "Chest" }
func (c *chest) ShouldPersistNow() bool { return c.persist }
func (c *chest) OnCapture()             { c.captures++ }
func (c *chest) OnRestore()             { c.restores++ }

type testEntity struct {
	identity.Holder
	chest *chest
}

func newTestEntity(id identity.Identity) *testEntity {
	return &testEntity{Holder: identity.NewHolder(id), chest: newChest()}
}

func (e *testEntity) SaveComponents() []capture.Component {
	return []capture.Component{e.chest}
}

func newTestTypes(t *testing.T) *schema.Registry {
	t.Helper()
	types, err := schema.New(convert.Default(),
		schema.Type("Chest",
			schema.Field("coins", convert.KindInt),
			schema.Field("open", convert.KindBool),
		),
	)
	if err != nil {
		t.Fatalf("building types: %v", err)
	}
	return types
}

func newTestSystem(t *testing.T, slot storage.Slot, mutate ...func(*Options)) *System {
	t.Helper()
	opts := Options{
		Types:      newTestTypes(t),
		Slot:       slot,
		AppVersion: appVersion,
	}
	for _, m := range mutate {
		m(&opts)
	}

	s, err := New(opts)
	if err != nil {
		t.Fatalf("creating system: %v", err)
	}
	return s
}

func waitSaved(t *testing.T, s *System) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Wait(ctx); err != nil {
		t.Fatalf("waiting for writes: %v", err)
	}
}

func writeSlot(t *testing.T, slot storage.Slot, data string) {
	t.Helper()
	if err := slot.Write(context.Background(), []byte(data)); err != nil {
		t.Fatalf("seeding slot: %v", err)
	}
}

// gatedSlot holds every write until gate is closed.
type gatedSlot struct {
	storage.Slot
	gate    chan struct{}
	started chan struct{}
}

func (g *gatedSlot) Write(ctx context.Context, data []byte) error {
	g.started <- struct{}{}
	<-g.gate
	return g.Slot.Write(ctx, data)
}

type resultLog struct {
	mu      sync.Mutex
	results []storage.Result
}

func (l *resultLog) add(r storage.Result) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.results = append(l.results, r)
}

func (l *resultLog) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.results)
}

func TestNew_Validation(t *testing.T) {
	tests := map[string]struct {
		opts    Options
		expErrs []string
	}{
		"nothing set": {
			opts:    Options{},
			expErrs: []string{"a type registry is required", "a save slot is required"},
		},
		"negative intervals": {
			opts: Options{
				Types:            newTestTypes(t),
				Slot:             storage.NewFileSlot(t.TempDir()),
				AutosaveInterval: -time.Second,
				TickInterval:     -time.Second,
			},
			expErrs: []string{"autosave: interval must not be negative", "tick: interval must not be negative"},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := New(tt.opts)
			if err == nil {
				t.Fatalf("expected errors %v, got nil", tt.expErrs)
			}
			for _, e := range tt.expErrs {
				if !strings.Contains(err.Error(), e) {
					t.Errorf("error %q does not contain %q", err.Error(), e)
				}
			}
		})
	}
}

func TestSystem_LoadWithoutSave(t *testing.T) {
	s := newTestSystem(t, storage.NewFileSlot(t.TempDir()))

	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	testutil.AssertEqual(t, "has save", s.HasSave(), false)
	testutil.AssertEqual(t, "instances", s.Profile().Len(), 0)
	testutil.AssertEqual(t, "version", s.Profile().Version, appVersion)
}

func TestSystem_SaveLoadCycle(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	key := identity.NewGeneratedKey()

	first := newTestSystem(t, storage.NewFileSlot(dir))
	if err := first.Load(ctx); err != nil {
		t.Fatalf("loading: %v", err)
	}

	named := newTestEntity(identity.NewStableName("treasury"))
	keyed := newTestEntity(key)
	for _, e := range []*testEntity{named, keyed} {
		if err := first.RegisterEntity(e); err != nil {
			t.Fatalf("registering: %v", err)
		}
	}
	named.chest.coins = 42
	keyed.chest.open = true

	if err := first.Save(ctx); err != nil {
		t.Fatalf("saving: %v", err)
	}
	testutil.AssertEqual(t, "has save", first.HasSave(), true)
	waitSaved(t, first)

	second := newTestSystem(t, storage.NewFileSlot(dir))
	if err := second.Load(ctx); err != nil {
		t.Fatalf("loading: %v", err)
	}
	testutil.AssertEqual(t, "has save", second.HasSave(), true)
	testutil.AssertEqual(t, "instances", second.Profile().Len(), 2)

	namedAgain := newTestEntity(identity.NewStableName("treasury"))
	keyedAgain := newTestEntity(key)
	for _, e := range []*testEntity{namedAgain, keyedAgain} {
		if err := second.RegisterEntity(e); err != nil {
			t.Fatalf("registering: %v", err)
		}
	}

	testutil.AssertEqual(t, "coins", namedAgain.chest.coins, 42)
	testutil.AssertEqual(t, "named open", namedAgain.chest.open, false)
	testutil.AssertEqual(t, "keyed open", keyedAgain.chest.open, true)
	testutil.AssertEqual(t, "restores", namedAgain.chest.restores, 1)
}

func TestSystem_RegisterWithoutSavedInstance(t *testing.T) {
	s := newTestSystem(t, storage.NewFileSlot(t.TempDir()))
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("loading: %v", err)
	}

	e := newTestEntity(identity.NewStableName("new"))
	e.chest.coins = 7

	if err := s.RegisterEntity(e); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "coins kept", e.chest.coins, 7)
	testutil.AssertEqual(t, "restores", e.chest.restores, 1)
}

func TestSystem_RegisterEntityTwice(t *testing.T) {
	s := newTestSystem(t, storage.NewFileSlot(t.TempDir()))
	e := newTestEntity(identity.NewGeneratedKey())

	if err := s.RegisterEntity(e); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := s.RegisterEntity(e)
	if !errors.Is(err, ErrAlreadyRegistered) {
		t.Fatalf("expected ErrAlreadyRegistered, got %v", err)
	}

	testutil.AssertEqual(t, "nil entity", errors.Is(s.RegisterEntity(nil), ErrNilEntity), true)
}

func TestSystem_RegisterCollisionRegeneratesKey(t *testing.T) {
	s := newTestSystem(t, storage.NewFileSlot(t.TempDir()))
	key := identity.NewGeneratedKey()

	original := newTestEntity(key)
	duplicate := newTestEntity(key)
	for _, e := range []*testEntity{original, duplicate} {
		if err := s.RegisterEntity(e); err != nil {
			t.Fatalf("registering: %v", err)
		}
	}

	testutil.AssertEqual(t, "original keeps key", original.Identity(), key)
	if duplicate.Identity() == key {
		t.Fatal("expected the later registrant to receive a new key")
	}
	testutil.AssertEqual(t, "new key valid", duplicate.Identity().Valid(), true)

	// Once the original is gone its key is free again.
	s.UnregisterEntity(original)
	late := newTestEntity(key)
	if err := s.RegisterEntity(late); err != nil {
		t.Fatalf("registering: %v", err)
	}
	testutil.AssertEqual(t, "late keeps key", late.Identity(), key)
}

func TestSystem_InvalidIdentityNeverSaved(t *testing.T) {
	s := newTestSystem(t, storage.NewFileSlot(t.TempDir()))
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("loading: %v", err)
	}

	anonymous := newTestEntity(identity.NewStableName(""))
	named := newTestEntity(identity.NewStableName("keeper"))
	for _, e := range []*testEntity{anonymous, named} {
		if err := s.RegisterEntity(e); err != nil {
			t.Fatalf("registering: %v", err)
		}
	}

	err := s.Save(context.Background())
	testutil.AssertErrorContains(t, err, ErrInvalidIdentity.Error())
	waitSaved(t, s)

	testutil.AssertEqual(t, "capture hook ran", anonymous.chest.captures, 1)
	testutil.AssertEqual(t, "instances", s.Profile().Len(), 1)
	_, ok := s.Profile().Instance(identity.NewStableName(""))
	testutil.AssertEqual(t, "invalid stored", ok, false)
	testutil.AssertEqual(t, "has save", s.HasSave(), true)
}

func TestSystem_LoadMalformedBody(t *testing.T) {
	slot := storage.NewFileSlot(t.TempDir())
	writeSlot(t, slot, "1.0.0\n{\"EntityInstances\": [")

	s := newTestSystem(t, slot)
	err := s.Load(context.Background())
	if !errors.Is(err, codec.ErrMalformedSnapshot) {
		t.Fatalf("expected ErrMalformedSnapshot, got %v", err)
	}

	testutil.AssertEqual(t, "has save", s.HasSave(), false)
	testutil.AssertEqual(t, "instances", s.Profile().Len(), 0)
}

func TestSystem_LoadMalformedVersion(t *testing.T) {
	slot := storage.NewFileSlot(t.TempDir())
	writeSlot(t, slot, `not.a.version
{"EntityInstances":[{"Identity":{"kind":"name","value":"treasury"},"Components":[
	{"Name":"Chest","Fields":[{"Name":"coins","Value":9}]}]}]}`)

	s := newTestSystem(t, slot)
	err := s.Load(context.Background())
	if !errors.Is(err, codec.ErrMalformedVersion) {
		t.Fatalf("expected ErrMalformedVersion, got %v", err)
	}

	testutil.AssertEqual(t, "has save", s.HasSave(), true)
	testutil.AssertEqual(t, "version", s.Profile().Version, appVersion)

	e := newTestEntity(identity.NewStableName("treasury"))
	if err := s.RegisterEntity(e); err != nil {
		t.Fatalf("registering: %v", err)
	}
	testutil.AssertEqual(t, "coins", e.chest.coins, 9)
}

func TestSystem_LoadIgnoresUnknownComponents(t *testing.T) {
	slot := storage.NewFileSlot(t.TempDir())
	writeSlot(t, slot, `2.0.0
{"EntityInstances":[{"Identity":{"kind":"name","value":"treasury"},"Components":[
	{"Name":"Ghost","Fields":[{"Name":"boo","Value":true}]},
	{"Name":"Chest","Fields":[{"Name":"coins","Value":3},{"Name":"lock","Value":1}]}]}]}`)

	s := newTestSystem(t, slot)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "version", s.Profile().Version.String(), "2.0.0")

	e := newTestEntity(identity.NewStableName("treasury"))
	if err := s.RegisterEntity(e); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "coins", e.chest.coins, 3)
	testutil.AssertEqual(t, "restores", e.chest.restores, 1)
}

func TestSystem_ForceSave(t *testing.T) {
	ctx := context.Background()
	slot := storage.NewFileSlot(t.TempDir())
	s := newTestSystem(t, slot)

	e := newTestEntity(identity.NewStableName("treasury"))
	if err := s.RegisterEntity(e); err != nil {
		t.Fatalf("registering: %v", err)
	}
	e.chest.coins = 11

	if err := s.ForceSave(e); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	inst, ok := s.Profile().Instance(e.Identity())
	testutil.AssertEqual(t, "instance stored", ok, true)
	comp, _ := inst.Component("Chest")
	f, _ := comp.Field("coins")
	testutil.AssertEqual(t, "coins", f.Value, any(int64(11)))

	testutil.AssertEqual(t, "is saving", s.IsSaving(), false)
	exists, err := slot.Exists(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "written", exists, false)
}

func TestSystem_RetireEntity(t *testing.T) {
	s := newTestSystem(t, storage.NewFileSlot(t.TempDir()))

	e := newTestEntity(identity.NewGeneratedKey())
	if err := s.RegisterEntity(e); err != nil {
		t.Fatalf("registering: %v", err)
	}
	e.chest.coins = 5

	if err := s.RetireEntity(e); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "captures", e.chest.captures, 1)

	if err := s.Save(context.Background()); err != nil {
		t.Fatalf("saving: %v", err)
	}
	waitSaved(t, s)

	testutil.AssertEqual(t, "captures after save", e.chest.captures, 1)
	_, ok := s.Profile().Instance(e.Identity())
	testutil.AssertEqual(t, "instance kept", ok, true)
}

func TestSystem_OptedOutComponentKeepsSavedFields(t *testing.T) {
	s := newTestSystem(t, storage.NewFileSlot(t.TempDir()))

	e := newTestEntity(identity.NewStableName("treasury"))
	if err := s.RegisterEntity(e); err != nil {
		t.Fatalf("registering: %v", err)
	}
	e.chest.coins = 1
	if err := s.ForceSave(e); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	e.chest.coins = 2
	e.chest.persist = false
	if err := s.ForceSave(e); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	inst, _ := s.Profile().Instance(e.Identity())
	comp, _ := inst.Component("Chest")
	f, _ := comp.Field("coins")
	testutil.AssertEqual(t, "coins", f.Value, any(int64(1)))
}

func TestSystem_DeleteSave(t *testing.T) {
	ctx := context.Background()
	slot := storage.NewFileSlot(t.TempDir())
	s := newTestSystem(t, slot)

	e := newTestEntity(identity.NewStableName("treasury"))
	if err := s.RegisterEntity(e); err != nil {
		t.Fatalf("registering: %v", err)
	}
	if err := s.Save(ctx); err != nil {
		t.Fatalf("saving: %v", err)
	}

	if err := s.DeleteSave(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	testutil.AssertEqual(t, "has save", s.HasSave(), false)
	testutil.AssertEqual(t, "instances", s.Profile().Len(), 0)
	exists, err := slot.Exists(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "exists", exists, false)
}

func TestSystem_DeleteSaveDropsQueuedWrites(t *testing.T) {
	ctx := context.Background()
	slot := &gatedSlot{
		Slot:    storage.NewFileSlot(t.TempDir()),
		gate:    make(chan struct{}),
		started: make(chan struct{}, 4),
	}
	log := &resultLog{}
	s := newTestSystem(t, slot, func(o *Options) { o.OnComplete = log.add })

	if err := s.Save(ctx); err != nil {
		t.Fatalf("saving: %v", err)
	}
	<-slot.started
	if err := s.Save(ctx); err != nil {
		t.Fatalf("saving: %v", err)
	}
	testutil.AssertEqual(t, "is saving", s.IsSaving(), true)

	// The in-flight write is still held, so DeleteSave gives up waiting
	// after dropping the queued write and scheduling the delete.
	short, cancel := context.WithTimeout(ctx, 10*time.Millisecond)
	defer cancel()
	err := s.DeleteSave(short)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}

	close(slot.gate)
	waitSaved(t, s)

	// The in-flight write and the delete ran; the queued write did not.
	testutil.AssertEqual(t, "results", log.len(), 2)
	testutil.AssertEqual(t, "is saving", s.IsSaving(), false)
	exists, err := slot.Exists(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "exists", exists, false)
}

func TestSystem_IsSaving(t *testing.T) {
	slot := &gatedSlot{
		Slot:    storage.NewFileSlot(t.TempDir()),
		gate:    make(chan struct{}),
		started: make(chan struct{}, 1),
	}
	s := newTestSystem(t, slot)

	testutil.AssertEqual(t, "before", s.IsSaving(), false)
	if err := s.Save(context.Background()); err != nil {
		t.Fatalf("saving: %v", err)
	}
	<-slot.started
	testutil.AssertEqual(t, "during", s.IsSaving(), true)

	close(slot.gate)
	waitSaved(t, s)
	testutil.AssertEqual(t, "after", s.IsSaving(), false)
}

func TestSystem_Autosave(t *testing.T) {
	ctx := context.Background()
	log := &resultLog{}
	s := newTestSystem(t, storage.NewFileSlot(t.TempDir()), func(o *Options) {
		o.AutosaveInterval = time.Minute
		o.OnComplete = log.add
	})

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	steps := []struct {
		name     string
		load     bool
		advance  time.Duration
		expSaves int
	}{
		{name: "not loaded yet", expSaves: 0},
		{name: "first tick after load", load: true, expSaves: 1},
		{name: "interval not elapsed", advance: 30 * time.Second, expSaves: 1},
		{name: "interval elapsed", advance: 31 * time.Second, expSaves: 2},
	}

	for _, step := range steps {
		if step.load {
			if err := s.Load(ctx); err != nil {
				t.Fatalf("%s: loading: %v", step.name, err)
			}
		}
		now = now.Add(step.advance)

		if err := s.Tick(ctx); err != nil {
			t.Fatalf("%s: unexpected error: %v", step.name, err)
		}
		waitSaved(t, s)
		testutil.AssertEqual(t, step.name, log.len(), step.expSaves)
	}
}

func TestSystem_AutosaveDisabled(t *testing.T) {
	s := newTestSystem(t, storage.NewFileSlot(t.TempDir()))
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("loading: %v", err)
	}

	if err := s.Tick(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "has save", s.HasSave(), false)
}

func TestSystem_StartDrainsOnShutdown(t *testing.T) {
	slot := storage.NewFileSlot(t.TempDir())
	s := newTestSystem(t, slot, func(o *Options) { o.TickInterval = time.Hour })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()

	if err := s.Save(ctx); err != nil {
		t.Fatalf("saving: %v", err)
	}
	cancel()

	if err := <-done; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	exists, err := slot.Exists(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "exists", exists, true)
}

func TestSystem_SaveSeveralInvalidIdentities(t *testing.T) {
	s := newTestSystem(t, storage.NewFileSlot(t.TempDir()))
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("loading: %v", err)
	}

	for _, name := range []string{"", "  "} {
		if err := s.RegisterEntity(newTestEntity(identity.NewStableName(name))); err != nil {
			t.Fatalf("registering: %v", err)
		}
	}

	err := s.Save(context.Background())
	waitSaved(t, s)

	testutil.AssertErrorContains(t, err, "2 errors")
	if !errors.Is(err, ErrInvalidIdentity) {
		t.Errorf("expected ErrInvalidIdentity, got %v", err)
	}
}

// gauge is a component with a float reading.
type gauge struct {
	capture.Bindings
	level float64
}

func newGauge(level float64) *gauge {
	g := &gauge{level: level}
	g.Bindings = capture.Bindings{"level": capture.Float(&g.level)}
	return g
}

func (g *gauge) SaveType() string       { return "Gauge" }
func (g *gauge) ShouldPersistNow() bool { return true }
func (g *gauge) OnCapture()             {}
func (g *gauge) OnRestore()             {}

type gaugeEntity struct {
	identity.Holder
	gauge *gauge
}

func (e *gaugeEntity) SaveComponents() []capture.Component {
	return []capture.Component{e.gauge}
}

func TestSystem_SaveNonFiniteFloats(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	withGauge := func(o *Options) {
		types, err := schema.New(convert.Default(),
			schema.Type("Chest",
				schema.Field("coins", convert.KindInt),
				schema.Field("open", convert.KindBool),
			),
			schema.Type("Gauge", schema.Field("level", convert.KindFloat)),
		)
		if err != nil {
			t.Fatalf("building types: %v", err)
		}
		o.Types = types
	}

	first := newTestSystem(t, storage.NewFileSlot(dir), withGauge)
	if err := first.Load(ctx); err != nil {
		t.Fatalf("loading: %v", err)
	}
	good := newTestEntity(identity.NewStableName("treasury"))
	good.chest.coins = 9
	broken := &gaugeEntity{Holder: identity.NewHolder(identity.NewStableName("boiler")), gauge: newGauge(math.NaN())}
	hot := &gaugeEntity{Holder: identity.NewHolder(identity.NewStableName("furnace")), gauge: newGauge(math.Inf(1))}
	for _, e := range []Entity{good, broken, hot} {
		if err := first.RegisterEntity(e); err != nil {
			t.Fatalf("registering: %v", err)
		}
	}

	if err := first.Save(ctx); err != nil {
		t.Fatalf("saving: %v", err)
	}
	waitSaved(t, first)

	second := newTestSystem(t, storage.NewFileSlot(dir), withGauge)
	if err := second.Load(ctx); err != nil {
		t.Fatalf("loading: %v", err)
	}
	goodAgain := newTestEntity(identity.NewStableName("treasury"))
	brokenAgain := &gaugeEntity{Holder: identity.NewHolder(identity.NewStableName("boiler")), gauge: newGauge(1)}
	hotAgain := &gaugeEntity{Holder: identity.NewHolder(identity.NewStableName("furnace")), gauge: newGauge(1)}
	for _, e := range []Entity{goodAgain, brokenAgain, hotAgain} {
		if err := second.RegisterEntity(e); err != nil {
			t.Fatalf("registering: %v", err)
		}
	}

	testutil.AssertEqual(t, "coins", goodAgain.chest.coins, 9)
	testutil.AssertEqual(t, "nan", math.IsNaN(brokenAgain.gauge.level), true)
	testutil.AssertEqual(t, "inf", math.IsInf(hotAgain.gauge.level, 1), true)
}

// closingSlot counts Close calls.
type closingSlot struct {
	storage.Slot
	closed int
}

func (c *closingSlot) Close() error {
	c.closed++
	return nil
}

func TestSystem_CloseReleasesSlot(t *testing.T) {
	slot := &closingSlot{Slot: storage.NewFileSlot(t.TempDir())}
	s := newTestSystem(t, slot)

	if err := s.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "closed by system", slot.closed, 1)

	closeSlot(slot)
	testutil.AssertEqual(t, "closed by config cleanup", slot.closed, 2)

	plain := newTestSystem(t, storage.NewFileSlot(t.TempDir()))
	if err := plain.Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
