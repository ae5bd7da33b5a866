// internal/testutil/fakes.go
package testutil

import (
	"bytes"
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/zm10123/taskhive/internal/app/system/normalize"
	membershipstore "github.com/zm10123/taskhive/internal/app/store/memberships"
	"github.com/zm10123/taskhive/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Fakes is an in-memory stand-in for the persistence gateway. The typed
// fields satisfy the collab store interfaces; per-operation error fields
// inject faults, and call counters let tests assert the gateway was
// never reached.
type Fakes struct {
	DB          *FakeDB
	Groups      *FakeGroups
	Memberships *FakeMemberships
	Profiles    *FakeProfiles
	Tasks       *FakeTasks
	Files       *FakeFiles
	Blobs       *FakeBlobs
}

func NewFakes() *Fakes {
	db := &FakeDB{
		groups:      make(map[primitive.ObjectID]models.Group),
		profiles:    make(map[primitive.ObjectID]models.Profile),
		memberships: make(map[primitive.ObjectID]models.GroupMembership),
		calls:       make(map[string]int),
	}
	return &Fakes{
		DB:          db,
		Groups:      &FakeGroups{db: db},
		Memberships: &FakeMemberships{db: db},
		Profiles:    &FakeProfiles{db: db},
		Tasks:       &FakeTasks{db: db},
		Files:       &FakeFiles{db: db},
		Blobs:       &FakeBlobs{blobs: make(map[string][]byte)},
	}
}

// FakeDB holds the shared in-memory state behind the typed fakes.
type FakeDB struct {
	mu          sync.Mutex
	groups      map[primitive.ObjectID]models.Group
	profiles    map[primitive.ObjectID]models.Profile
	memberships map[primitive.ObjectID]models.GroupMembership
	tasks       []models.GroupTask
	files       []models.GroupFile
	calls       map[string]int
}

func (d *FakeDB) count(op string) { d.calls[op]++ }

// Calls reports how many times the named operation ran, e.g.
// "tasks.insert" or "blobs.put".
func (d *FakeDB) Calls(op string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls[op]
}

/*──────────────────────────── seeding helpers ───────────────────────────*/

// SeedProfile inserts a profile directly, bypassing call counters.
func (d *FakeDB) SeedProfile(email, fullName string) models.Profile {
	d.mu.Lock()
	defer d.mu.Unlock()
	p := models.Profile{
		ID:        primitive.NewObjectID(),
		Email:     email,
		EmailCI:   normalize.Email(email),
		FullName:  fullName,
		CreatedAt: time.Now().UTC(),
	}
	d.profiles[p.ID] = p
	return p
}

// SeedGroup inserts a group directly.
func (d *FakeDB) SeedGroup(name string, createdBy primitive.ObjectID) models.Group {
	d.mu.Lock()
	defer d.mu.Unlock()
	now := time.Now().UTC()
	g := models.Group{
		ID:        primitive.NewObjectID(),
		Name:      name,
		CreatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
	d.groups[g.ID] = g
	return g
}

// SeedMembership inserts an active membership directly.
func (d *FakeDB) SeedMembership(groupID, userID primitive.ObjectID, role string) models.GroupMembership {
	d.mu.Lock()
	defer d.mu.Unlock()
	m := models.GroupMembership{
		ID:        primitive.NewObjectID(),
		GroupID:   groupID,
		UserID:    userID,
		Role:      role,
		Status:    models.MembershipActive,
		CreatedAt: time.Now().UTC(),
	}
	d.memberships[m.ID] = m
	return m
}

// ActiveMemberships returns the active memberships for (group, user),
// for invariant assertions.
func (d *FakeDB) ActiveMemberships(groupID, userID primitive.ObjectID) []models.GroupMembership {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []models.GroupMembership
	for _, m := range d.memberships {
		if m.GroupID == groupID && m.UserID == userID && m.Status == models.MembershipActive {
			out = append(out, m)
		}
	}
	return out
}

/*──────────────────────────────── groups ────────────────────────────────*/

type FakeGroups struct {
	db        *FakeDB
	GetErr    error
	CreateErr error
}

func (f *FakeGroups) GetByID(_ context.Context, id primitive.ObjectID) (models.Group, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	f.db.count("groups.get")
	if f.GetErr != nil {
		return models.Group{}, f.GetErr
	}
	g, ok := f.db.groups[id]
	if !ok {
		return models.Group{}, mongo.ErrNoDocuments
	}
	return g, nil
}

func (f *FakeGroups) Create(_ context.Context, g models.Group) (models.Group, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	f.db.count("groups.create")
	if f.CreateErr != nil {
		return models.Group{}, f.CreateErr
	}
	now := time.Now().UTC()
	g.ID = primitive.NewObjectID()
	g.CreatedAt = now
	g.UpdatedAt = now
	f.db.groups[g.ID] = g
	return g, nil
}

/*───────────────────────────── memberships ──────────────────────────────*/

type FakeMemberships struct {
	db        *FakeDB
	InsertErr error
	FindErr   error
	ListErr   error
}

// Insert enforces the same partial unique index the real collection
// carries: at most one active membership per (group, user).
func (f *FakeMemberships) Insert(_ context.Context, m models.GroupMembership) (models.GroupMembership, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	f.db.count("memberships.insert")
	if f.InsertErr != nil {
		return models.GroupMembership{}, f.InsertErr
	}
	if m.Status == "" {
		m.Status = models.MembershipActive
	}
	if m.Status == models.MembershipActive {
		for _, existing := range f.db.memberships {
			if existing.GroupID == m.GroupID && existing.UserID == m.UserID && existing.Status == models.MembershipActive {
				return models.GroupMembership{}, membershipstore.ErrDuplicateMembership
			}
		}
	}
	m.ID = primitive.NewObjectID()
	m.CreatedAt = time.Now().UTC()
	f.db.memberships[m.ID] = m
	return m, nil
}

func (f *FakeMemberships) FindActive(_ context.Context, groupID, userID primitive.ObjectID) (*models.GroupMembership, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	f.db.count("memberships.find")
	if f.FindErr != nil {
		return nil, f.FindErr
	}
	for _, m := range f.db.memberships {
		if m.GroupID == groupID && m.UserID == userID && m.Status == models.MembershipActive {
			mm := m
			return &mm, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (f *FakeMemberships) ListActiveWithProfiles(_ context.Context, groupID primitive.ObjectID) ([]membershipstore.MemberEntry, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	f.db.count("memberships.list")
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	var out []membershipstore.MemberEntry
	for _, m := range f.db.memberships {
		if m.GroupID != groupID || m.Status != models.MembershipActive {
			continue
		}
		p := f.db.profiles[m.UserID]
		out = append(out, membershipstore.MemberEntry{
			ID:        m.ID,
			GroupID:   m.GroupID,
			UserID:    m.UserID,
			Role:      m.Role,
			InvitedBy: m.InvitedBy,
			Email:     p.Email,
			FullName:  p.FullName,
			CreatedAt: m.CreatedAt,
		})
	}
	return out, nil
}

func (f *FakeMemberships) ListGroupsForUser(_ context.Context, userID primitive.ObjectID) ([]membershipstore.GroupWithRole, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	f.db.count("memberships.listgroups")
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	var out []membershipstore.GroupWithRole
	for _, m := range f.db.memberships {
		if m.UserID != userID || m.Status != models.MembershipActive {
			continue
		}
		g, ok := f.db.groups[m.GroupID]
		if !ok {
			continue
		}
		out = append(out, membershipstore.GroupWithRole{Group: g, Role: m.Role})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Group.CreatedAt.After(out[j].Group.CreatedAt)
	})
	return out, nil
}

/*─────────────────────────────── profiles ───────────────────────────────*/

type FakeProfiles struct {
	db     *FakeDB
	GetErr error
}

func (f *FakeProfiles) GetByEmail(_ context.Context, email string) (models.Profile, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	f.db.count("profiles.getbyemail")
	if f.GetErr != nil {
		return models.Profile{}, f.GetErr
	}
	ci := normalize.Email(email)
	for _, p := range f.db.profiles {
		if p.EmailCI == ci {
			return p, nil
		}
	}
	return models.Profile{}, mongo.ErrNoDocuments
}

/*──────────────────────────────── tasks ─────────────────────────────────*/

type FakeTasks struct {
	db           *FakeDB
	InsertErr    error
	ListErr      error
	SetStatusErr error
}

func (f *FakeTasks) Insert(_ context.Context, t models.GroupTask) (models.GroupTask, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	f.db.count("tasks.insert")
	if f.InsertErr != nil {
		return models.GroupTask{}, f.InsertErr
	}
	if t.Status == "" {
		t.Status = models.TaskPending
	}
	if t.Priority == "" {
		t.Priority = models.PriorityMedium
	}
	now := time.Now().UTC()
	t.ID = primitive.NewObjectID()
	t.CreatedAt = now
	t.UpdatedAt = now
	f.db.tasks = append(f.db.tasks, t)
	return t, nil
}

func (f *FakeTasks) GetByID(_ context.Context, id primitive.ObjectID) (models.GroupTask, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	f.db.count("tasks.get")
	for _, t := range f.db.tasks {
		if t.ID == id {
			return t, nil
		}
	}
	return models.GroupTask{}, mongo.ErrNoDocuments
}

// ListByGroup returns tasks newest first (reverse insertion order).
func (f *FakeTasks) ListByGroup(_ context.Context, groupID primitive.ObjectID) ([]models.GroupTask, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	f.db.count("tasks.list")
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	var out []models.GroupTask
	for i := len(f.db.tasks) - 1; i >= 0; i-- {
		if f.db.tasks[i].GroupID == groupID {
			out = append(out, f.db.tasks[i])
		}
	}
	return out, nil
}

func (f *FakeTasks) SetStatus(_ context.Context, id primitive.ObjectID, status string) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	f.db.count("tasks.setstatus")
	if f.SetStatusErr != nil {
		return f.SetStatusErr
	}
	for i := range f.db.tasks {
		if f.db.tasks[i].ID == id {
			f.db.tasks[i].Status = status
			f.db.tasks[i].UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return mongo.ErrNoDocuments
}

/*──────────────────────────────── files ─────────────────────────────────*/

type FakeFiles struct {
	db        *FakeDB
	InsertErr error
	ListErr   error
	DeleteErr error
}

func (f *FakeFiles) Insert(_ context.Context, gf models.GroupFile) (models.GroupFile, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	f.db.count("files.insert")
	if f.InsertErr != nil {
		return models.GroupFile{}, f.InsertErr
	}
	gf.ID = primitive.NewObjectID()
	gf.CreatedAt = time.Now().UTC()
	f.db.files = append(f.db.files, gf)
	return gf, nil
}

func (f *FakeFiles) GetByID(_ context.Context, id primitive.ObjectID) (models.GroupFile, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	f.db.count("files.get")
	for _, gf := range f.db.files {
		if gf.ID == id {
			return gf, nil
		}
	}
	return models.GroupFile{}, mongo.ErrNoDocuments
}

// ListByGroup returns files newest first (reverse insertion order).
func (f *FakeFiles) ListByGroup(_ context.Context, groupID primitive.ObjectID) ([]models.GroupFile, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	f.db.count("files.list")
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	var out []models.GroupFile
	for i := len(f.db.files) - 1; i >= 0; i-- {
		if f.db.files[i].GroupID == groupID {
			out = append(out, f.db.files[i])
		}
	}
	return out, nil
}

func (f *FakeFiles) Delete(_ context.Context, id primitive.ObjectID) (int64, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	f.db.count("files.delete")
	if f.DeleteErr != nil {
		return 0, f.DeleteErr
	}
	for i, gf := range f.db.files {
		if gf.ID == id {
			f.db.files = append(f.db.files[:i], f.db.files[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

/*──────────────────────────────── blobs ─────────────────────────────────*/

// NewFakeBlobs returns an empty in-memory blob store, usable on its own
// in handler tests that hit a real database.
func NewFakeBlobs() *FakeBlobs {
	return &FakeBlobs{blobs: make(map[string][]byte)}
}

// FakeBlobs is an in-memory blob store with fault injection.
type FakeBlobs struct {
	mu        sync.Mutex
	blobs     map[string][]byte
	puts      int
	deletes   int
	PutErr    error
	DeleteErr error
}

func (f *FakeBlobs) Put(_ context.Context, path string, r io.Reader, _ *storage.PutOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.puts++
	if f.PutErr != nil {
		return f.PutErr
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(r); err != nil {
		return err
	}
	f.blobs[path] = buf.Bytes()
	return nil
}

func (f *FakeBlobs) Delete(_ context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes++
	if f.DeleteErr != nil {
		return f.DeleteErr
	}
	delete(f.blobs, path)
	return nil
}

// Has reports whether a blob exists at path.
func (f *FakeBlobs) Has(path string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.blobs[path]
	return ok
}

// Len reports the number of stored blobs.
func (f *FakeBlobs) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.blobs)
}

// Puts reports how many Put calls were made, including failed ones.
func (f *FakeBlobs) Puts() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.puts
}
