package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"posekit/internal/model"
)

// MemoryStore хранит каталог в памяти процесса. Используется для запуска
// без PostgreSQL и в тестах.
type MemoryStore struct {
	mu      sync.RWMutex
	poses   map[string]*model.Pose
	themes  map[string]*model.Theme
	tags    map[string]*model.Tag
	users   map[string]*model.User
	order   map[string]int
	nextTag uint
	nextSeq int
}

// NewMemoryStore создает пустое хранилище
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		poses:  make(map[string]*model.Pose),
		themes: make(map[string]*model.Theme),
		tags:   make(map[string]*model.Tag),
		users:  make(map[string]*model.User),
		order:  make(map[string]int),
	}
}

// Poses возвращает PoseRepository поверх хранилища
func (m *MemoryStore) Poses() PoseRepository { return &memoryPoses{m} }

// Catalog возвращает CatalogRepository поверх хранилища
func (m *MemoryStore) Catalog() CatalogRepository { return &memoryCatalog{m} }

// Users возвращает UserRepository поверх хранилища
func (m *MemoryStore) Users() UserRepository { return &memoryUsers{m} }

func notFound(kind, id string) error {
	return fmt.Errorf("%s with id %s: %w", kind, id, ErrNotFound)
}

func conflict(kind, field string) error {
	return fmt.Errorf("failed to create %s: %w (%s)", kind, ErrConflict, field)
}

type memoryPoses struct{ m *MemoryStore }

func (r *memoryPoses) Create(_ context.Context, p *model.Pose) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if _, ok := r.m.poses[p.ID]; ok {
		return conflict("pose", "poses_pkey")
	}
	for _, existing := range r.m.poses {
		if existing.Slug == p.Slug {
			return conflict("pose", "idx_poses_slug")
		}
	}

	now := time.Now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	for i := range p.Assets {
		p.Assets[i].PoseID = p.ID
	}

	r.m.nextSeq++
	r.m.order[p.ID] = r.m.nextSeq
	r.m.poses[p.ID] = r.m.copyPose(p)
	return nil
}

func (r *memoryPoses) GetByID(_ context.Context, id string) (*model.Pose, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	p, ok := r.m.poses[id]
	if !ok {
		return nil, notFound("pose", id)
	}
	return r.m.hydrate(p), nil
}

func (r *memoryPoses) List(_ context.Context, filter PoseFilter) ([]*model.Pose, int64, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	var matched []*model.Pose
	for _, p := range r.m.poses {
		if filter.ThemeID != "" && (p.ThemeID == nil || *p.ThemeID != filter.ThemeID) {
			continue
		}
		if filter.Difficulty != "" && p.Difficulty != filter.Difficulty {
			continue
		}
		if filter.Tag != "" && !hasTag(p, filter.Tag) {
			continue
		}
		matched = append(matched, p)
	}

	sort.Slice(matched, func(i, j int) bool {
		return r.m.newer(matched[i], matched[j])
	})

	page, size := filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = 20
	}

	total := int64(len(matched))
	start := (page - 1) * size
	if start > len(matched) {
		start = len(matched)
	}
	end := start + size
	if end > len(matched) {
		end = len(matched)
	}

	out := make([]*model.Pose, 0, end-start)
	for _, p := range matched[start:end] {
		out = append(out, r.m.hydrate(p))
	}
	return out, total, nil
}

func (r *memoryPoses) All(_ context.Context) ([]*model.Pose, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	out := make([]*model.Pose, 0, len(r.m.poses))
	for _, p := range r.m.poses {
		out = append(out, r.m.hydrate(p))
	}
	sort.Slice(out, func(i, j int) bool {
		return r.m.newer(out[j], out[i])
	})
	return out, nil
}

func (r *memoryPoses) Update(_ context.Context, p *model.Pose) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	existing, ok := r.m.poses[p.ID]
	if !ok {
		return notFound("pose", p.ID)
	}
	for id, other := range r.m.poses {
		if id != p.ID && other.Slug == p.Slug {
			return conflict("pose", "idx_poses_slug")
		}
	}

	p.UpdatedAt = time.Now()
	stored := r.m.copyPose(p)
	stored.Assets = existing.Assets
	r.m.poses[p.ID] = stored
	return nil
}

func (r *memoryPoses) Delete(_ context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if _, ok := r.m.poses[id]; !ok {
		return notFound("pose", id)
	}
	delete(r.m.poses, id)
	delete(r.m.order, id)
	return nil
}

func (r *memoryPoses) AddAsset(_ context.Context, asset *model.Asset) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	p, ok := r.m.poses[asset.PoseID]
	if !ok {
		return notFound("pose", asset.PoseID)
	}
	if asset.CreatedAt.IsZero() {
		asset.CreatedAt = time.Now()
	}
	p.Assets = append(p.Assets, *asset)
	return nil
}

type memoryCatalog struct{ m *MemoryStore }

func (r *memoryCatalog) CreateTheme(_ context.Context, theme *model.Theme) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	for _, existing := range r.m.themes {
		if existing.Name == theme.Name || existing.Slug == theme.Slug {
			return conflict("theme", "idx_themes_slug")
		}
	}
	now := time.Now()
	theme.CreatedAt, theme.UpdatedAt = now, now
	stored := *theme
	r.m.themes[theme.ID] = &stored
	return nil
}

func (r *memoryCatalog) GetTheme(_ context.Context, id string) (*model.Theme, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	theme, ok := r.m.themes[id]
	if !ok {
		return nil, notFound("theme", id)
	}
	out := *theme
	return &out, nil
}

func (r *memoryCatalog) ListThemes(_ context.Context) ([]*model.Theme, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	out := make([]*model.Theme, 0, len(r.m.themes))
	for _, theme := range r.m.themes {
		t := *theme
		out = append(out, &t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memoryCatalog) DeleteTheme(_ context.Context, id string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if _, ok := r.m.themes[id]; !ok {
		return notFound("theme", id)
	}
	for _, p := range r.m.poses {
		if p.ThemeID != nil && *p.ThemeID == id {
			p.ThemeID = nil
		}
	}
	delete(r.m.themes, id)
	return nil
}

func (r *memoryCatalog) CreateTag(_ context.Context, tag *model.Tag) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if _, ok := r.m.tags[tag.Name]; ok {
		return conflict("tag", "idx_tags_name")
	}
	r.m.insertTag(tag)
	return nil
}

func (r *memoryCatalog) ListTags(_ context.Context) ([]*model.Tag, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	out := make([]*model.Tag, 0, len(r.m.tags))
	for _, tag := range r.m.tags {
		t := *tag
		out = append(out, &t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *memoryCatalog) EnsureTags(_ context.Context, names []string) ([]model.Tag, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	out := make([]model.Tag, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		tag, ok := r.m.tags[name]
		if !ok {
			tag = &model.Tag{Name: name}
			r.m.insertTag(tag)
		}
		out = append(out, *tag)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type memoryUsers struct{ m *MemoryStore }

func (r *memoryUsers) Create(_ context.Context, user *model.User) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	for _, existing := range r.m.users {
		if existing.Email == user.Email {
			return conflict("user", "idx_users_email")
		}
	}
	now := time.Now()
	user.CreatedAt, user.UpdatedAt = now, now
	stored := *user
	r.m.users[user.ID] = &stored
	return nil
}

func (r *memoryUsers) GetByID(_ context.Context, id string) (*model.User, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	user, ok := r.m.users[id]
	if !ok {
		return nil, notFound("user", id)
	}
	out := *user
	return &out, nil
}

func (r *memoryUsers) GetByEmail(_ context.Context, email string) (*model.User, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	for _, user := range r.m.users {
		if user.Email == email {
			out := *user
			return &out, nil
		}
	}
	return nil, fmt.Errorf("failed to get user by email: %w", ErrNotFound)
}

func (r *memoryUsers) List(_ context.Context) ([]*model.User, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	out := make([]*model.User, 0, len(r.m.users))
	for _, user := range r.m.users {
		u := *user
		out = append(out, &u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *memoryUsers) UpdateRole(_ context.Context, id, role string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	user, ok := r.m.users[id]
	if !ok {
		return notFound("user", id)
	}
	user.Role = role
	user.UpdatedAt = time.Now()
	return nil
}

func (r *memoryUsers) Count(_ context.Context) (int64, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()
	return int64(len(r.m.users)), nil
}

// newer сравнивает позы по времени создания, затем по порядку вставки
func (m *MemoryStore) newer(a, b *model.Pose) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return m.order[a.ID] > m.order[b.ID]
}

// insertTag вызывается под блокировкой записи
func (m *MemoryStore) insertTag(tag *model.Tag) {
	m.nextTag++
	tag.ID = m.nextTag
	tag.CreatedAt = time.Now()
	stored := *tag
	m.tags[tag.Name] = &stored
}

// copyPose отделяет хранимую позу от указателя вызывающего
func (m *MemoryStore) copyPose(p *model.Pose) *model.Pose {
	out := *p
	out.Keypoints = p.Keypoints.Clone()
	out.Theme = nil
	out.Tags = append([]model.Tag(nil), p.Tags...)
	out.Assets = append([]model.Asset(nil), p.Assets...)
	if p.ThemeID != nil {
		id := *p.ThemeID
		out.ThemeID = &id
	}
	return &out
}

// hydrate возвращает копию позы с подгруженной темой, как Preload в gorm
func (m *MemoryStore) hydrate(p *model.Pose) *model.Pose {
	out := m.copyPose(p)
	if out.ThemeID != nil {
		if theme, ok := m.themes[*out.ThemeID]; ok {
			t := *theme
			out.Theme = &t
		}
	}
	if out.Tags == nil {
		out.Tags = []model.Tag{}
	}
	if out.Assets == nil {
		out.Assets = []model.Asset{}
	}
	return out
}

func hasTag(p *model.Pose, name string) bool {
	for _, tag := range p.Tags {
		if tag.Name == name {
			return true
		}
	}
	return false
}
