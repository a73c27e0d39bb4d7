package groupsync

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/rs/zerolog"

	"github.com/de-tools/turbo-critical/pkg/models/domain"
)

const (
	ColumnEntityType = "Entity Type"
	ColumnEntityName = "Entity Name"
)

// Change categories reported in the summary
const (
	CategoryCreated   = "Groups Created"
	CategoryUpdated   = "Groups Updated"
	CategoryUnchanged = "Groups Unchanged"
	CategoryDeleted   = "Groups Deleted"
	CategoryNotFound  = "Entities Not Found"
)

var Categories = []string{CategoryCreated, CategoryUpdated, CategoryUnchanged, CategoryDeleted, CategoryNotFound}

// Platform is the part of the Turbonomic API used to reconcile groups
type Platform interface {
	ListGroups(ctx context.Context) ([]domain.Group, error)
	SearchEntities(ctx context.Context, className, name string) ([]domain.Entity, error)
	CreateGroup(ctx context.Context, spec domain.GroupSpec) (*domain.Group, error)
	UpdateGroup(ctx context.Context, uuid string, spec domain.GroupSpec) (*domain.Group, error)
	DeleteGroup(ctx context.Context, uuid string) error
}

type Options struct {
	// GroupHeaders name the CSV columns whose values are group names
	GroupHeaders []string
	// Groups are reconciled even when no row names them, which empties them
	Groups []string
	// Verbose prints every change event to Output
	Verbose bool
	// Quiet suppresses all printing, including Verbose events
	Quiet bool
	// DryRun computes the summary without changing the platform
	DryRun bool
	Output io.Writer
}

type Syncer struct {
	platform Platform
}

func NewSyncer(platform Platform) *Syncer {
	return &Syncer{platform: platform}
}

type member struct {
	className string
	name      string
}

type desiredGroup struct {
	name    string
	members []member
}

// SyncFile reconciles the static groups described by the CSV at path
func (s *Syncer) SyncFile(ctx context.Context, path string, opts Options) (domain.ChangeSummary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return s.Sync(ctx, f, opts)
}

// Sync creates, updates or deletes one static group per distinct value of each group
// header column, with the entities listed on those rows as members.
func (s *Syncer) Sync(ctx context.Context, r io.Reader, opts Options) (domain.ChangeSummary, error) {
	logger := zerolog.Ctx(ctx)

	desired, err := readGroups(r, opts.GroupHeaders, opts.Groups)
	if err != nil {
		return nil, err
	}

	existing, err := s.platform.ListGroups(ctx)
	if err != nil {
		return nil, err
	}
	byName := make(map[string]domain.Group, len(existing))
	for _, g := range existing {
		if _, dup := byName[g.DisplayName]; !dup {
			byName[g.DisplayName] = g
		}
	}

	summary := domain.ChangeSummary{}
	for _, category := range Categories {
		summary[category] = &domain.ChangeCategory{}
	}
	report := func(category, group, message string) {
		summary.Add(category, group, message)
		logger.Debug().Str("category", category).Str("group", group).Msg(message)
		if opts.Verbose && !opts.Quiet && opts.Output != nil {
			fmt.Fprintf(opts.Output, "[%s] %s: %s\n", category, group, message)
		}
	}

	resolved := map[member]string{}
	for _, group := range desired {
		spec := domain.GroupSpec{DisplayName: group.name}
		for _, m := range group.members {
			uuid, ok := resolved[m]
			if !ok {
				uuid, err = s.resolve(ctx, m)
				if err != nil {
					return nil, err
				}
				resolved[m] = uuid
				if uuid == "" {
					report(CategoryNotFound, group.name, fmt.Sprintf("%s %q not found", m.className, m.name))
				}
			}
			if uuid == "" || slices.Contains(spec.MemberUUIDs, uuid) {
				continue
			}
			if spec.GroupType == "" {
				spec.GroupType = m.className
			}
			spec.MemberUUIDs = append(spec.MemberUUIDs, uuid)
		}

		current, exists := byName[group.name]
		switch {
		case !exists && len(spec.MemberUUIDs) == 0:
			logger.Warn().Str("group", group.name).Msg("no members resolved, group not created")
		case !exists:
			if !opts.DryRun {
				if _, err := s.platform.CreateGroup(ctx, spec); err != nil {
					return nil, err
				}
			}
			report(CategoryCreated, group.name, fmt.Sprintf("created with %d members", len(spec.MemberUUIDs)))
		case len(spec.MemberUUIDs) == 0:
			if !opts.DryRun {
				if err := s.platform.DeleteGroup(ctx, current.UUID); err != nil {
					return nil, err
				}
			}
			report(CategoryDeleted, group.name, "deleted, no members left")
		case sameMembers(current.MemberUUIDs, spec.MemberUUIDs):
			report(CategoryUnchanged, group.name, fmt.Sprintf("%d members unchanged", len(spec.MemberUUIDs)))
		default:
			if spec.GroupType == "" {
				spec.GroupType = current.GroupType
			}
			if !opts.DryRun {
				if _, err := s.platform.UpdateGroup(ctx, current.UUID, spec); err != nil {
					return nil, err
				}
			}
			added, removed := diff(current.MemberUUIDs, spec.MemberUUIDs)
			report(CategoryUpdated, group.name, fmt.Sprintf("%d members added, %d removed", added, removed))
		}
	}

	return summary, nil
}

// resolve returns the UUID of the entity, or "" when the platform has none
func (s *Syncer) resolve(ctx context.Context, m member) (string, error) {
	entities, err := s.platform.SearchEntities(ctx, m.className, m.name)
	if err != nil {
		return "", err
	}
	if len(entities) == 0 {
		return "", nil
	}
	if len(entities) > 1 {
		zerolog.Ctx(ctx).Warn().
			Str("entity", m.name).
			Int("matches", len(entities)).
			Msg("several entities share the name, using the first")
	}
	return entities[0].UUID, nil
}

// readGroups returns the expected groups followed by the ones named in the csv, in order of first appearance
func readGroups(r io.Reader, headers, expected []string) ([]*desiredGroup, error) {
	if len(headers) == 0 {
		return nil, fmt.Errorf("at least one group header must be provided")
	}

	reader := csv.NewReader(r)
	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("csv is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[name] = i
	}
	required := append([]string{ColumnEntityType, ColumnEntityName}, headers...)
	for _, name := range required {
		if _, ok := columns[name]; !ok {
			return nil, fmt.Errorf("csv is missing column %q", name)
		}
	}

	var order []*desiredGroup
	groups := map[string]*desiredGroup{}
	for _, name := range expected {
		if _, ok := groups[name]; name == "" || ok {
			continue
		}
		g := &desiredGroup{name: name}
		groups[name] = g
		order = append(order, g)
	}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv record: %w", err)
		}

		m := member{
			className: record[columns[ColumnEntityType]],
			name:      record[columns[ColumnEntityName]],
		}
		for _, h := range headers {
			name := record[columns[h]]
			if name == "" {
				continue
			}
			g, ok := groups[name]
			if !ok {
				g = &desiredGroup{name: name}
				groups[name] = g
				order = append(order, g)
			}
			if m.name != "" {
				g.members = append(g.members, m)
			}
		}
	}
	return order, nil
}

func sameMembers(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	x, y := slices.Clone(a), slices.Clone(b)
	slices.Sort(x)
	slices.Sort(y)
	return slices.Equal(x, y)
}

func diff(current, desired []string) (added, removed int) {
	for _, uuid := range desired {
		if !slices.Contains(current, uuid) {
			added++
		}
	}
	for _, uuid := range current {
		if !slices.Contains(desired, uuid) {
			removed++
		}
	}
	return added, removed
}
