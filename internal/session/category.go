package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vyconsole/vyconsole/internal/audit"
	"github.com/vyconsole/vyconsole/internal/capability"
	"github.com/vyconsole/vyconsole/internal/logging"
	"github.com/vyconsole/vyconsole/internal/opbuilder"
	"github.com/vyconsole/vyconsole/internal/vyos"
	"github.com/vyconsole/vyconsole/internal/vyosapi"
)

// ErrNotDeletable is returned when deleting from a category whose entities
// cannot be removed, such as physical interfaces.
var ErrNotDeletable = errors.New("entities of this category cannot be deleted")

// ErrNotReorderable is returned by Move for categories without rule numbers.
var ErrNotReorderable = errors.New("category is not a rule-numbered collection")

// ErrNotFound is returned when the key matches no entity.
var ErrNotFound = errors.New("entity not found")

type category[E, F any] struct {
	kind *vyos.Kind[E, F]
}

// Of wraps a kind as a Category.
func Of[E, F any](k *vyos.Kind[E, F]) Category {
	return &category[E, F]{kind: k}
}

func (c *category[E, F]) Info() vyos.Info {
	return c.kind.Info()
}

func (c *category[E, F]) NewForm() any {
	f := c.kind.Initialize(nil)
	return &f
}

func (c *category[E, F]) Capabilities(ctx context.Context, api API) (*capability.Matrix, error) {
	if !c.kind.Capabilities {
		return nil, nil
	}
	return api.GetCapabilities(ctx, c.kind.Path)
}

func (c *category[E, F]) items(ctx context.Context, api API, refresh bool) ([]E, error) {
	raw, err := api.GetConfig(ctx, c.kind.Path, refresh)
	if err != nil {
		return nil, err
	}
	return c.kind.Decode(raw)
}

func (c *category[E, F]) List(ctx context.Context, api API, refresh bool) ([]Entry, error) {
	items, err := c.items(ctx, api, refresh)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(items))
	for i := range items {
		data, err := json.Marshal(items[i])
		if err != nil {
			return nil, fmt.Errorf("encode %s entry: %w", c.kind.Name, err)
		}
		entries = append(entries, Entry{Key: c.kind.KeyOf(&items[i]), Data: data})
	}
	return entries, nil
}

// load fetches capabilities and configuration concurrently. A failed
// capability fetch is not fatal: the matrix stays nil and every gated
// field is suppressed.
func (c *category[E, F]) load(ctx context.Context, api API, refresh bool) ([]E, *capability.Matrix, error) {
	var (
		items []E
		caps  *capability.Matrix
	)

	g, gctx := errgroup.WithContext(ctx)
	if c.kind.Capabilities {
		g.Go(func() error {
			m, err := api.GetCapabilities(gctx, c.kind.Path)
			if err != nil {
				logging.Warn("Capabilities unavailable, optional fields disabled",
					zap.String("category", c.kind.Name),
					zap.Error(err))
				return nil
			}
			caps = m
			return nil
		})
	}
	g.Go(func() error {
		var err error
		items, err = c.items(gctx, api, refresh)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return items, caps, nil
}

func (c *category[E, F]) Open(ctx context.Context, api API, key vyos.Key, opts ...Option) (Editor, error) {
	if _, err := c.kind.BatchKeys(key); err != nil {
		return nil, err
	}
	items, caps, err := c.load(ctx, api, false)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", c.kind.Name, err)
	}

	e := &editor[E, F]{
		kind: c.kind,
		api:  api,
		opts: buildOptions(opts),
		key:  key,
		caps: caps,
	}
	found := c.kind.Find(items, key)
	e.form = c.kind.NewForm(found, key)
	if found != nil {
		seeded := c.kind.NewForm(found, key)
		e.origin = &seeded
		e.prev = &seeded
	}

	logging.Debug("Opened entity",
		zap.String("category", c.kind.Name),
		zap.String("key", key.String()),
		zap.String("mode", string(e.Mode())))
	return e, nil
}

// DeleteResult describes a completed delete.
type DeleteResult struct {
	Key vyos.Key
	// Reordered is set when the delete was performed by renumbering the
	// surviving rules instead of a direct delete op.
	Reordered bool
	Moves     []vyosapi.RuleMove
	Plan      opbuilder.Plan
}

func (c *category[E, F]) Delete(ctx context.Context, api API, key vyos.Key, opts ...Option) (*DeleteResult, error) {
	if c.kind.DeleteOp == "" {
		return nil, fmt.Errorf("%s: %w", c.kind.Name, ErrNotDeletable)
	}
	keys, err := c.kind.BatchKeys(key)
	if err != nil {
		return nil, err
	}
	o := buildOptions(opts)
	started := time.Now()
	event := audit.NewEvent(o.target, c.kind.Name, key.String(), audit.EventTypeDelete)

	result, err := c.delete(ctx, api, key, keys)
	if result != nil {
		event.WithOperations(result.Plan).WithMoves(len(result.Moves))
	}
	o.record(event.WithResult(err).WithDuration(time.Since(started)))
	return result, err
}

func (c *category[E, F]) delete(ctx context.Context, api API, key vyos.Key, keys map[string]any) (*DeleteResult, error) {
	result := &DeleteResult{Key: key}

	items, err := c.items(ctx, api, false)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", c.kind.Name, err)
	}
	if c.kind.Find(items, key) == nil {
		return nil, fmt.Errorf("%s %s: %w", c.kind.Name, key, ErrNotFound)
	}

	if c.kind.ListKey != "" {
		list := key[c.kind.ListKey]
		rules, err := c.kind.Rules(items, list)
		if err != nil {
			return nil, err
		}
		number, _ := strconv.Atoi(key[c.kind.RuleKey])
		plan, err := opbuilder.CloseGaps(rules, number)
		if err != nil {
			return nil, err
		}
		if plan.Reorder {
			result.Reordered = true
			result.Moves = plan.Moves
			logging.Info("Deleting rule by renumbering",
				zap.String("category", c.kind.Name),
				zap.String("list", list),
				zap.Int("deleted", number),
				zap.Int("survivors", len(plan.Moves)))
			_, err := api.ApplyReorder(ctx, c.kind.Path, &vyosapi.ReorderRequest{
				ListKey: c.kind.ListKey,
				List:    list,
				Rules:   plan.Moves,
			})
			return result, err
		}
	}

	result.Plan = opbuilder.Plan{opbuilder.Set(c.kind.DeleteOp)}
	_, err = api.ApplyBatch(ctx, c.kind.Path, vyosapi.NewBatchRequest(keys, result.Plan))
	return result, err
}

// MoveResult describes a completed rule move.
type MoveResult struct {
	List string
	Rule int
	// Moves holds every surviving rule with its new number; empty when the
	// rule was already in place.
	Moves []vyosapi.RuleMove
}

// Changed reports whether any rule was renumbered.
func (r *MoveResult) Changed() bool {
	return len(r.Moves) > 0
}

func (c *category[E, F]) Move(ctx context.Context, api API, list string, rule, position int, opts ...Option) (*MoveResult, error) {
	if c.kind.ListKey == "" || c.kind.RuleKey == "" {
		return nil, fmt.Errorf("%s: %w", c.kind.Name, ErrNotReorderable)
	}
	o := buildOptions(opts)
	started := time.Now()
	result := &MoveResult{List: list, Rule: rule}

	items, err := c.items(ctx, api, false)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", c.kind.Name, err)
	}
	rules, err := c.kind.Rules(items, list)
	if err != nil {
		return nil, err
	}
	plan, err := opbuilder.MoveRule(rules, rule, position)
	if err != nil {
		return nil, err
	}
	if !plan.Reorder {
		return result, nil
	}
	result.Moves = plan.Moves

	key := vyos.Key{c.kind.ListKey: list, c.kind.RuleKey: strconv.Itoa(rule)}
	event := audit.NewEvent(o.target, c.kind.Name, key.String(), audit.EventTypeReorder).WithMoves(len(plan.Moves))
	_, err = api.ApplyReorder(ctx, c.kind.Path, &vyosapi.ReorderRequest{
		ListKey: c.kind.ListKey,
		List:    list,
		Rules:   plan.Moves,
	})
	o.record(event.WithResult(err).WithDuration(time.Since(started)))
	return result, err
}

func warnAudit(err error) {
	logging.Warn("Failed to record audit event", zap.Error(err))
}
