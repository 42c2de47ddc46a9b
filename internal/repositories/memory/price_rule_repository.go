package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"shuttle/internal/models"
	"shuttle/internal/repositories/interfaces"
)

type priceRuleRepository struct {
	store *Store
}

func NewPriceRuleRepository(store *Store) interfaces.PriceRuleRepository {
	return &priceRuleRepository{store: store}
}

func (r *priceRuleRepository) GetByID(ctx context.Context, id string) (*models.PriceRule, error) {
	defer r.store.lock(ctx)()

	rule, ok := r.store.prices[id]
	if !ok {
		return nil, fmt.Errorf("price rule %s: %w", id, interfaces.ErrNotFound)
	}
	return &rule, nil
}

func (r *priceRuleRepository) List(ctx context.Context) ([]*models.PriceRule, error) {
	defer r.store.lock(ctx)()

	rules := make([]*models.PriceRule, 0, len(r.store.prices))
	for _, rule := range r.store.prices {
		rule := rule
		rules = append(rules, &rule)
	}
	sort.Slice(rules, func(i, j int) bool { return rules[i].ID < rules[j].ID })
	return rules, nil
}

func (r *priceRuleRepository) Upsert(ctx context.Context, rule *models.PriceRule) error {
	defer r.store.lock(ctx)()

	now := time.Now()
	if existing, ok := r.store.prices[rule.ID]; ok {
		rule.CreatedAt = existing.CreatedAt
	} else {
		rule.CreatedAt = now
	}
	rule.UpdatedAt = now
	r.store.prices[rule.ID] = *rule
	r.store.wrote()
	return nil
}

func (r *priceRuleRepository) Delete(ctx context.Context, id string) error {
	defer r.store.lock(ctx)()

	if _, ok := r.store.prices[id]; !ok {
		return fmt.Errorf("price rule %s: %w", id, interfaces.ErrNotFound)
	}
	delete(r.store.prices, id)
	r.store.wrote()
	return nil
}
