package http

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fjod/shopeasy/internal/catalog"
	"github.com/fjod/shopeasy/internal/checkout"
	"github.com/fjod/shopeasy/internal/domain"
)

type catalogMock struct {
	m        sync.Mutex
	products map[int64]*domain.Product
	nextID   int64
	err      error
}

func newCatalogMock(products ...domain.Product) *catalogMock {
	c := &catalogMock{products: map[int64]*domain.Product{}}
	for i := range products {
		p := products[i]
		c.products[p.ID] = &p
		if p.ID > c.nextID {
			c.nextID = p.ID
		}
	}
	return c
}

func (c *catalogMock) Create(_ context.Context, p *domain.Product) error {
	c.m.Lock()
	defer c.m.Unlock()
	if c.err != nil {
		return c.err
	}
	for _, existing := range c.products {
		if existing.Title == p.Title {
			return catalog.ErrDuplicateTitle
		}
	}
	c.nextID++
	p.ID = c.nextID
	stored := *p
	c.products[p.ID] = &stored
	return nil
}

func (c *catalogMock) Get(_ context.Context, id int64) (*domain.Product, error) {
	c.m.Lock()
	defer c.m.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	p, ok := c.products[id]
	if !ok {
		return nil, catalog.ErrProductNotFound
	}
	out := *p
	return &out, nil
}

func (c *catalogMock) Update(_ context.Context, p *domain.Product) error {
	c.m.Lock()
	defer c.m.Unlock()
	if _, ok := c.products[p.ID]; !ok {
		return catalog.ErrProductNotFound
	}
	stored := *p
	c.products[p.ID] = &stored
	return nil
}

func (c *catalogMock) Delete(_ context.Context, id int64) error {
	c.m.Lock()
	defer c.m.Unlock()
	if _, ok := c.products[id]; !ok {
		return catalog.ErrProductNotFound
	}
	delete(c.products, id)
	return nil
}

func (c *catalogMock) List(_ context.Context, limit int) ([]*domain.Product, error) {
	c.m.Lock()
	defer c.m.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	out := make([]*domain.Product, 0, len(c.products))
	for id := int64(1); id <= c.nextID; id++ {
		if p, ok := c.products[id]; ok {
			out = append(out, p)
		}
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

type publisherMock struct {
	m      sync.Mutex
	orders []*checkout.Order
	err    error
	delay  time.Duration
}

func (p *publisherMock) Publish(_ context.Context, order *checkout.Order) error {
	time.Sleep(p.delay)
	p.m.Lock()
	defer p.m.Unlock()
	if p.err != nil {
		return p.err
	}
	p.orders = append(p.orders, order)
	return nil
}

var errBrokerDown = errors.New("broker down")
