// Package catalog serves the read-only product list the stores reference.
package catalog

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/aaravmahajanofficial/textile-storefront/internal/models"
)

//go:embed seed.json
var seed []byte

type Catalog struct {
	products []models.Product
	byID     map[string]int
}

// New indexes products by id. Ids must be present and unique.
func New(products []models.Product) (*Catalog, error) {
	c := &Catalog{
		products: make([]models.Product, 0, len(products)),
		byID:     make(map[string]int, len(products)),
	}

	for _, p := range products {
		if p.ID == "" {
			return nil, fmt.Errorf("product %q has no id", p.Name)
		}
		if _, dup := c.byID[p.ID]; dup {
			return nil, fmt.Errorf("duplicate product id %s", p.ID)
		}

		c.byID[p.ID] = len(c.products)
		c.products = append(c.products, p)
	}

	return c, nil
}

// Load reads a JSON product array from path, or the embedded seed when path
// is empty.
func Load(path string) (*Catalog, error) {
	data := seed

	if path != "" {
		var err error
		if data, err = os.ReadFile(path); err != nil {
			return nil, fmt.Errorf("failed to read catalog: %w", err)
		}
	}

	var products []models.Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	return New(products)
}

func (c *Catalog) Len() int {
	return len(c.products)
}

func (c *Catalog) Get(id string) (models.Product, bool) {
	i, ok := c.byID[id]
	if !ok {
		return models.Product{}, false
	}

	return c.products[i], true
}

// Search matches the query case-insensitively against name, description and
// brand, then narrows by category, stock and sale flags.
func (c *Catalog) Search(filter models.ProductFilter) []models.Product {
	query := strings.ToLower(strings.TrimSpace(filter.Query))

	results := []models.Product{}
	for _, p := range c.products {
		if query != "" && !matchesQuery(p, query) {
			continue
		}
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if filter.InStock && !p.InStock {
			continue
		}
		if filter.OnSale && !p.OnSale {
			continue
		}

		results = append(results, p)
	}

	return results
}

func matchesQuery(p models.Product, query string) bool {
	return strings.Contains(strings.ToLower(p.Name), query) ||
		strings.Contains(strings.ToLower(p.Description), query) ||
		strings.Contains(strings.ToLower(p.Brand), query)
}

func (c *Catalog) Featured() []models.Product {
	featured := []models.Product{}
	for _, p := range c.products {
		if p.Featured {
			featured = append(featured, p)
		}
	}

	return featured
}

// Categories lists the categories that have at least one product, in catalog
// order.
func (c *Catalog) Categories() []models.ProductCategory {
	seen := make(map[models.ProductCategory]bool)
	categories := []models.ProductCategory{}

	for _, p := range c.products {
		if !seen[p.Category] {
			seen[p.Category] = true
			categories = append(categories, p.Category)
		}
	}

	return categories
}
