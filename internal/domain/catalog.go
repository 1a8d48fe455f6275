package domain

import "time"

// HomepageSectionProductLimit bounds the products embedded in a section view.
const HomepageSectionProductLimit = 12

// Product is a catalog item. Price is in the currency's minor unit.
type Product struct {
	ID                int64             `json:"id"`
	Name              string            `json:"name"`
	Slug              string            `json:"slug"`
	Description       string            `json:"description"`
	Price             int64             `json:"price"`
	Stock             int               `json:"stock"`
	Images            []string          `json:"images"`
	CategoryIDs       []int64           `json:"categoryIds"`
	DefaultCategoryID *int64            `json:"defaultCategoryId,omitempty"`
	Attributes        map[string]string `json:"attributes,omitempty"`
	CreatedAt         time.Time         `json:"createdAt"`
	UpdatedAt         time.Time         `json:"updatedAt"`
}

// FirstImage returns the product's lead image, or "" when it has none.
func (p *Product) FirstImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// InStock reports whether quantity units can be sold.
func (p *Product) InStock(quantity int) bool {
	return p.Stock >= quantity
}

// Category is a node in the category tree.
type Category struct {
	ID          int64      `json:"id"`
	Name        string     `json:"name"`
	Slug        string     `json:"slug"`
	Description string     `json:"description"`
	Image       *string    `json:"image,omitempty"`
	ParentID    *int64     `json:"parentId,omitempty"`
	SortOrder   int        `json:"sortOrder"`
	Published   bool       `json:"published"`
	Children    []Category `json:"children,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// BuildCategoryTree attaches children to their parents. Categories whose
// parent is absent from the input are treated as roots. Input order is kept
// within each level.
func BuildCategoryTree(flat []Category) []Category {
	byParent := make(map[int64][]Category)
	present := make(map[int64]bool, len(flat))
	for _, c := range flat {
		present[c.ID] = true
	}

	var roots []Category
	for _, c := range flat {
		if c.ParentID != nil && present[*c.ParentID] {
			byParent[*c.ParentID] = append(byParent[*c.ParentID], c)
			continue
		}
		roots = append(roots, c)
	}

	var attach func(nodes []Category, depth int) []Category
	attach = func(nodes []Category, depth int) []Category {
		// A cycle in parent ids cannot nest deeper than the input size.
		if depth > len(flat) {
			return nodes
		}
		for i := range nodes {
			if kids := byParent[nodes[i].ID]; len(kids) > 0 {
				nodes[i].Children = attach(kids, depth+1)
			}
		}
		return nodes
	}

	if roots == nil {
		return []Category{}
	}
	return attach(roots, 0)
}

// CategoryGrid places a category tile on the shop front.
type CategoryGrid struct {
	ID         int64     `json:"id"`
	CategoryID int64     `json:"categoryId"`
	Order      int       `json:"order"`
	IsVisible  bool      `json:"isVisible"`
	Category   *Category `json:"category,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// HomepageSection is a curated homepage row, usually backed by a category.
type HomepageSection struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Type       string    `json:"type"`
	CategoryID *int64    `json:"categoryId,omitempty"`
	SortOrder  int       `json:"sortOrder"`
	IsActive   bool      `json:"isActive"`
	Category   *Category `json:"category,omitempty"`
	Products   []Product `json:"products,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}
