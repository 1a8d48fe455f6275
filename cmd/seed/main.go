// Command seed populates an empty storefront database with a demo catalog:
// categories, products, the category grid and the homepage sections. It
// reads the same environment as the server and refuses to run twice.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/utafrali/storefront/internal/config"
	"github.com/utafrali/storefront/internal/repository"
	pgrepo "github.com/utafrali/storefront/internal/repository/postgres"
	"github.com/utafrali/storefront/internal/service"
	"github.com/utafrali/storefront/migrations"
	"github.com/utafrali/storefront/pkg/database"
	"github.com/utafrali/storefront/pkg/logger"
)

type categoryDef struct {
	name        string
	description string
}

type productDef struct {
	name        string
	description string
	category    string
	price       int64
	stock       int
	attributes  map[string]string
}

var categories = []categoryDef{
	{name: "Lighting", description: "Lamps, pendants and fairy lights"},
	{name: "Kitchen", description: "Cookware and serving pieces"},
	{name: "Textiles", description: "Cushions, throws and table linen"},
	{name: "Decor", description: "Vases, frames and wall art"},
}

var products = []productDef{
	{name: "Brass Table Lamp", description: "Hand-finished brass lamp with a linen shade.", category: "Lighting", price: 2499, stock: 25,
		attributes: map[string]string{"material": "brass", "height": "45cm"}},
	{name: "Rattan Pendant", description: "Woven rattan pendant for dining spaces.", category: "Lighting", price: 1899, stock: 12},
	{name: "Copper Fairy Lights", description: "Ten metres of warm white copper wire lights.", category: "Lighting", price: 499, stock: 80},
	{name: "Cast Iron Skillet", description: "Pre-seasoned 26cm skillet.", category: "Kitchen", price: 1599, stock: 30,
		attributes: map[string]string{"diameter": "26cm"}},
	{name: "Terracotta Serving Bowl", description: "Glazed terracotta bowl for salads and curries.", category: "Kitchen", price: 699, stock: 40},
	{name: "Block Print Cushion Cover", description: "Hand block printed cotton, 45x45cm.", category: "Textiles", price: 399, stock: 100,
		attributes: map[string]string{"size": "45x45cm", "material": "cotton"}},
	{name: "Kantha Throw", description: "Layered cotton throw with kantha stitching.", category: "Textiles", price: 2199, stock: 15},
	{name: "Linen Table Runner", description: "Stonewashed linen runner, 180cm.", category: "Textiles", price: 899, stock: 35},
	{name: "Ceramic Bud Vase", description: "Set of three speckled bud vases.", category: "Decor", price: 749, stock: 45},
	{name: "Mango Wood Frame", description: "Carved mango wood photo frame, 5x7in.", category: "Decor", price: 599, stock: 50},
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log := logger.New("seed", cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	pool, err := database.NewPostgresPool(ctx, database.PostgresConfig{URL: cfg.PostgresDSN()}, log)
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := database.RunMigrations(ctx, pool, migrations.FS, log); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	productRepo := pgrepo.NewProductRepository(pool)
	_, total, err := productRepo.List(ctx, repository.ProductFilter{Page: 1, PerPage: 1})
	if err != nil {
		return fmt.Errorf("count products: %w", err)
	}
	if total > 0 {
		log.Info("catalog already has products, nothing to do", slog.Int("products", total))
		return nil
	}

	catalog := service.NewCatalogService(productRepo,
		pgrepo.NewCategoryRepository(pool),
		pgrepo.NewCategoryGridRepository(pool),
		pgrepo.NewHomepageSectionRepository(pool),
		log,
	)

	categoryIDs := make(map[string]int64, len(categories))
	for i, def := range categories {
		c, err := catalog.CreateCategory(ctx, service.CategoryInput{
			Name:        def.name,
			Description: def.description,
			SortOrder:   i + 1,
		})
		if err != nil {
			return fmt.Errorf("create category %q: %w", def.name, err)
		}
		categoryIDs[def.name] = c.ID

		if _, err := catalog.CreateGrid(ctx, service.GridInput{CategoryID: c.ID}); err != nil {
			return fmt.Errorf("create grid tile for %q: %w", def.name, err)
		}
	}
	log.Info("categories seeded", slog.Int("count", len(categories)))

	for _, def := range products {
		categoryID := categoryIDs[def.category]
		p, err := catalog.CreateProduct(ctx, service.ProductInput{
			Name:              def.name,
			Description:       def.description,
			Price:             def.price,
			Stock:             def.stock,
			CategoryIDs:       []int64{categoryID},
			DefaultCategoryID: &categoryID,
			Attributes:        def.attributes,
		})
		if err != nil {
			return fmt.Errorf("create product %q: %w", def.name, err)
		}
		log.Debug("product created", slog.Int64("id", p.ID), slog.String("slug", p.Slug))
	}
	log.Info("products seeded", slog.Int("count", len(products)))

	for i, name := range []string{"Lighting", "Textiles"} {
		id := categoryIDs[name]
		if _, err := catalog.CreateSection(ctx, service.SectionInput{
			Name:       "Featured " + name,
			CategoryID: &id,
			SortOrder:  i + 1,
		}); err != nil {
			return fmt.Errorf("create homepage section: %w", err)
		}
	}
	log.Info("homepage sections seeded")

	return nil
}
