package catalog

import (
	"context"
	"errors"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/apt/seed"
	"go.mongodb.org/mongo-driver/mongo"
)

const catalogSeedApplication = "catalog_demo"

// ApplyDemoSeeds creates a small demo product lineup covering the main
// customization shapes: variant class codes, fallback modifier codes and a
// no-options product.
func ApplyDemoSeeds(ctx context.Context, repo ProductRepo, db *mongo.Database, logger apt.Logger) error {
	if db == nil {
		return errors.New("database is required for demo seeding")
	}

	tracker := seed.NewMongoTracker(db)

	seeds := []seed.Seed{
		{
			ID:          "2026-08-12_demo_products_v1",
			Description: "Seed demo products covering variant, fallback and plain configurations",
			Run: func(ctx context.Context) error {
				return seedDemoProducts(ctx, repo, logger)
			},
		},
	}

	logger.Info("Applying demo product seeds")
	if err := seed.Apply(ctx, tracker, seeds, catalogSeedApplication); err != nil {
		return err
	}
	logger.Info("Demo product seeds applied successfully")
	return nil
}

func seedDemoProducts(ctx context.Context, repo ProductRepo, logger apt.Logger) error {
	for _, product := range demoProducts() {
		product.BeforeCreate()
		if err := repo.Create(ctx, product); err != nil {
			return err
		}
		logger.Info("seeded demo product", "name", product.Name, "type", product.Type)
	}
	return nil
}

func demoProducts() []*Product {
	latte := NewProduct("Latte", TypeCoffee)
	latte.Price = 4.5
	latte.RequiredIngredientCodes = []string{"CupSmall", "BeanHopper1", "MilkFresh", "Water"}
	latte.ProductionTemplate = `[{"ClassCode":"5001"},{"BeanCode":"1"},{"MilkCode":"1"}]`
	latte.HasBeanOptions = true
	latte.HasMilkOptions = true
	latte.HasIceOptions = true
	latte.HasShotOptions = true
	latte.HasLatteArt = true
	latte.IcedClassCode = "5101"
	latte.DoubleShotClassCode = "5102"
	latte.IcedAndDoubleClassCode = "5103"

	americano := NewProduct("Americano", TypeCoffee)
	americano.Price = 3.0
	americano.RequiredIngredientCodes = []string{"CupSmall", "BeanHopper1", "Water"}
	americano.ProductionTemplate = `[{"ClassCode":"5010"},{"BeanCode":"1"}]`
	americano.HasBeanOptions = true
	americano.HasIceOptions = true
	americano.HasShotOptions = true

	greenTea := NewProduct("Green Tea", TypeTea)
	greenTea.Price = 2.5
	greenTea.RequiredIngredientCodes = []string{"CupSmall", "TeaLeaf1", "Water"}
	greenTea.ProductionTemplate = `[{"ClassCode":"6001"}]`

	softServe := NewProduct("Soft Serve", TypeIceCream)
	softServe.Price = 3.5
	softServe.RequiredIngredientCodes = []string{"CupSmall", "IceCreamMix"}
	softServe.ProductionTemplate = `[{"ClassCode":"7001"}]`

	return []*Product{latte, americano, greenTea, softServe}
}

// DemoSeedingFunc wraps demo seeding as a lifecycle start hook so it does not
// block service startup.
func DemoSeedingFunc(seedCtx context.Context, repo ProductRepo, db *mongo.Database, logger apt.Logger) func(ctx context.Context) error {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}

	return func(ctx context.Context) error {
		logger.Info("Starting demo product seeding in background")
		go func() {
			if err := ApplyDemoSeeds(seedCtx, repo, db, logger); err != nil && !errors.Is(err, context.Canceled) {
				logger.Errorf("demo product seeds failed: %v", err)
			} else if err == nil {
				logger.Info("Demo product seeding completed")
			}
		}()
		return nil
	}
}
