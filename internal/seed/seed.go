package seed

import (
	"context"
	"fmt"
	"os"
	"strings"

	"hotelpos/internal/models"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v2"
)

// Catalog is the static inventory loaded at install time.
type Catalog struct {
	Rooms        []models.Room `yaml:"rooms"`
	RateProducts []RateProduct `yaml:"rate_products"`
	Items        []Item        `yaml:"items"`
}

type RateProduct struct {
	Description string           `yaml:"description"`
	RoomType    string           `yaml:"room_type"`
	RoomVariant string           `yaml:"room_variant"`
	BoardType   models.BoardType `yaml:"board_type"`
	DailyRate   string           `yaml:"daily_rate_usd"`
}

type Item struct {
	Name           string       `yaml:"name"`
	Category       string       `yaml:"category"`
	Price          string       `yaml:"price_usd"`
	HappyHourPrice string       `yaml:"happy_hour_price_usd"`
	Stock          int          `yaml:"stock"`
	Active         *bool        `yaml:"active"`
	Ingredients    []Ingredient `yaml:"ingredients"`
}

type Ingredient struct {
	Name     string `yaml:"name"`
	Quantity string `yaml:"quantity"`
	Unit     string `yaml:"unit"`
}

type Rooms interface {
	List(ctx context.Context) ([]*models.Room, error)
	Create(ctx context.Context, room *models.Room) error
}

type Products interface {
	ListItems(ctx context.Context) ([]*models.Item, error)
	CreateItem(ctx context.Context, item *models.Item) error
	ListRateProducts(ctx context.Context) ([]*models.ReservationItem, error)
	CreateRateProduct(ctx context.Context, item *models.ReservationItem) error
}

type Result struct {
	Rooms        int
	RateProducts int
	Items        int
}

func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	return &c, nil
}

// Apply creates the catalog entries that do not exist yet. Rooms match by
// number, items by name, rate products by description and room type.
func Apply(ctx context.Context, c *Catalog, rooms Rooms, products Products, logger *zerolog.Logger) (Result, error) {
	var res Result

	existingRooms, err := rooms.List(ctx)
	if err != nil {
		return res, err
	}
	roomNumbers := make(map[string]bool, len(existingRooms))
	for _, r := range existingRooms {
		roomNumbers[r.Number] = true
	}
	for i := range c.Rooms {
		room := c.Rooms[i]
		if roomNumbers[strings.TrimSpace(room.Number)] {
			continue
		}
		if err := rooms.Create(ctx, &room); err != nil {
			return res, fmt.Errorf("room %s: %w", room.Number, err)
		}
		roomNumbers[room.Number] = true
		res.Rooms++
	}

	existingProducts, err := products.ListRateProducts(ctx)
	if err != nil {
		return res, err
	}
	productKeys := make(map[string]bool, len(existingProducts))
	for _, p := range existingProducts {
		productKeys[productKey(p.Description, p.RoomType)] = true
	}
	for _, p := range c.RateProducts {
		key := productKey(p.Description, p.RoomType)
		if productKeys[key] {
			continue
		}
		rate, err := decimal.NewFromString(p.DailyRate)
		if err != nil {
			return res, fmt.Errorf("rate product %q: bad daily rate %q", p.Description, p.DailyRate)
		}
		item := &models.ReservationItem{
			Description:  p.Description,
			RoomType:     p.RoomType,
			RoomVariant:  p.RoomVariant,
			BoardType:    p.BoardType,
			DailyRateUSD: rate,
		}
		if err := products.CreateRateProduct(ctx, item); err != nil {
			return res, fmt.Errorf("rate product %q: %w", p.Description, err)
		}
		productKeys[key] = true
		res.RateProducts++
	}

	existingItems, err := products.ListItems(ctx)
	if err != nil {
		return res, err
	}
	itemNames := make(map[string]bool, len(existingItems))
	for _, it := range existingItems {
		itemNames[it.Name] = true
	}
	for _, it := range c.Items {
		if itemNames[strings.TrimSpace(it.Name)] {
			continue
		}
		item, err := it.model()
		if err != nil {
			return res, err
		}
		if err := products.CreateItem(ctx, item); err != nil {
			return res, fmt.Errorf("item %q: %w", it.Name, err)
		}
		itemNames[item.Name] = true
		res.Items++
	}

	if logger != nil {
		logger.Info().
			Int("rooms", res.Rooms).
			Int("rate_products", res.RateProducts).
			Int("items", res.Items).
			Msg("catalog seeded")
	}
	return res, nil
}

func (it Item) model() (*models.Item, error) {
	price, err := decimal.NewFromString(it.Price)
	if err != nil {
		return nil, fmt.Errorf("item %q: bad price %q", it.Name, it.Price)
	}
	item := &models.Item{
		Name:          strings.TrimSpace(it.Name),
		Category:      it.Category,
		PriceUSD:      price,
		StockQuantity: it.Stock,
		Active:        it.Active == nil || *it.Active,
	}
	if it.HappyHourPrice != "" {
		hh, err := decimal.NewFromString(it.HappyHourPrice)
		if err != nil {
			return nil, fmt.Errorf("item %q: bad happy hour price %q", it.Name, it.HappyHourPrice)
		}
		item.HappyHourPriceUSD = &hh
	}
	for _, ing := range it.Ingredients {
		qty := decimal.Zero
		if ing.Quantity != "" {
			if qty, err = decimal.NewFromString(ing.Quantity); err != nil {
				return nil, fmt.Errorf("item %q: bad ingredient quantity %q", it.Name, ing.Quantity)
			}
		}
		item.Ingredients = append(item.Ingredients, models.ItemIngredient{Name: ing.Name, Quantity: qty, Unit: ing.Unit})
	}
	return item, nil
}

func productKey(description, roomType string) string {
	return strings.ToLower(strings.TrimSpace(description)) + "|" + strings.ToLower(strings.TrimSpace(roomType))
}
