package domain

import "time"

type FoodType string

const (
	FoodTypeBakery     FoodType = "bakery"
	FoodTypeCafe       FoodType = "cafe"
	FoodTypeRestaurant FoodType = "restaurant"
	FoodTypeGrocery    FoodType = "grocery"
	FoodTypeOther      FoodType = "other"
)

func (f FoodType) Valid() bool {
	switch f {
	case FoodTypeBakery, FoodTypeCafe, FoodTypeRestaurant, FoodTypeGrocery, FoodTypeOther:
		return true
	}
	return false
}

type Address struct {
	Street string `json:"street"`
	City   string `json:"city"`
	Region string `json:"region"`
}

// PickupWindow holds times of day in "HH:MM" form.
type PickupWindow struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type SurpriseBag struct {
	Price          float64 `json:"price"`
	OriginalPrice  float64 `json:"original_price"`
	AvailableCount int     `json:"available_count"`
}

// Vendor is a food business offering surprise bags. AvailableCount is
// only mutated through the reservation service, except for the
// administrative override which bypasses reservation accounting.
type Vendor struct {
	ID                 string       `json:"id"`
	Name               string       `json:"name"`
	Description        string       `json:"description"`
	FoodType           FoodType     `json:"food_type"`
	Address            Address      `json:"address"`
	Longitude          float64      `json:"longitude"`
	Latitude           float64      `json:"latitude"`
	PickupWindow       PickupWindow `json:"pickup_window"`
	PickupInstructions string       `json:"pickup_instructions"`
	LogoURL            string       `json:"logo_url"`
	BannerURL          string       `json:"banner_url"`
	IsActive           bool         `json:"is_active"`
	SurpriseBag        SurpriseBag  `json:"surprise_bag"`
	CreatedAt          time.Time    `json:"created_at"`
	UpdatedAt          time.Time    `json:"updated_at"`
}
