package models

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"gorm.io/gorm"
)

// Setting represents a system setting row (key/value with a type tag)
type Setting struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Key       string    `gorm:"column:setting_key;size:255;not null;uniqueIndex" json:"key" validate:"required,min=1,max=255"`
	Value     string    `gorm:"type:text" json:"value"`
	Type      string    `gorm:"size:50;not null" json:"type" validate:"required"` // string, boolean, integer, float
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AppSettings is the in-memory application settings structure
type AppSettings struct {
	CommissionPercentageOnSoldPosters float64 `json:"commission_percentage_on_sold_posters"`
	AutoReleaseOrdersAfter            time.Duration
	BannerPriceForDay                 float64 `json:"banner_price_for_day"`
	SponsorPriceForDay                float64 `json:"sponsor_price_for_day"`
	AdvertorialPriceForDay            float64 `json:"advertorial_price_for_day"`
	mu                                sync.RWMutex
}

var (
	appSettings *AppSettings
	settingsMu  sync.RWMutex
)

// GetAppSettings returns the current application settings
func GetAppSettings() *AppSettings {
	settingsMu.RLock()
	defer settingsMu.RUnlock()
	if appSettings == nil {
		return defaultSettings()
	}
	return appSettings
}

func defaultSettings() *AppSettings {
	return &AppSettings{
		CommissionPercentageOnSoldPosters: 6,
		AutoReleaseOrdersAfter:            7 * 24 * time.Hour,
		BannerPriceForDay:                 5,
		SponsorPriceForDay:                10,
		AdvertorialPriceForDay:            8,
	}
}

// LoadSettings loads settings from database into memory
func LoadSettings(db *gorm.DB) error {
	settingsMu.Lock()
	defer settingsMu.Unlock()

	appSettings = defaultSettings()

	var settings []Setting
	if err := db.Find(&settings).Error; err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	for _, s := range settings {
		switch s.Key {
		case "commission_percentage_on_sold_posters":
			if v, err := strconv.ParseFloat(s.Value, 64); err == nil {
				appSettings.CommissionPercentageOnSoldPosters = v
			}
		case "auto_release_orders_time":
			// stored in hours
			if v, err := strconv.Atoi(s.Value); err == nil && v > 0 {
				appSettings.AutoReleaseOrdersAfter = time.Duration(v) * time.Hour
			}
		case "banner_price_for_day":
			if v, err := strconv.ParseFloat(s.Value, 64); err == nil {
				appSettings.BannerPriceForDay = v
			}
		case "sponsor_price_for_day":
			if v, err := strconv.ParseFloat(s.Value, 64); err == nil {
				appSettings.SponsorPriceForDay = v
			}
		case "advertorial_price_for_day":
			if v, err := strconv.ParseFloat(s.Value, 64); err == nil {
				appSettings.AdvertorialPriceForDay = v
			}
		}
	}

	return nil
}

// GetCommissionPercentage returns the commission applied to poster sales
func (s *AppSettings) GetCommissionPercentage() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.CommissionPercentageOnSoldPosters
}

// GetAutoReleaseWindow returns the grace window after which paid and
// delivered orders are force-released
func (s *AppSettings) GetAutoReleaseWindow() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.AutoReleaseOrdersAfter
}

// AdPriceForDay returns the per-day price for an advertisement type
func (s *AppSettings) AdPriceForDay(adType string) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch adType {
	case AdTypeSponsor:
		return s.SponsorPriceForDay
	case AdTypeAdvertorial:
		return s.AdvertorialPriceForDay
	default:
		return s.BannerPriceForDay
	}
}
