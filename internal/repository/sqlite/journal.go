package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/workpulse-hr/punch-agent-go/internal/domain/punch"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// attemptRecord is the journal row. Reasons are stored joined; the journal is
// history and export material only and never feeds attendance state.
type attemptRecord struct {
	AttemptID   string `gorm:"primaryKey;column:attempt_id"`
	Mode        string
	Phase       string
	Status      string
	Reasons     string
	WifiSSID    string `gorm:"column:wifi_ssid"`
	WifiBSSID   string `gorm:"column:wifi_bssid"`
	LocalIP     string `gorm:"column:local_ip"`
	PublicIP    string `gorm:"column:public_ip"`
	Latitude    float64
	Longitude   float64
	Address     string
	DeviceInfo  string
	StartedAt   time.Time
	CompletedAt time.Time
}

func (attemptRecord) TableName() string { return "punch_attempts" }

type JournalRepository struct {
	db *gorm.DB
}

// NewJournalRepository opens (creating if needed) the journal database at
// path and migrates the schema.
func NewJournalRepository(path string) (*JournalRepository, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open journal database: %w", err)
	}

	if err := db.AutoMigrate(&attemptRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate journal schema: %w", err)
	}

	return &JournalRepository{db: db}, nil
}

func (r *JournalRepository) Record(ctx context.Context, entry punch.JournalEntry) error {
	record := attemptRecord{
		AttemptID:   entry.AttemptID,
		Mode:        string(entry.Mode),
		Phase:       entry.Phase,
		Status:      entry.Status,
		Reasons:     strings.Join(entry.Reasons, "|"),
		WifiSSID:    entry.Wifi.SSID,
		WifiBSSID:   entry.Wifi.BSSID,
		LocalIP:     entry.Wifi.LocalIP,
		PublicIP:    entry.Wifi.PublicIP,
		Latitude:    entry.Location.Latitude,
		Longitude:   entry.Location.Longitude,
		Address:     entry.Location.Address,
		DeviceInfo:  entry.DeviceInfo,
		StartedAt:   entry.StartedAt,
		CompletedAt: entry.CompletedAt,
	}

	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("failed to record punch attempt: %w", err)
	}
	return nil
}

func (r *JournalRepository) List(ctx context.Context, from, to time.Time) ([]punch.JournalEntry, error) {
	var records []attemptRecord
	query := r.db.WithContext(ctx).Order("started_at asc")
	if !from.IsZero() {
		query = query.Where("started_at >= ?", from)
	}
	if !to.IsZero() {
		query = query.Where("started_at < ?", to)
	}
	if err := query.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to list punch attempts: %w", err)
	}

	entries := make([]punch.JournalEntry, 0, len(records))
	for _, record := range records {
		var reasons []string
		if record.Reasons != "" {
			reasons = strings.Split(record.Reasons, "|")
		}
		entries = append(entries, punch.JournalEntry{
			AttemptID: record.AttemptID,
			Mode:      punch.Mode(record.Mode),
			Phase:     record.Phase,
			Status:    record.Status,
			Reasons:   reasons,
			Wifi: punch.WifiInfo{
				SSID:     record.WifiSSID,
				BSSID:    record.WifiBSSID,
				LocalIP:  record.LocalIP,
				PublicIP: record.PublicIP,
			},
			Location: punch.LocationInfo{
				Latitude:  record.Latitude,
				Longitude: record.Longitude,
				Address:   record.Address,
			},
			DeviceInfo:  record.DeviceInfo,
			StartedAt:   record.StartedAt,
			CompletedAt: record.CompletedAt,
		})
	}
	return entries, nil
}
