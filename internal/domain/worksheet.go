package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// StringArray stores a row of cells as JSON in the database.
type StringArray []string

// Value implements the driver.Valuer interface for database serialization.
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = StringArray{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		str, ok := value.(string)
		if !ok {
			return errors.New("failed to scan StringArray")
		}
		bytes = []byte(str)
	}
	return json.Unmarshal(bytes, a)
}

// Worksheet is a named tab inside a spreadsheet of the log store.
type Worksheet struct {
	ID            string    `gorm:"type:text;primaryKey" json:"id"`
	SpreadsheetID string    `gorm:"type:text;not null;index:idx_worksheets_name,unique" json:"spreadsheet_id"`
	Name          string    `gorm:"type:text;not null;index:idx_worksheets_name,unique" json:"name"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName returns the database table name for Worksheet.
func (Worksheet) TableName() string {
	return "worksheets"
}

// WorksheetRow is one row of a worksheet. Position 0 is the first row (A1 row).
type WorksheetRow struct {
	ID          uint        `gorm:"primaryKey;autoIncrement" json:"id"`
	WorksheetID string      `gorm:"type:text;not null;index:idx_rows_position,unique" json:"worksheet_id"`
	Position    int         `gorm:"not null;index:idx_rows_position,unique" json:"position"`
	Cells       StringArray `gorm:"type:text" json:"cells"`
	CreatedAt   time.Time   `json:"created_at"`
}

// TableName returns the database table name for WorksheetRow.
func (WorksheetRow) TableName() string {
	return "worksheet_rows"
}
