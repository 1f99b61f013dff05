// Copyright (c) 2026 The legacyprints Authors (github.com/rhpbdev)
// All rights reserved. See LICENSE for details.

package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire and storage format of calendar dates.
const DateLayout = "2006-01-02"

// Date is a calendar date without a time of day. The zero value means
// "not set" and encodes as an empty string.
type Date struct {
	time.Time
}

// NewDate returns the date of t, dropping the clock and location.
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses "2006-01-02". An empty string yields the zero Date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	// Accept full timestamps too; only the date part is kept.
	if len(s) > len(DateLayout) && s[len(DateLayout)] == 'T' {
		s = s[:len(DateLayout)]
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{t}, nil
}

// String returns "2006-01-02" or "" for the zero Date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Scan reads a DATE column.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = Date{}
	case time.Time:
		*d = NewDate(v)
	case string:
		parsed, err := ParseDate(v)
		if err != nil {
			return err
		}
		*d = parsed
	case []byte:
		parsed, err := ParseDate(string(v))
		if err != nil {
			return err
		}
		*d = parsed
	default:
		return fmt.Errorf("scan date: unsupported type %T", src)
	}
	return nil
}

// Value writes a DATE column.
func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.Format(DateLayout), nil
}

// Memorial is the owning record for one tribute. All reads and writes are
// scoped to OwnerID.
type Memorial struct {
	ID               int64     `json:"id"`
	OwnerID          string    `json:"userId"`
	DeceasedName     string    `json:"deceasedName"`
	DeceasedPhotoURL string    `json:"deceasedPhotoUrl"`
	Quantity         int       `json:"quantity"`
	SunriseDate      Date      `json:"sunriseDate"`
	SunsetDate       Date      `json:"sunsetDate"`
	ServiceDate      Date      `json:"serviceDate"`
	ServiceTime      string    `json:"serviceTime"`
	ServiceLocation  string    `json:"serviceLocation"`
	ServiceAddress   string    `json:"serviceAddress"`
	ThemeID          int64     `json:"themeId"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// HasPhoto reports whether a cover photo is attached.
func (m *Memorial) HasPhoto() bool {
	return strings.TrimSpace(m.DeceasedPhotoURL) != ""
}

// MemorialSummary is the row shape used by dashboard listings.
type MemorialSummary struct {
	ID               int64       `json:"id"`
	DeceasedName     string      `json:"deceasedName"`
	Quantity         int         `json:"quantity"`
	ServiceDate      Date        `json:"serviceDate"`
	DeceasedPhotoURL string      `json:"deceasedPhotoUrl"`
	Theme            string      `json:"theme"`
	ProgramType      ThemeLayout `json:"programType"`
	CreatedAt        time.Time   `json:"createdAt"`
	UpdatedAt        time.Time   `json:"updatedAt"`
}

// MemorialInput carries the user-editable memorial fields. It is what
// create and update requests decode into before validation.
type MemorialInput struct {
	DeceasedName     string `json:"deceasedName" validate:"required,min=3,max=100"`
	DeceasedPhotoURL string `json:"deceasedPhotoUrl" validate:"omitempty,url"`
	Quantity         int    `json:"quantity" validate:"gt=0,min=25,max=10000,mult25"`
	ThemeID          int64  `json:"themeId" validate:"gt=0"`
	SunriseDate      Date   `json:"sunriseDate" validate:"required,notbefore100y,notafter=1"`
	SunsetDate       Date   `json:"sunsetDate" validate:"required,notbefore100y,notafter=2"`
	ServiceDate      Date   `json:"serviceDate" validate:"required,notbefore100y"`
	ServiceTime      string `json:"serviceTime" validate:"required,min=3,max=50"`
	ServiceLocation  string `json:"serviceLocation" validate:"required,min=3,max=300"`
	ServiceAddress   string `json:"serviceAddress" validate:"required,min=3,max=300"`
}

// Apply copies the input onto m, leaving identity and ownership intact.
func (in *MemorialInput) Apply(m *Memorial) {
	m.DeceasedName = strings.TrimSpace(in.DeceasedName)
	m.DeceasedPhotoURL = strings.TrimSpace(in.DeceasedPhotoURL)
	m.Quantity = in.Quantity
	m.ThemeID = in.ThemeID
	m.SunriseDate = in.SunriseDate
	m.SunsetDate = in.SunsetDate
	m.ServiceDate = in.ServiceDate
	m.ServiceTime = strings.TrimSpace(in.ServiceTime)
	m.ServiceLocation = strings.TrimSpace(in.ServiceLocation)
	m.ServiceAddress = strings.TrimSpace(in.ServiceAddress)
}
