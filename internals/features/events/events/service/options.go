// file: internals/features/events/events/service/options.go
package service

import (
	"time"

	"github.com/google/uuid"
)

// Caller: identitas yang sudah diverifikasi oleh middleware auth.
type Caller struct {
	UserID        uuid.UUID
	PlatformAdmin bool
}

type Options struct {
	DefaultTimezone string
	Horizon         time.Duration // batas maju materialisasi dari "now"
	DefaultPageSize int
	MaxPageSize     int
	OrgConcurrency  int // paralelisme materialisasi per organisasi
	ExportMaxItems  int
}

func (o Options) withDefaults() Options {
	if o.Horizon <= 0 {
		o.Horizon = 365 * 24 * time.Hour
	}
	if o.DefaultPageSize <= 0 {
		o.DefaultPageSize = 25
	}
	if o.MaxPageSize <= 0 {
		o.MaxPageSize = 200
	}
	if o.DefaultPageSize > o.MaxPageSize {
		o.DefaultPageSize = o.MaxPageSize
	}
	if o.OrgConcurrency <= 0 {
		o.OrgConcurrency = 4
	}
	if o.ExportMaxItems <= 0 {
		o.ExportMaxItems = 2000
	}
	return o
}
