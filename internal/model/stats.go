package model

import "time"

// EndpointHit is one recorded read of a public resource.
type EndpointHit struct {
	ID        int64
	App       string
	URI       string
	IP        string
	Timestamp time.Time
}

// EndpointHitDto is the wire representation of a hit.
type EndpointHitDto struct {
	ID        int64    `json:"id,omitempty"`
	App       string   `json:"app" validate:"required,max=255"`
	URI       string   `json:"uri" validate:"required,max=512"`
	IP        string   `json:"ip" validate:"required,ip"`
	Timestamp DateTime `json:"timestamp"`
}

// Hit converts d to the stored form.
func (d EndpointHitDto) Hit() EndpointHit {
	return EndpointHit{ID: d.ID, App: d.App, URI: d.URI, IP: d.IP, Timestamp: d.Timestamp.UTC()}
}

// Dto converts h to its wire representation.
func (h EndpointHit) Dto() EndpointHitDto {
	return EndpointHitDto{ID: h.ID, App: h.App, URI: h.URI, IP: h.IP, Timestamp: NewDateTime(h.Timestamp)}
}

// ViewStats is the hit count for one (app, uri) pair within a window.
type ViewStats struct {
	App  string `json:"app"`
	URI  string `json:"uri"`
	Hits int64  `json:"hits"`
}

// StatsQuery selects hits in [Start, End], optionally for a URI subset.
type StatsQuery struct {
	Start  time.Time
	End    time.Time
	URIs   []string
	Unique bool
}
