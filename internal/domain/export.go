package domain

import "time"

// ExportMeta identifies the render a batch of exported rows came from.
type ExportMeta struct {
	Filter      string
	RenderID    string
	GeneratedAt time.Time
}
