package schemas

import "embed"

// SchemasFS содержит JSON-схемы всех событий, которыми обменивается сервис.
//
//go:embed events
var SchemasFS embed.FS
