package domain

import "time"

// SchemaStructure lists the tables of one schema in a discovered database.
type SchemaStructure struct {
	Tables     []string `json:"tables"`
	TableCount int      `json:"table_count"`
}

// SourceStructure is the discovered layout of a source database. Schemas
// whose table listing could not be read are omitted from Schemas; discovery
// degrades rather than fails.
type SourceStructure struct {
	Database     string                     `json:"database"`
	Schemas      map[string]SchemaStructure `json:"schemas"`
	TotalTables  int                        `json:"total_tables"`
	DiscoveredAt time.Time                  `json:"discovered_at"`
}
