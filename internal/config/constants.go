package config

// DefaultDatabasePath is where the sqlite database lives unless overridden.
const DefaultDatabasePath = "./data/openshelf.db"
